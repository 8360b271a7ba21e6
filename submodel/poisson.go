package submodel

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/bayesgo/metatree/pkg/errors"
)

// Poisson is a Poisson observation model with a conjugate gamma prior on the
// rate. The posterior predictive is negative binomial.
type Poisson struct {
	h0Alpha float64
	h0Beta  float64
	hnAlpha float64
	hnBeta  float64

	// Sum of lgamma(y_i + 1) over all folded-in targets. The base measure of
	// the Poisson likelihood, needed for the exact marginal likelihood.
	sumLgammaY float64
}

// NewPoisson creates a Poisson sub-model with rate prior Gamma(h0Alpha, h0Beta).
func NewPoisson(h0Alpha, h0Beta float64) (*Poisson, error) {
	if err := checkPositive("h0_alpha", h0Alpha); err != nil {
		return nil, err
	}
	if err := checkPositive("h0_beta", h0Beta); err != nil {
		return nil, err
	}
	return &Poisson{
		h0Alpha: h0Alpha,
		h0Beta:  h0Beta,
		hnAlpha: h0Alpha,
		hnBeta:  h0Beta,
	}, nil
}

// Family implements SubModel.
func (m *Poisson) Family() Family { return FamilyPoisson }

// H0Params returns the prior hyperparameters (alpha, beta).
func (m *Poisson) H0Params() (float64, float64) { return m.h0Alpha, m.h0Beta }

// HnParams returns the posterior hyperparameters (alpha, beta).
func (m *Poisson) HnParams() (float64, float64) { return m.hnAlpha, m.hnBeta }

// CheckTarget implements SubModel.
func (m *Poisson) CheckTarget(y []float64) error {
	for _, v := range y {
		if v != math.Trunc(v) || v < 0 {
			return errors.NewDataFormatErrorf("poisson", "targets must be non-negative integers, got %g", v)
		}
	}
	return nil
}

// UpdatePosterior implements SubModel.
func (m *Poisson) UpdatePosterior(_ mat.Matrix, y []float64) error {
	if err := m.CheckTarget(y); err != nil {
		return err
	}
	for _, v := range y {
		m.hnAlpha += v
		m.hnBeta++
		m.sumLgammaY += lgamma(v + 1)
	}
	return nil
}

// LogMarginalLikelihood implements SubModel.
func (m *Poisson) LogMarginalLikelihood() float64 {
	return lgamma(m.hnAlpha) - lgamma(m.h0Alpha) +
		m.h0Alpha*math.Log(m.h0Beta) - m.hnAlpha*math.Log(m.hnBeta) -
		m.sumLgammaY
}

// ResetHnParams implements SubModel.
func (m *Poisson) ResetHnParams() {
	m.hnAlpha = m.h0Alpha
	m.hnBeta = m.h0Beta
	m.sumLgammaY = 0
}

// CalcPredDist implements SubModel. The predictive does not depend on x.
func (m *Poisson) CalcPredDist(_ []float64) error { return nil }

// PredMean implements SubModel.
func (m *Poisson) PredMean() (float64, error) {
	return m.hnAlpha / m.hnBeta, nil
}

// PredVar implements SubModel.
func (m *Poisson) PredVar() (float64, error) {
	return m.hnAlpha * (m.hnBeta + 1) / (m.hnBeta * m.hnBeta), nil
}

// PredDensity implements SubModel. It evaluates the negative binomial
// predictive mass at y; non-integer or negative y has zero mass.
func (m *Poisson) PredDensity(y float64) float64 {
	if y != math.Trunc(y) || y < 0 {
		return 0
	}
	logP := lgamma(y+m.hnAlpha) - lgamma(y+1) - lgamma(m.hnAlpha) +
		m.hnAlpha*math.Log(m.hnBeta/(m.hnBeta+1)) -
		y*math.Log(m.hnBeta+1)
	return math.Exp(logP)
}

// Clone implements SubModel.
func (m *Poisson) Clone() SubModel {
	return &Poisson{
		h0Alpha: m.h0Alpha,
		h0Beta:  m.h0Beta,
		hnAlpha: m.h0Alpha,
		hnBeta:  m.h0Beta,
	}
}

// Copy implements SubModel.
func (m *Poisson) Copy() SubModel {
	c := *m
	return &c
}

var _ SubModel = (*Poisson)(nil)
