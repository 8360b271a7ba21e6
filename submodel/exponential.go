package submodel

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/bayesgo/metatree/pkg/errors"
)

// Exponential is an exponential observation model with a conjugate gamma
// prior on the rate. The posterior predictive is a Lomax distribution.
type Exponential struct {
	h0Alpha float64
	h0Beta  float64
	hnAlpha float64
	hnBeta  float64
}

// NewExponential creates an Exponential sub-model with rate prior
// Gamma(h0Alpha, h0Beta).
func NewExponential(h0Alpha, h0Beta float64) (*Exponential, error) {
	if err := checkPositive("h0_alpha", h0Alpha); err != nil {
		return nil, err
	}
	if err := checkPositive("h0_beta", h0Beta); err != nil {
		return nil, err
	}
	return &Exponential{
		h0Alpha: h0Alpha,
		h0Beta:  h0Beta,
		hnAlpha: h0Alpha,
		hnBeta:  h0Beta,
	}, nil
}

// Family implements SubModel.
func (m *Exponential) Family() Family { return FamilyExponential }

// H0Params returns the prior hyperparameters (alpha, beta).
func (m *Exponential) H0Params() (float64, float64) { return m.h0Alpha, m.h0Beta }

// HnParams returns the posterior hyperparameters (alpha, beta).
func (m *Exponential) HnParams() (float64, float64) { return m.hnAlpha, m.hnBeta }

// CheckTarget implements SubModel.
func (m *Exponential) CheckTarget(y []float64) error {
	for _, v := range y {
		if !(v >= 0) || math.IsInf(v, 1) {
			return errors.NewDataFormatErrorf("exponential", "targets must be non-negative finite reals, got %g", v)
		}
	}
	return nil
}

// UpdatePosterior implements SubModel.
func (m *Exponential) UpdatePosterior(_ mat.Matrix, y []float64) error {
	if err := m.CheckTarget(y); err != nil {
		return err
	}
	for _, v := range y {
		m.hnAlpha++
		m.hnBeta += v
	}
	return nil
}

// LogMarginalLikelihood implements SubModel.
func (m *Exponential) LogMarginalLikelihood() float64 {
	return lgamma(m.hnAlpha) - lgamma(m.h0Alpha) +
		m.h0Alpha*math.Log(m.h0Beta) - m.hnAlpha*math.Log(m.hnBeta)
}

// ResetHnParams implements SubModel.
func (m *Exponential) ResetHnParams() {
	m.hnAlpha = m.h0Alpha
	m.hnBeta = m.h0Beta
}

// CalcPredDist implements SubModel. The predictive does not depend on x.
func (m *Exponential) CalcPredDist(_ []float64) error { return nil }

// PredMean implements SubModel. The Lomax mean is infinite for alpha <= 1.
func (m *Exponential) PredMean() (float64, error) {
	if m.hnAlpha <= 1 {
		return math.Inf(1), nil
	}
	return m.hnBeta / (m.hnAlpha - 1), nil
}

// PredVar implements SubModel. The Lomax variance is infinite for alpha <= 2.
func (m *Exponential) PredVar() (float64, error) {
	if m.hnAlpha <= 2 {
		return math.Inf(1), nil
	}
	a, b := m.hnAlpha, m.hnBeta
	return b * b * a / ((a - 1) * (a - 1) * (a - 2)), nil
}

// PredDensity implements SubModel. Negative y has zero density.
func (m *Exponential) PredDensity(y float64) float64 {
	if y < 0 {
		return 0
	}
	logP := math.Log(m.hnAlpha) + m.hnAlpha*math.Log(m.hnBeta) -
		(m.hnAlpha+1)*math.Log(m.hnBeta+y)
	return math.Exp(logP)
}

// Clone implements SubModel.
func (m *Exponential) Clone() SubModel {
	return &Exponential{
		h0Alpha: m.h0Alpha,
		h0Beta:  m.h0Beta,
		hnAlpha: m.h0Alpha,
		hnBeta:  m.h0Beta,
	}
}

// Copy implements SubModel.
func (m *Exponential) Copy() SubModel {
	c := *m
	return &c
}

var _ SubModel = (*Exponential)(nil)
