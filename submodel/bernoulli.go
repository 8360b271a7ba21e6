package submodel

import (
	"gonum.org/v1/gonum/mat"

	"github.com/bayesgo/metatree/pkg/errors"
)

// Bernoulli is a Bernoulli observation model with a conjugate beta prior.
//
// Prior: theta ~ Beta(alpha, beta). The posterior predictive of y=1 is
// alpha_n / (alpha_n + beta_n).
type Bernoulli struct {
	h0Alpha float64
	h0Beta  float64
	hnAlpha float64
	hnBeta  float64
}

// NewBernoulli creates a Bernoulli sub-model with prior Beta(h0Alpha, h0Beta).
func NewBernoulli(h0Alpha, h0Beta float64) (*Bernoulli, error) {
	if err := checkPositive("h0_alpha", h0Alpha); err != nil {
		return nil, err
	}
	if err := checkPositive("h0_beta", h0Beta); err != nil {
		return nil, err
	}
	return &Bernoulli{
		h0Alpha: h0Alpha,
		h0Beta:  h0Beta,
		hnAlpha: h0Alpha,
		hnBeta:  h0Beta,
	}, nil
}

// Family implements SubModel.
func (m *Bernoulli) Family() Family { return FamilyBernoulli }

// H0Params returns the prior hyperparameters (alpha, beta).
func (m *Bernoulli) H0Params() (float64, float64) { return m.h0Alpha, m.h0Beta }

// HnParams returns the posterior hyperparameters (alpha, beta).
func (m *Bernoulli) HnParams() (float64, float64) { return m.hnAlpha, m.hnBeta }

// CheckTarget implements SubModel.
func (m *Bernoulli) CheckTarget(y []float64) error {
	for _, v := range y {
		if v != 0 && v != 1 {
			return errors.NewDataFormatErrorf("bernoulli", "targets must be 0 or 1, got %g", v)
		}
	}
	return nil
}

// UpdatePosterior implements SubModel.
func (m *Bernoulli) UpdatePosterior(_ mat.Matrix, y []float64) error {
	if err := m.CheckTarget(y); err != nil {
		return err
	}
	for _, v := range y {
		if v == 1 {
			m.hnAlpha++
		} else {
			m.hnBeta++
		}
	}
	return nil
}

// LogMarginalLikelihood implements SubModel.
func (m *Bernoulli) LogMarginalLikelihood() float64 {
	return lnBeta(m.hnAlpha, m.hnBeta) - lnBeta(m.h0Alpha, m.h0Beta)
}

// ResetHnParams implements SubModel.
func (m *Bernoulli) ResetHnParams() {
	m.hnAlpha = m.h0Alpha
	m.hnBeta = m.h0Beta
}

// CalcPredDist implements SubModel. The predictive does not depend on x.
func (m *Bernoulli) CalcPredDist(_ []float64) error { return nil }

// PredMean implements SubModel. It returns the predictive probability of y=1.
func (m *Bernoulli) PredMean() (float64, error) {
	return m.hnAlpha / (m.hnAlpha + m.hnBeta), nil
}

// PredVar implements SubModel.
func (m *Bernoulli) PredVar() (float64, error) {
	p := m.hnAlpha / (m.hnAlpha + m.hnBeta)
	return p * (1 - p), nil
}

// PredDensity implements SubModel. y outside {0, 1} has zero mass.
func (m *Bernoulli) PredDensity(y float64) float64 {
	p := m.hnAlpha / (m.hnAlpha + m.hnBeta)
	switch y {
	case 1:
		return p
	case 0:
		return 1 - p
	default:
		return 0
	}
}

// NumClasses implements ClassProbEstimator.
func (m *Bernoulli) NumClasses() int { return 2 }

// ClassProbs implements ClassProbEstimator.
func (m *Bernoulli) ClassProbs() []float64 {
	p := m.hnAlpha / (m.hnAlpha + m.hnBeta)
	return []float64{1 - p, p}
}

// Clone implements SubModel.
func (m *Bernoulli) Clone() SubModel {
	return &Bernoulli{
		h0Alpha: m.h0Alpha,
		h0Beta:  m.h0Beta,
		hnAlpha: m.h0Alpha,
		hnBeta:  m.h0Beta,
	}
}

// Copy implements SubModel.
func (m *Bernoulli) Copy() SubModel {
	c := *m
	return &c
}

var _ SubModel = (*Bernoulli)(nil)
var _ ClassProbEstimator = (*Bernoulli)(nil)
