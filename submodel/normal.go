package submodel

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/bayesgo/metatree/pkg/errors"
)

// Normal is a Gaussian observation model with unknown mean and precision
// under a conjugate normal-gamma prior. The posterior predictive is a
// location-scale Student's t distribution.
type Normal struct {
	h0M     float64 // prior mean
	h0Kappa float64 // prior pseudo-count on the mean
	h0Alpha float64 // gamma shape on the precision
	h0Beta  float64 // gamma rate on the precision

	// Cumulative sufficient statistics.
	totalN float64
	sum    float64
	sumSq  float64

	hnM     float64
	hnKappa float64
	hnAlpha float64
	hnBeta  float64
}

// NewNormal creates a Normal sub-model with prior mean h0M, mean
// pseudo-count h0Kappa and precision prior Gamma(h0Alpha, h0Beta).
func NewNormal(h0M, h0Kappa, h0Alpha, h0Beta float64) (*Normal, error) {
	if math.IsNaN(h0M) || math.IsInf(h0M, 0) {
		return nil, errors.NewParameterFormatError("h0_m", "must be a finite real number", h0M)
	}
	if err := checkPositive("h0_kappa", h0Kappa); err != nil {
		return nil, err
	}
	if err := checkPositive("h0_alpha", h0Alpha); err != nil {
		return nil, err
	}
	if err := checkPositive("h0_beta", h0Beta); err != nil {
		return nil, err
	}
	m := &Normal{h0M: h0M, h0Kappa: h0Kappa, h0Alpha: h0Alpha, h0Beta: h0Beta}
	m.recalcHnParams()
	return m, nil
}

// Family implements SubModel.
func (m *Normal) Family() Family { return FamilyNormal }

// H0Params returns the prior hyperparameters (m, kappa, alpha, beta).
func (m *Normal) H0Params() (float64, float64, float64, float64) {
	return m.h0M, m.h0Kappa, m.h0Alpha, m.h0Beta
}

// HnParams returns the posterior hyperparameters (m, kappa, alpha, beta).
func (m *Normal) HnParams() (float64, float64, float64, float64) {
	return m.hnM, m.hnKappa, m.hnAlpha, m.hnBeta
}

// CheckTarget implements SubModel.
func (m *Normal) CheckTarget(y []float64) error {
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewDataFormatErrorf("normal", "targets must be finite reals, got %g", v)
		}
	}
	return nil
}

// UpdatePosterior implements SubModel.
func (m *Normal) UpdatePosterior(_ mat.Matrix, y []float64) error {
	if err := m.CheckTarget(y); err != nil {
		return err
	}
	for _, v := range y {
		m.totalN++
		m.sum += v
		m.sumSq += v * v
	}
	m.recalcHnParams()
	return nil
}

// recalcHnParams derives the posterior hyperparameters from the cumulative
// sufficient statistics.
func (m *Normal) recalcHnParams() {
	n := m.totalN
	m.hnKappa = m.h0Kappa + n
	m.hnM = (m.h0Kappa*m.h0M + m.sum) / m.hnKappa
	m.hnAlpha = m.h0Alpha + n/2
	if n > 0 {
		mean := m.sum / n
		ssq := m.sumSq - n*mean*mean
		if ssq < 0 {
			ssq = 0 // guard against cancellation
		}
		d := mean - m.h0M
		m.hnBeta = m.h0Beta + ssq/2 + m.h0Kappa*n*d*d/(2*m.hnKappa)
	} else {
		m.hnBeta = m.h0Beta
	}
}

// LogMarginalLikelihood implements SubModel.
func (m *Normal) LogMarginalLikelihood() float64 {
	return -m.totalN/2*math.Log(2*math.Pi) +
		0.5*(math.Log(m.h0Kappa)-math.Log(m.hnKappa)) +
		lgamma(m.hnAlpha) - lgamma(m.h0Alpha) +
		m.h0Alpha*math.Log(m.h0Beta) - m.hnAlpha*math.Log(m.hnBeta)
}

// ResetHnParams implements SubModel.
func (m *Normal) ResetHnParams() {
	m.totalN = 0
	m.sum = 0
	m.sumSq = 0
	m.recalcHnParams()
}

// CalcPredDist implements SubModel. The predictive does not depend on x.
func (m *Normal) CalcPredDist(_ []float64) error { return nil }

func (m *Normal) predDist() distuv.StudentsT {
	scale := math.Sqrt(m.hnBeta * (m.hnKappa + 1) / (m.hnAlpha * m.hnKappa))
	return distuv.StudentsT{Mu: m.hnM, Sigma: scale, Nu: 2 * m.hnAlpha}
}

// PredMean implements SubModel.
func (m *Normal) PredMean() (float64, error) {
	return m.hnM, nil
}

// PredVar implements SubModel. The variance is infinite when the predictive
// t distribution has at most 2 degrees of freedom.
func (m *Normal) PredVar() (float64, error) {
	nu := 2 * m.hnAlpha
	if nu <= 2 {
		return math.Inf(1), nil
	}
	scale2 := m.hnBeta * (m.hnKappa + 1) / (m.hnAlpha * m.hnKappa)
	return scale2 * nu / (nu - 2), nil
}

// PredDensity implements SubModel.
func (m *Normal) PredDensity(y float64) float64 {
	return m.predDist().Prob(y)
}

// Clone implements SubModel.
func (m *Normal) Clone() SubModel {
	c := &Normal{h0M: m.h0M, h0Kappa: m.h0Kappa, h0Alpha: m.h0Alpha, h0Beta: m.h0Beta}
	c.recalcHnParams()
	return c
}

// Copy implements SubModel.
func (m *Normal) Copy() SubModel {
	c := *m
	return &c
}

var _ SubModel = (*Normal)(nil)
