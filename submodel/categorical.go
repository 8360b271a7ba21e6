package submodel

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/bayesgo/metatree/pkg/errors"
)

// Categorical is a categorical observation model over the classes
// {0, ..., degree-1} with a conjugate Dirichlet prior.
type Categorical struct {
	degree     int
	h0AlphaVec []float64
	hnAlphaVec []float64
}

// NewCategorical creates a Categorical sub-model over degree classes with a
// symmetric Dirichlet(h0Alpha) prior.
func NewCategorical(degree int, h0Alpha float64) (*Categorical, error) {
	if degree < 2 {
		return nil, errors.NewParameterFormatError("degree", "must be at least 2", degree)
	}
	if err := checkPositive("h0_alpha", h0Alpha); err != nil {
		return nil, err
	}
	h0 := make([]float64, degree)
	hn := make([]float64, degree)
	for i := range h0 {
		h0[i] = h0Alpha
		hn[i] = h0Alpha
	}
	return &Categorical{degree: degree, h0AlphaVec: h0, hnAlphaVec: hn}, nil
}

// NewCategoricalVec creates a Categorical sub-model with an explicit
// Dirichlet concentration vector.
func NewCategoricalVec(h0AlphaVec []float64) (*Categorical, error) {
	if len(h0AlphaVec) < 2 {
		return nil, errors.NewParameterFormatError("h0_alpha_vec", "must have at least 2 entries", len(h0AlphaVec))
	}
	for _, v := range h0AlphaVec {
		if err := checkPositive("h0_alpha_vec", v); err != nil {
			return nil, err
		}
	}
	h0 := append([]float64(nil), h0AlphaVec...)
	hn := append([]float64(nil), h0AlphaVec...)
	return &Categorical{degree: len(h0AlphaVec), h0AlphaVec: h0, hnAlphaVec: hn}, nil
}

// Family implements SubModel.
func (m *Categorical) Family() Family { return FamilyCategorical }

// H0AlphaVec returns a copy of the prior concentration vector.
func (m *Categorical) H0AlphaVec() []float64 { return append([]float64(nil), m.h0AlphaVec...) }

// HnAlphaVec returns a copy of the posterior concentration vector.
func (m *Categorical) HnAlphaVec() []float64 { return append([]float64(nil), m.hnAlphaVec...) }

// CheckTarget implements SubModel.
func (m *Categorical) CheckTarget(y []float64) error {
	for _, v := range y {
		k := int(v)
		if float64(k) != v || k < 0 || k >= m.degree {
			return errors.NewDataFormatErrorf("categorical", "targets must be integers in [0, %d), got %g", m.degree, v)
		}
	}
	return nil
}

// UpdatePosterior implements SubModel.
func (m *Categorical) UpdatePosterior(_ mat.Matrix, y []float64) error {
	if err := m.CheckTarget(y); err != nil {
		return err
	}
	for _, v := range y {
		m.hnAlphaVec[int(v)]++
	}
	return nil
}

// LogMarginalLikelihood implements SubModel.
func (m *Categorical) LogMarginalLikelihood() float64 {
	ll := lgamma(floats.Sum(m.h0AlphaVec)) - lgamma(floats.Sum(m.hnAlphaVec))
	for i := range m.hnAlphaVec {
		ll += lgamma(m.hnAlphaVec[i]) - lgamma(m.h0AlphaVec[i])
	}
	return ll
}

// ResetHnParams implements SubModel.
func (m *Categorical) ResetHnParams() {
	copy(m.hnAlphaVec, m.h0AlphaVec)
}

// CalcPredDist implements SubModel. The predictive does not depend on x.
func (m *Categorical) CalcPredDist(_ []float64) error { return nil }

// PredMean implements SubModel. Class labels have no scalar mean.
func (m *Categorical) PredMean() (float64, error) {
	return 0, errors.NewCriteriaError("categorical.PredMean", "mean",
		[]string{"ClassProbs"})
}

// PredVar implements SubModel. Class labels have no scalar variance.
func (m *Categorical) PredVar() (float64, error) {
	return 0, errors.NewCriteriaError("categorical.PredVar", "variance",
		[]string{"ClassProbs"})
}

// PredDensity implements SubModel.
func (m *Categorical) PredDensity(y float64) float64 {
	k := int(y)
	if float64(k) != y || k < 0 || k >= m.degree {
		return 0
	}
	return m.hnAlphaVec[k] / floats.Sum(m.hnAlphaVec)
}

// NumClasses implements ClassProbEstimator.
func (m *Categorical) NumClasses() int { return m.degree }

// ClassProbs implements ClassProbEstimator.
func (m *Categorical) ClassProbs() []float64 {
	total := floats.Sum(m.hnAlphaVec)
	probs := make([]float64, m.degree)
	for i, v := range m.hnAlphaVec {
		probs[i] = v / total
	}
	return probs
}

// Clone implements SubModel.
func (m *Categorical) Clone() SubModel {
	h0 := append([]float64(nil), m.h0AlphaVec...)
	hn := append([]float64(nil), m.h0AlphaVec...)
	return &Categorical{degree: m.degree, h0AlphaVec: h0, hnAlphaVec: hn}
}

// Copy implements SubModel.
func (m *Categorical) Copy() SubModel {
	return &Categorical{
		degree:     m.degree,
		h0AlphaVec: append([]float64(nil), m.h0AlphaVec...),
		hnAlphaVec: append([]float64(nil), m.hnAlphaVec...),
	}
}

var _ SubModel = (*Categorical)(nil)
var _ ClassProbEstimator = (*Categorical)(nil)
