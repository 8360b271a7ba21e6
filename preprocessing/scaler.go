// Package preprocessing provides feature scaling transforms applied to
// the continuous design matrix before model fitting.
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/bayesgo/metatree/core/model"
	"github.com/bayesgo/metatree/pkg/errors"
)

var (
	_ model.InvertibleTransformer = (*StandardScaler)(nil)
	_ model.InvertibleTransformer = (*MinMaxScaler)(nil)
)

// StandardScaler shifts every feature to zero mean and unit variance.
// Constant features keep a scale of one so the transform stays finite.
type StandardScaler struct {
	model.BaseEstimator

	Mean      []float64
	Scale     []float64
	NFeatures int
}

// NewStandardScaler returns an unfitted StandardScaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit computes the per-feature mean and standard deviation of x.
func (s *StandardScaler) Fit(x mat.Matrix) error {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "StandardScaler.Fit")
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += x.At(i, j)
		}
		s.Mean[j] = sum / float64(r)

		var sq float64
		for i := 0; i < r; i++ {
			d := x.At(i, j) - s.Mean[j]
			sq += d * d
		}
		s.Scale[j] = math.Sqrt(sq / float64(r))
		if s.Scale[j] < 1e-8 {
			s.Scale[j] = 1.0
		}
	}

	s.SetFitted()
	return nil
}

// Transform standardizes x with the fitted statistics.
func (s *StandardScaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}
	r, c := x.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, (x.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return out, nil
}

// FitTransform fits the scaler on x and returns the transformed copy.
func (s *StandardScaler) FitTransform(x mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}

// InverseTransform maps standardized values back to the original scale.
func (s *StandardScaler) InverseTransform(x mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}
	r, c := x.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, x.At(i, j)*s.Scale[j]+s.Mean[j])
		}
	}
	return out, nil
}

// MinMaxScaler rescales every feature into the range [Lo, Hi].
type MinMaxScaler struct {
	model.BaseEstimator

	Lo, Hi    float64
	DataMin   []float64
	DataMax   []float64
	span      []float64
	NFeatures int
}

// NewMinMaxScaler returns an unfitted MinMaxScaler targeting [lo, hi].
func NewMinMaxScaler(lo, hi float64) (*MinMaxScaler, error) {
	if hi <= lo {
		return nil, errors.NewParameterFormatError("feature range",
			"upper bound must exceed lower bound", [2]float64{lo, hi})
	}
	return &MinMaxScaler{Lo: lo, Hi: hi}, nil
}

// Fit records the per-feature minimum and maximum of x.
func (m *MinMaxScaler) Fit(x mat.Matrix) error {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "MinMaxScaler.Fit")
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.span = make([]float64, c)

	for j := 0; j < c; j++ {
		lo, hi := x.At(0, j), x.At(0, j)
		for i := 1; i < r; i++ {
			v := x.At(i, j)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		m.DataMin[j] = lo
		m.DataMax[j] = hi
		m.span[j] = hi - lo
		if m.span[j] < 1e-8 {
			m.span[j] = 1.0
		}
	}

	m.SetFitted()
	return nil
}

// Transform rescales x into the target range with the fitted bounds.
func (m *MinMaxScaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}
	r, c := x.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", m.NFeatures, c, 1)
	}

	width := m.Hi - m.Lo
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			std := (x.At(i, j) - m.DataMin[j]) / m.span[j]
			out.Set(i, j, std*width+m.Lo)
		}
	}
	return out, nil
}

// FitTransform fits the scaler on x and returns the transformed copy.
func (m *MinMaxScaler) FitTransform(x mat.Matrix) (*mat.Dense, error) {
	if err := m.Fit(x); err != nil {
		return nil, err
	}
	return m.Transform(x)
}

// InverseTransform maps rescaled values back to the original range.
func (m *MinMaxScaler) InverseTransform(x mat.Matrix) (*mat.Dense, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}
	r, c := x.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.InverseTransform", m.NFeatures, c, 1)
	}

	width := m.Hi - m.Lo
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			std := (x.At(i, j) - m.Lo) / width
			out.Set(i, j, std*m.span[j]+m.DataMin[j])
		}
	}
	return out, nil
}
