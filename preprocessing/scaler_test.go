package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/bayesgo/metatree/core/model"
	"github.com/bayesgo/metatree/pkg/errors"
)

func TestStandardScaler(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	s := NewStandardScaler()
	out, err := s.FitTransform(x)
	require.NoError(t, err)

	// The first column standardizes to zero mean and unit variance.
	var mean, sq float64
	for i := 0; i < 4; i++ {
		mean += out.At(i, 0)
	}
	mean /= 4
	for i := 0; i < 4; i++ {
		d := out.At(i, 0) - mean
		sq += d * d
	}
	assert.InDelta(t, 0.0, mean, 1e-12)
	assert.InDelta(t, 1.0, sq/4, 1e-12)

	// A constant column keeps scale one and maps to zero.
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 0.0, out.At(i, 1), 1e-12)
	}

	back, err := s.InverseTransform(out)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, back.At(2, 0), 1e-12)
	assert.InDelta(t, 10.0, back.At(2, 1), 1e-12)
}

func TestStandardScalerNotFitted(t *testing.T) {
	_, err := NewStandardScaler().Transform(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestStandardScalerDimensionMismatch(t *testing.T) {
	s := NewStandardScaler()
	require.NoError(t, s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err := s.Transform(mat.NewDense(2, 3, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestMinMaxScaler(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{2, 4, 6})

	m, err := NewMinMaxScaler(0, 1)
	require.NoError(t, err)
	out, err := m.FitTransform(x)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 0.5, out.At(1, 0), 1e-12)
	assert.InDelta(t, 1.0, out.At(2, 0), 1e-12)

	back, err := m.InverseTransform(out)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, back.At(1, 0), 1e-12)
}

func TestMinMaxScalerInvalidRange(t *testing.T) {
	_, err := NewMinMaxScaler(1, 1)
	var pfe *errors.ParameterFormatError
	assert.True(t, errors.As(err, &pfe))
}

func TestScalersAsTransformers(t *testing.T) {
	minmax, err := NewMinMaxScaler(0, 1)
	require.NoError(t, err)

	// Both scalers are used behind model.Transformer by callers that
	// pick one at runtime.
	for name, tr := range map[string]model.Transformer{
		"standard": NewStandardScaler(),
		"minmax":   minmax,
	} {
		t.Run(name, func(t *testing.T) {
			x := mat.NewDense(3, 1, []float64{1, 2, 3})
			out, err := tr.FitTransform(x)
			require.NoError(t, err)

			again, err := tr.Transform(x)
			require.NoError(t, err)
			assert.InDelta(t, out.At(1, 0), again.At(1, 0), 1e-12)
		})
	}
}
