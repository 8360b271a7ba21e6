package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayesgo/metatree/pkg/errors"
)

func TestMSE(t *testing.T) {
	got, err := MSE([]float64{1, 2, 3}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Zero(t, got)

	got, err = MSE([]float64{0, 0}, []float64{1, -1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestRMSE(t *testing.T) {
	got, err := RMSE([]float64{0, 0}, []float64{3, -3})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got, 1e-12)
}

func TestMAE(t *testing.T) {
	got, err := MAE([]float64{1, 2, 3}, []float64{2, 2, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestR2Score(t *testing.T) {
	yTrue := []float64{1, 2, 3, 4}

	got, err := R2Score(yTrue, yTrue)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)

	// Predicting the mean gives a score of zero.
	got, err = R2Score(yTrue, []float64{2.5, 2.5, 2.5, 2.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, got, 1e-12)

	// A constant target degenerates to the 0/1 convention.
	got, err = R2Score([]float64{2, 2}, []float64{2, 2})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
	got, err = R2Score([]float64{2, 2}, []float64{1, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestAccuracy(t *testing.T) {
	got, err := Accuracy([]float64{0, 1, 1, 0}, []float64{0, 1, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, got, 1e-12)
}

func TestLogLoss(t *testing.T) {
	probs := [][]float64{{0.9, 0.1}, {0.2, 0.8}}
	got, err := LogLoss([]float64{0, 1}, probs, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.16425, got, 1e-4)

	// Zero probability stays finite through clipping.
	_, err = LogLoss([]float64{1}, [][]float64{{1, 0}}, 0)
	require.NoError(t, err)

	_, err = LogLoss([]float64{2}, [][]float64{{0.5, 0.5}}, 0)
	require.Error(t, err)
}

func TestInputValidation(t *testing.T) {
	_, err := MSE(nil, nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = MAE([]float64{1, 2}, []float64{1})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}
