package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("LearnModel", "MakePrediction")
	require.Error(t, err)

	var nfe *NotFittedError
	require.True(t, As(err, &nfe))
	assert.Equal(t, "LearnModel", nfe.ModelName)
	assert.Equal(t, "MakePrediction", nfe.Method)
	assert.Contains(t, err.Error(), "not fitted")
	assert.Contains(t, err.Error(), "MakePrediction()")
}

func TestNewParameterFormatError(t *testing.T) {
	err := NewParameterFormatError("H0G", "must be in [0, 1]", 1.5)
	require.Error(t, err)

	var pfe *ParameterFormatError
	require.True(t, As(err, &pfe))
	assert.Equal(t, "H0G", pfe.ParamName)
	assert.Contains(t, err.Error(), "invalid parameter 'H0G'")
	assert.Contains(t, err.Error(), "1.5")
}

func TestNewDataFormatErrorf(t *testing.T) {
	err := NewDataFormatErrorf("checkSample", "categorical feature %d out of range", 3)
	require.Error(t, err)

	var dfe *DataFormatError
	require.True(t, As(err, &dfe))
	assert.Equal(t, "checkSample", dfe.Op)
	assert.Equal(t, "categorical feature 3 out of range", dfe.Reason)
}

func TestNewCriteriaError(t *testing.T) {
	err := NewCriteriaError("MakePrediction", "absolute", []string{"squared", "0-1"})
	require.Error(t, err)

	var ce *CriteriaError
	require.True(t, As(err, &ce))
	assert.Equal(t, []string{"squared", "0-1"}, ce.Supported)
	assert.Contains(t, err.Error(), `unsupported criterion "absolute"`)
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("UpdatePosterior", 3, 2, 1)
	require.Error(t, err)

	var de *DimensionError
	require.True(t, As(err, &de))
	assert.Equal(t, 3, de.Expected)
	assert.Equal(t, 2, de.Got)
	assert.Contains(t, err.Error(), "features")

	rows := NewDimensionError("UpdatePosterior", 10, 5, 0)
	assert.Contains(t, rows.Error(), "rows")
}

func TestWrapPreservesType(t *testing.T) {
	base := NewParameterFormatError("MaxDepth", "must be at least 1", 0)
	wrapped := Wrapf(base, "building model %q", "demo")

	var pfe *ParameterFormatError
	assert.True(t, As(wrapped, &pfe))
	assert.Contains(t, wrapped.Error(), "demo")
}

func TestIsSentinelErrors(t *testing.T) {
	err := Wrap(ErrEmptyData, "checkSample")
	assert.True(t, Is(err, ErrEmptyData))
	assert.False(t, Is(err, ErrSingularMatrix))
}

func TestWarnHandlerDispatch(t *testing.T) {
	var handled error
	SetWarningHandler(func(w error) { handled = w })
	SetZerologWarnFunc(nil)
	t.Cleanup(func() {
		SetWarningHandler(nil)
		SetZerologWarnFunc(nil)
	})

	w := NewResultWarning("EstimateParams", "empty ensemble")
	Warn(w)
	assert.Equal(t, w, handled)

	// The zerolog sink takes precedence over the plain handler.
	var sunk error
	SetZerologWarnFunc(func(w error) { sunk = w })
	handled = nil
	Warn(w)
	assert.Equal(t, w, sunk)
	assert.Nil(t, handled)
}
