package metatree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	mterrors "github.com/bayesgo/metatree/pkg/errors"
	"github.com/bayesgo/metatree/submodel"
)

// mcmcTestData builds a batch with 3 continuous and 2 categorical features
// whose target depends on the first continuous feature.
func mcmcTestData(n int, seed int64) (*mat.Dense, [][]int, []float64) {
	rng := rand.New(rand.NewSource(seed))
	xc := mat.NewDense(n, 3, nil)
	xcat := make([][]int, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			xc.Set(i, j, rng.Float64()*6-3)
		}
		xcat[i] = []int{rng.Intn(2), rng.Intn(2)}
		y[i] = 2*xc.At(i, 0) + 0.1*rng.NormFloat64()
	}
	return xc, xcat, y
}

func newLRModel(t *testing.T) *LearnModel {
	t.Helper()
	sub, err := submodel.NewLinearRegression(3, nil, nil, 2, 2)
	require.NoError(t, err)
	m, err := NewLearnModel(Config{
		DimContinuous:  3,
		DimCategorical: 2,
		MaxDepth:       3,
		SubModel:       sub,
	})
	require.NoError(t, err)
	return m
}

func TestGMaxTunerStaysInUnitInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	tuner := newGMaxTuner(0.99, 0.999, 0.3)
	g := 0.0
	for i := 0; i < 2000; i++ {
		if rng.Float64() < 0.2 {
			tuner.accept()
		} else {
			tuner.reject()
		}
		g = tuner.update(g)
		require.GreaterOrEqual(t, g, 0.0, "iteration %d", i)
		require.LessOrEqual(t, g, 1.0, "iteration %d", i)
	}
}

func TestGMaxTunerMovesTowardsTarget(t *testing.T) {
	// Constant rejection pushes the ceiling up, constant acceptance pulls
	// it down.
	up := newGMaxTuner(0.99, 0.999, 0.3)
	g := 0.5
	for i := 0; i < 200; i++ {
		up.reject()
		g = up.update(g)
	}
	assert.Greater(t, g, 0.5)

	down := newGMaxTuner(0.99, 0.999, 0.3)
	g = 0.5
	for i := 0; i < 200; i++ {
		down.accept()
		g = down.update(g)
	}
	assert.Less(t, g, 0.5)
}

func TestMTMCMCSingleFeatureShortCircuit(t *testing.T) {
	sub, err := submodel.NewNormal(0, 1, 2, 2)
	require.NoError(t, err)
	m, err := NewLearnModel(Config{DimContinuous: 1, MaxDepth: 2, SubModel: sub})
	require.NoError(t, err)

	x := mat.NewDense(6, 1, []float64{-2, -1, -0.5, 0.5, 1, 2})
	y := []float64{-1, -1, -1, 1, 1, 1}
	require.NoError(t, m.UpdatePosterior(x, nil, y, AlgMTMCMC, &UpdateOptions{Seed: 5}))

	trees, probs := m.Metatrees()
	require.Len(t, trees, 1)
	assert.Equal(t, []float64{1}, probs)
	assert.True(t, m.IsFitted())
}

func TestMTMCMCWeightsAndStructures(t *testing.T) {
	m := newLRModel(t)
	xc, xcat, y := mcmcTestData(20, 3)
	opts := &UpdateOptions{Seed: 42, BurnIn: 30, NumMetatrees: 50}
	require.NoError(t, m.UpdatePosterior(xc, xcat, y, AlgMTMCMC, opts))

	trees, probs := m.Metatrees()
	require.NotEmpty(t, trees)
	require.Len(t, probs, len(trees))

	sum := 0.0
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1, sum, 1e-9)

	for i := 0; i < len(trees); i++ {
		for j := i + 1; j < len(trees); j++ {
			assert.False(t, m.sameStructure(trees[i], trees[j]),
				"trees %d and %d share a structure after merging", i, j)
		}
	}
}

func TestMTMCMCDeterminism(t *testing.T) {
	xc, xcat, y := mcmcTestData(10, 9)
	opts := func() *UpdateOptions {
		return &UpdateOptions{Seed: 7, BurnIn: 20, NumMetatrees: 30}
	}

	run := func() ([]float64, []float64) {
		m := newLRModel(t)
		require.NoError(t, m.UpdatePosterior(xc, xcat, y, AlgMTMCMC, opts()))
		_, probs := m.Metatrees()
		require.NoError(t, m.CalcPredDist(xc, xcat))
		pred, err := m.MakePrediction(LossSquared)
		require.NoError(t, err)
		return probs, pred
	}

	probs1, pred1 := run()
	probs2, pred2 := run()
	assert.Equal(t, probs1, probs2)
	assert.Equal(t, pred1, pred2)
}

func TestMTMCMCConstantChecks(t *testing.T) {
	sub, err := submodel.NewNormal(0, 1, 2, 2)
	require.NoError(t, err)

	t.Run("unequal children", func(t *testing.T) {
		m, err := NewLearnModel(Config{
			DimContinuous:  2,
			NumChildrenVec: []int{2, 3},
			SubModel:       sub,
		})
		require.NoError(t, err)
		x := mat.NewDense(4, 2, []float64{0, 1, 1, 0, 2, 2, 3, 1})
		err = m.UpdatePosterior(x, nil, []float64{1, 2, 3, 4}, AlgMTMCMC, nil)
		var pfe *mterrors.ParameterFormatError
		assert.True(t, mterrors.As(err, &pfe))
	})
	t.Run("assignment limits", func(t *testing.T) {
		m, err := NewLearnModel(Config{
			DimContinuous:    2,
			NumAssignmentVec: []int{1, -1},
			SubModel:         sub,
		})
		require.NoError(t, err)
		x := mat.NewDense(4, 2, []float64{0, 1, 1, 0, 2, 2, 3, 1})
		err = m.UpdatePosterior(x, nil, []float64{1, 2, 3, 4}, AlgMTMCMC, nil)
		var pfe *mterrors.ParameterFormatError
		assert.True(t, mterrors.As(err, &pfe))
	})
	t.Run("unknown threshold type", func(t *testing.T) {
		m, err := NewLearnModel(Config{DimContinuous: 2, SubModel: sub})
		require.NoError(t, err)
		x := mat.NewDense(4, 2, []float64{0, 1, 1, 0, 2, 2, 3, 1})
		err = m.UpdatePosterior(x, nil, []float64{1, 2, 3, 4}, AlgMTMCMC,
			&UpdateOptions{ThresholdType: "quantile"})
		var pfe *mterrors.ParameterFormatError
		assert.True(t, mterrors.As(err, &pfe))
	})
}

func TestREMTMCMCWeightsAndDeterminism(t *testing.T) {
	xc, xcat, y := mcmcTestData(15, 21)
	opts := func() *UpdateOptions {
		return &UpdateOptions{
			Seed:         13,
			BurnIn:       15,
			NumMetatrees: 20,
			NumChains:    3,
			NumInterval:  5,
			NumExchange:  2,
			GMax:         0.8,
		}
	}

	run := func() ([]float64, int) {
		m := newLRModel(t)
		require.NoError(t, m.UpdatePosterior(xc, xcat, y, AlgREMTMCMC, opts()))
		trees, probs := m.Metatrees()
		return probs, len(trees)
	}

	probs1, n1 := run()
	probs2, n2 := run()
	assert.Equal(t, n1, n2)
	assert.Equal(t, probs1, probs2)

	sum := 0.0
	for _, p := range probs1 {
		sum += p
	}
	assert.InDelta(t, 1, sum, 1e-9)

	// Exchanging after every round of local steps must still leave a
	// normalized ensemble on the temperature-one chain.
	m := newLRModel(t)
	o := opts()
	o.NumInterval = 1
	require.NoError(t, m.UpdatePosterior(xc, xcat, y, AlgREMTMCMC, o))
	trees, probs := m.Metatrees()
	require.NotEmpty(t, trees)
	sum = 0.0
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1, sum, 1e-9)
}

func TestREMTMCMCEqualBetasExchange(t *testing.T) {
	// Equal inverse temperatures make every swap acceptance ratio exactly
	// one, so frequent exchange rounds must still leave a valid ensemble.
	m := newLRModel(t)
	xc, xcat, y := mcmcTestData(12, 33)
	err := m.UpdatePosterior(xc, xcat, y, AlgREMTMCMC, &UpdateOptions{
		Seed:         3,
		BurnIn:       10,
		NumMetatrees: 15,
		NumChains:    3,
		BetaVec:      []float64{1, 1, 1},
		NumInterval:  1,
		NumExchange:  3,
	})
	require.NoError(t, err)

	trees, probs := m.Metatrees()
	require.NotEmpty(t, trees)
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1, sum, 1e-9)
}

func TestREMTMCMCBetaValidation(t *testing.T) {
	m := newLRModel(t)
	xc, xcat, y := mcmcTestData(8, 2)

	err := m.UpdatePosterior(xc, xcat, y, AlgREMTMCMC, &UpdateOptions{
		NumChains: 2,
		BetaVec:   []float64{0.5, 1.5},
	})
	var pfe *mterrors.ParameterFormatError
	assert.True(t, mterrors.As(err, &pfe))

	err = m.UpdatePosterior(xc, xcat, y, AlgREMTMCMC, &UpdateOptions{
		NumChains: 3,
		BetaVec:   []float64{0.5, 1},
	})
	assert.True(t, mterrors.As(err, &pfe))
}

func TestUpdatePosteriorUnknownAlgorithm(t *testing.T) {
	m := newLRModel(t)
	xc, xcat, y := mcmcTestData(6, 1)
	err := m.UpdatePosterior(xc, xcat, y, "simulated_annealing", nil)
	var ce *mterrors.CriteriaError
	assert.True(t, mterrors.As(err, &ce))
}

func TestGivenMTRequiresEnsemble(t *testing.T) {
	m := newLRModel(t)
	xc, xcat, y := mcmcTestData(6, 4)
	err := m.UpdatePosterior(xc, xcat, y, AlgGivenMT, nil)
	var pfe *mterrors.ParameterFormatError
	assert.True(t, mterrors.As(err, &pfe))
}
