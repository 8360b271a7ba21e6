package submodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestBernoulliPosterior(t *testing.T) {
	m, err := NewBernoulli(1, 1)
	require.NoError(t, err)

	t.Run("SingleObservation", func(t *testing.T) {
		c := m.Clone().(*Bernoulli)
		require.NoError(t, c.UpdatePosterior(nil, []float64{1}))
		// Uniform prior: the marginal likelihood of one observation is 1/2.
		assert.InDelta(t, math.Log(0.5), c.LogMarginalLikelihood(), 1e-12)

		p, err := c.PredMean()
		require.NoError(t, err)
		assert.InDelta(t, 2.0/3.0, p, 1e-12)
	})

	t.Run("ChainRule", func(t *testing.T) {
		// Folding data in two batches must equal one batch.
		a := m.Clone()
		require.NoError(t, a.UpdatePosterior(nil, []float64{1, 0, 1}))
		require.NoError(t, a.UpdatePosterior(nil, []float64{0, 0}))

		b := m.Clone()
		require.NoError(t, b.UpdatePosterior(nil, []float64{1, 0, 1, 0, 0}))

		assert.InDelta(t, b.LogMarginalLikelihood(), a.LogMarginalLikelihood(), 1e-12)
	})

	t.Run("ClassProbsSumToOne", func(t *testing.T) {
		c := m.Clone().(*Bernoulli)
		require.NoError(t, c.UpdatePosterior(nil, []float64{1, 1, 0}))
		probs := c.ClassProbs()
		assert.Len(t, probs, 2)
		assert.InDelta(t, 1.0, probs[0]+probs[1], 1e-12)
		assert.InDelta(t, probs[1], c.PredDensity(1), 1e-12)
	})

	t.Run("InvalidTarget", func(t *testing.T) {
		c := m.Clone()
		assert.Error(t, c.UpdatePosterior(nil, []float64{0.5}))
	})

	t.Run("InvalidPrior", func(t *testing.T) {
		_, err := NewBernoulli(0, 1)
		assert.Error(t, err)
		_, err = NewBernoulli(1, -2)
		assert.Error(t, err)
	})
}

func TestCategoricalPosterior(t *testing.T) {
	m, err := NewCategorical(3, 0.5)
	require.NoError(t, err)

	t.Run("ChainRule", func(t *testing.T) {
		a := m.Clone()
		require.NoError(t, a.UpdatePosterior(nil, []float64{0, 2, 1}))
		require.NoError(t, a.UpdatePosterior(nil, []float64{2, 2}))

		b := m.Clone()
		require.NoError(t, b.UpdatePosterior(nil, []float64{0, 2, 1, 2, 2}))

		assert.InDelta(t, b.LogMarginalLikelihood(), a.LogMarginalLikelihood(), 1e-12)
	})

	t.Run("ClassProbs", func(t *testing.T) {
		c := m.Clone().(*Categorical)
		require.NoError(t, c.UpdatePosterior(nil, []float64{0, 0, 1}))
		probs := c.ClassProbs()
		assert.Len(t, probs, 3)
		total := 0.0
		for _, p := range probs {
			total += p
		}
		assert.InDelta(t, 1.0, total, 1e-12)
		assert.Greater(t, probs[0], probs[2])
	})

	t.Run("NoScalarMoments", func(t *testing.T) {
		_, err := m.PredMean()
		assert.Error(t, err)
		_, err = m.PredVar()
		assert.Error(t, err)
	})

	t.Run("OutOfRangeTarget", func(t *testing.T) {
		c := m.Clone()
		assert.Error(t, c.UpdatePosterior(nil, []float64{3}))
		assert.Error(t, c.UpdatePosterior(nil, []float64{-1}))
	})
}

func TestPoissonPosterior(t *testing.T) {
	m, err := NewPoisson(2, 1)
	require.NoError(t, err)

	t.Run("ChainRule", func(t *testing.T) {
		a := m.Clone()
		require.NoError(t, a.UpdatePosterior(nil, []float64{3, 0}))
		require.NoError(t, a.UpdatePosterior(nil, []float64{5}))

		b := m.Clone()
		require.NoError(t, b.UpdatePosterior(nil, []float64{3, 0, 5}))

		assert.InDelta(t, b.LogMarginalLikelihood(), a.LogMarginalLikelihood(), 1e-12)
	})

	t.Run("PredictiveMassSums", func(t *testing.T) {
		c := m.Clone().(*Poisson)
		require.NoError(t, c.UpdatePosterior(nil, []float64{2, 4, 1}))
		total := 0.0
		for y := 0.0; y < 200; y++ {
			total += c.PredDensity(y)
		}
		assert.InDelta(t, 1.0, total, 1e-9)

		mean, err := c.PredMean()
		require.NoError(t, err)
		acc := 0.0
		for y := 0.0; y < 200; y++ {
			acc += y * c.PredDensity(y)
		}
		assert.InDelta(t, mean, acc, 1e-6)
	})

	t.Run("NonIntegerTarget", func(t *testing.T) {
		c := m.Clone()
		assert.Error(t, c.UpdatePosterior(nil, []float64{1.5}))
	})
}

func TestExponentialPosterior(t *testing.T) {
	m, err := NewExponential(3, 2)
	require.NoError(t, err)

	t.Run("ChainRule", func(t *testing.T) {
		a := m.Clone()
		require.NoError(t, a.UpdatePosterior(nil, []float64{0.5, 2.5}))
		require.NoError(t, a.UpdatePosterior(nil, []float64{1.0}))

		b := m.Clone()
		require.NoError(t, b.UpdatePosterior(nil, []float64{0.5, 2.5, 1.0}))

		assert.InDelta(t, b.LogMarginalLikelihood(), a.LogMarginalLikelihood(), 1e-12)
	})

	t.Run("LomaxPredictive", func(t *testing.T) {
		c := m.Clone().(*Exponential)
		require.NoError(t, c.UpdatePosterior(nil, []float64{1, 2, 3}))
		alpha, beta := c.HnParams()
		assert.InDelta(t, 6.0, alpha, 1e-12)
		assert.InDelta(t, 8.0, beta, 1e-12)

		mean, err := c.PredMean()
		require.NoError(t, err)
		assert.InDelta(t, beta/(alpha-1), mean, 1e-12)

		assert.Zero(t, c.PredDensity(-1))
		assert.InDelta(t, alpha/beta, c.PredDensity(0), 1e-12)
	})

	t.Run("InfiniteMoments", func(t *testing.T) {
		c, err := NewExponential(0.5, 1)
		require.NoError(t, err)
		mean, err := c.PredMean()
		require.NoError(t, err)
		assert.True(t, math.IsInf(mean, 1))
		v, err := c.PredVar()
		require.NoError(t, err)
		assert.True(t, math.IsInf(v, 1))
	})
}

func TestNormalPosterior(t *testing.T) {
	m, err := NewNormal(0, 1, 2, 2)
	require.NoError(t, err)

	t.Run("ChainRule", func(t *testing.T) {
		a := m.Clone()
		require.NoError(t, a.UpdatePosterior(nil, []float64{1.2, -0.5}))
		require.NoError(t, a.UpdatePosterior(nil, []float64{0.3, 2.0}))

		b := m.Clone()
		require.NoError(t, b.UpdatePosterior(nil, []float64{1.2, -0.5, 0.3, 2.0}))

		assert.InDelta(t, b.LogMarginalLikelihood(), a.LogMarginalLikelihood(), 1e-10)
	})

	t.Run("PosteriorParams", func(t *testing.T) {
		c := m.Clone().(*Normal)
		require.NoError(t, c.UpdatePosterior(nil, []float64{2, 2, 2}))
		mn, kn, an, _ := c.HnParams()
		assert.InDelta(t, 4.0, kn, 1e-12)
		assert.InDelta(t, 6.0/4.0, mn, 1e-12)
		assert.InDelta(t, 3.5, an, 1e-12)

		mean, err := c.PredMean()
		require.NoError(t, err)
		assert.InDelta(t, mn, mean, 1e-12)
	})

	t.Run("DensityIntegratesToOne", func(t *testing.T) {
		c := m.Clone().(*Normal)
		require.NoError(t, c.UpdatePosterior(nil, []float64{0.5, 1.5, -1.0}))
		total := 0.0
		const step = 0.01
		for y := -50.0; y < 50.0; y += step {
			total += c.PredDensity(y) * step
		}
		assert.InDelta(t, 1.0, total, 1e-3)
	})

	t.Run("ResetRestoresPrior", func(t *testing.T) {
		c := m.Clone()
		require.NoError(t, c.UpdatePosterior(nil, []float64{1, 2, 3}))
		c.ResetHnParams()
		assert.Zero(t, c.LogMarginalLikelihood())
	})
}

func TestLinearRegressionPosterior(t *testing.T) {
	t.Run("ChainRule", func(t *testing.T) {
		m, err := NewLinearRegression(2, nil, nil, 2, 2)
		require.NoError(t, err)

		x1 := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
		x2 := mat.NewDense(1, 2, []float64{5, 6})
		xAll := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})

		a := m.Clone()
		require.NoError(t, a.UpdatePosterior(x1, []float64{1.0, 2.0}))
		require.NoError(t, a.UpdatePosterior(x2, []float64{3.0}))

		b := m.Clone()
		require.NoError(t, b.UpdatePosterior(xAll, []float64{1.0, 2.0, 3.0}))

		assert.InDelta(t, b.LogMarginalLikelihood(), a.LogMarginalLikelihood(), 1e-10)
	})

	t.Run("RecoversLinearTrend", func(t *testing.T) {
		m, err := NewLinearRegression(1, nil, nil, 2, 2)
		require.NoError(t, err)

		n := 50
		x := mat.NewDense(n, 1, nil)
		y := make([]float64, n)
		for i := 0; i < n; i++ {
			xi := float64(i) / 5.0
			x.Set(i, 0, xi)
			y[i] = 3*xi + 1
		}
		require.NoError(t, m.UpdatePosterior(x, y))

		require.NoError(t, m.CalcPredDist([]float64{4.0}))
		mean, err := m.PredMean()
		require.NoError(t, err)
		assert.InDelta(t, 13.0, mean, 0.2)

		v, err := m.PredVar()
		require.NoError(t, err)
		assert.Greater(t, v, 0.0)
	})

	t.Run("PredictiveRequiresCalcPredDist", func(t *testing.T) {
		m, err := NewLinearRegression(1, nil, nil, 2, 2)
		require.NoError(t, err)
		_, err = m.PredMean()
		assert.Error(t, err)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		m, err := NewLinearRegression(2, nil, nil, 2, 2)
		require.NoError(t, err)
		x := mat.NewDense(1, 3, []float64{1, 2, 3})
		assert.Error(t, m.UpdatePosterior(x, []float64{1.0}))
		assert.Error(t, m.CalcPredDist([]float64{1.0}))
	})

	t.Run("CopyIsIndependent", func(t *testing.T) {
		m, err := NewLinearRegression(1, nil, nil, 2, 2)
		require.NoError(t, err)
		x := mat.NewDense(2, 1, []float64{1, 2})
		require.NoError(t, m.UpdatePosterior(x, []float64{1.0, 2.0}))

		c := m.Copy()
		assert.InDelta(t, m.LogMarginalLikelihood(), c.LogMarginalLikelihood(), 1e-12)

		require.NoError(t, c.UpdatePosterior(mat.NewDense(1, 1, []float64{3}), []float64{3.0}))
		assert.NotEqual(t, m.LogMarginalLikelihood(), c.LogMarginalLikelihood())
	})
}
