package metatree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	mterrors "github.com/bayesgo/metatree/pkg/errors"
	"github.com/bayesgo/metatree/submodel"
)

func newNormalModel(t *testing.T, cfg Config) *LearnModel {
	t.Helper()
	if cfg.SubModel == nil {
		sub, err := submodel.NewNormal(0, 1, 2, 2)
		require.NoError(t, err)
		cfg.SubModel = sub
	}
	m, err := NewLearnModel(cfg)
	require.NoError(t, err)
	return m
}

func TestNewLearnModelDefaults(t *testing.T) {
	m := newNormalModel(t, Config{DimContinuous: 2, DimCategorical: 1})

	assert.Equal(t, 2, m.MaxDepth())
	assert.Equal(t, []int{2, 2, 2}, m.numChildrenVec)
	assert.Equal(t, []int{-1, -1, -1}, m.numAssignmentVec)
	assert.Equal(t, [][2]float64{{-3, 3}, {-3, 3}}, m.ranges)
	assert.InDelta(t, 0.5, m.H0G(), 1e-12)
	assert.Equal(t, []int{0, 1, 2}, m.rootKCandidates)
	assert.False(t, m.IsFitted())
}

func TestNewLearnModelValidation(t *testing.T) {
	sub, err := submodel.NewNormal(0, 1, 2, 2)
	require.NoError(t, err)

	cases := []struct {
		name string
		cfg  Config
	}{
		{"no features", Config{SubModel: sub}},
		{"negative continuous", Config{DimContinuous: -1, DimCategorical: 2, SubModel: sub}},
		{"negative depth", Config{DimContinuous: 1, MaxDepth: -2, SubModel: sub}},
		{"children below 2", Config{DimContinuous: 2, NumChildrenVec: []int{2, 1}, SubModel: sub}},
		{"children length", Config{DimContinuous: 2, NumChildrenVec: []int{2}, SubModel: sub}},
		{"ranges length", Config{DimContinuous: 2, Ranges: [][2]float64{{0, 1}}, SubModel: sub}},
		{"inverted range", Config{DimContinuous: 1, Ranges: [][2]float64{{2, 1}}, SubModel: sub}},
		{"h0g above 1", Config{DimContinuous: 1, H0G: 1.5, SubModel: sub}},
		{"weight length", Config{DimContinuous: 1, H0KWeightVec: []float64{1, 1}, SubModel: sub}},
		{"non-positive weight", Config{DimContinuous: 2, H0KWeightVec: []float64{1, 0}, SubModel: sub}},
		{"nil sub-model", Config{DimContinuous: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLearnModel(tc.cfg)
			require.Error(t, err)
			var pfe *mterrors.ParameterFormatError
			assert.True(t, mterrors.As(err, &pfe))
		})
	}
}

func TestRootKCandidatesWithAssignmentLimits(t *testing.T) {
	m := newNormalModel(t, Config{
		DimContinuous:    2,
		MaxDepth:         3,
		NumAssignmentVec: []int{2, -1},
	})
	assert.Equal(t, []int{0, 0, 1}, m.rootKCandidates)
}

func TestCheckSampleValidation(t *testing.T) {
	m := newNormalModel(t, Config{DimContinuous: 1, DimCategorical: 1})

	x := mat.NewDense(3, 1, []float64{0, 1, 2})
	cat := [][]int{{0}, {1}, {0}}
	y := []float64{1, 2, 3}

	t.Run("valid", func(t *testing.T) {
		s, err := m.checkSample(x, cat, y, true)
		require.NoError(t, err)
		assert.Equal(t, 3, s.n)
	})
	t.Run("missing continuous", func(t *testing.T) {
		_, err := m.checkSample(nil, cat, y, true)
		var dfe *mterrors.DataFormatError
		assert.True(t, mterrors.As(err, &dfe))
	})
	t.Run("column mismatch", func(t *testing.T) {
		_, err := m.checkSample(mat.NewDense(3, 2, nil), cat, y, true)
		var de *mterrors.DimensionError
		assert.True(t, mterrors.As(err, &de))
	})
	t.Run("row mismatch", func(t *testing.T) {
		_, err := m.checkSample(x, [][]int{{0}, {1}}, y, true)
		var de *mterrors.DimensionError
		assert.True(t, mterrors.As(err, &de))
	})
	t.Run("category out of range", func(t *testing.T) {
		_, err := m.checkSample(x, [][]int{{0}, {1}, {2}}, y, true)
		var dfe *mterrors.DataFormatError
		assert.True(t, mterrors.As(err, &dfe))
	})
	t.Run("target length", func(t *testing.T) {
		_, err := m.checkSample(x, cat, []float64{1}, true)
		var de *mterrors.DimensionError
		assert.True(t, mterrors.As(err, &de))
	})
}

func TestChildIndexRouting(t *testing.T) {
	m := newNormalModel(t, Config{DimContinuous: 1})
	s, err := m.checkSample(mat.NewDense(4, 1, []float64{0.5, 1.0, 1.5, 2.0}), nil, nil, false)
	require.NoError(t, err)

	node := &Node{k: 0, thresholds: []float64{0, 1, 2}, children: []*Node{{}, {}}}
	assert.Equal(t, 0, m.childIndex(node, s, 0)) // 0.5 < 1
	assert.Equal(t, 1, m.childIndex(node, s, 1)) // boundary goes right
	assert.Equal(t, 1, m.childIndex(node, s, 2))
	assert.Equal(t, 1, m.childIndex(node, s, 3))

	// When the thresholds collapse to a point, values at or above it
	// all fall through to the last child; smaller values still go left.
	node.thresholds = []float64{1, 1, 1}
	assert.Equal(t, 0, m.childIndex(node, s, 0)) // 0.5 < 1
	for row := 1; row < 4; row++ {
		assert.Equal(t, 1, m.childIndex(node, s, row))
	}
}

func TestLogAddExp(t *testing.T) {
	got := logAddExp(math.Log(0.3), math.Log(0.7))
	assert.InDelta(t, 0, got, 1e-12)

	assert.Equal(t, math.Log(0.5), logAddExp(math.Inf(-1), math.Log(0.5)))
	assert.Equal(t, math.Log(0.5), logAddExp(math.Log(0.5), math.Inf(-1)))

	// Large magnitudes must not overflow.
	got = logAddExp(1000, 1000)
	assert.InDelta(t, 1000+math.Log(2), got, 1e-9)
}

func TestMakeThresholds1DKMeans(t *testing.T) {
	th := makeThresholds1DKMeans([]float64{0.2, 0, 5, 0.1, 5.1, 0.2})
	require.Len(t, th, 3)
	assert.InDelta(t, 0, th[0], 1e-12)
	assert.InDelta(t, 2.6, th[1], 1e-12)
	assert.InDelta(t, 5.1, th[2], 1e-12)
}

func TestMakeEvenThresholds(t *testing.T) {
	th := makeEvenThresholds(0, 4, 4)
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, th)
}

func TestMakeChildrenSeedsPriorSplitProbability(t *testing.T) {
	m := newNormalModel(t, Config{DimContinuous: 1, H0G: 0.4})
	require.NoError(t, m.SetHnG(0.9))

	node := newNode(0, []int{0}, m.HnG(), [][2]float64{{0, 1}}, 0)
	node.k = 0
	m.makeChildren(node, []float64{0, 0.5, 1})

	require.Len(t, node.children, 2)
	for _, child := range node.children {
		assert.Equal(t, 0.4, child.hG)
	}
	assert.Equal(t, [2]float64{0, 0.5}, node.children[0].ranges[0])
	assert.Equal(t, [2]float64{0.5, 1}, node.children[1].ranges[0])
}

func TestPosteriorRecursionMixesLeafAndSplit(t *testing.T) {
	m := newNormalModel(t, Config{DimContinuous: 1, H0G: 0.5})
	y := []float64{0, 0, 1, 1}

	build := func() *Node {
		root := newNode(0, []int{0}, 0.5, [][2]float64{{0, 1}}, 0)
		root.k = 0
		root.subModel = m.subModel.Clone()
		m.makeChildren(root, []float64{0, 0.5, 1})
		for _, c := range root.children {
			c.leaf = true
		}
		return root
	}

	s, err := m.checkSample(mat.NewDense(4, 1, []float64{0.1, 0.2, 0.8, 0.9}), nil, y, true)
	require.NoError(t, err)
	root := build()
	total, err := m.updatePosteriorRecursion(root, s, s.allRows())
	require.NoError(t, err)

	// The subtree likelihood mixes the no-split and split hypotheses at
	// the prior split probability, and the posterior hG is the split
	// hypothesis' share of that mixture.
	split := math.Log(0.5)
	for _, ll := range root.logChildrenML {
		split += ll
	}
	want := logAddExp(math.Log(1-0.5)+root.logML, split)
	assert.InDelta(t, want, total, 1e-12)
	assert.InDelta(t, math.Exp(split-total), root.hG, 1e-12)

	// Mirroring the feature swaps which child receives which row group,
	// which must not change the likelihood or the posterior hG.
	sm, err := m.checkSample(mat.NewDense(4, 1, []float64{0.9, 0.8, 0.2, 0.1}), nil, y, true)
	require.NoError(t, err)
	mirrored := build()
	totalMirrored, err := m.updatePosteriorRecursion(mirrored, sm, sm.allRows())
	require.NoError(t, err)
	assert.InDelta(t, total, totalMirrored, 1e-12)
	assert.InDelta(t, root.hG, mirrored.hG, 1e-12)
}

func TestMergeMetatreesKeepsFirstAndNormalizes(t *testing.T) {
	m := newNormalModel(t, Config{DimContinuous: 1})

	leafA := &Node{leaf: true}
	leafB := &Node{leaf: true}
	inner := &Node{k: 0, thresholds: []float64{-3, 0, 3}, children: []*Node{{leaf: true}, {leaf: true}}}

	trees, probs := m.mergeMetatrees([]*Node{leafA, inner, leafB}, []float64{0.25, 0.5, 0.25})
	require.Len(t, trees, 2)
	assert.Same(t, leafA, trees[0])
	assert.Same(t, inner, trees[1])
	assert.InDelta(t, 0.5, probs[0], 1e-12)
	assert.InDelta(t, 0.5, probs[1], 1e-12)

	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1, sum, 1e-12)
}

func TestSameStructureThresholdTolerance(t *testing.T) {
	m := newNormalModel(t, Config{DimContinuous: 1})

	a := &Node{k: 0, thresholds: []float64{-3, 1, 3}, children: []*Node{{leaf: true}, {leaf: true}}}
	b := &Node{k: 0, thresholds: []float64{-3, 1 + 1e-9, 3}, children: []*Node{{leaf: true}, {leaf: true}}}
	c := &Node{k: 0, thresholds: []float64{-3, 2, 3}, children: []*Node{{leaf: true}, {leaf: true}}}

	assert.True(t, m.sameStructure(a, b))
	assert.False(t, m.sameStructure(a, c))
	assert.False(t, m.sameStructure(a, &Node{leaf: true}))
}

func TestSetHnKWeightVec(t *testing.T) {
	m := newNormalModel(t, Config{DimContinuous: 2})

	require.NoError(t, m.SetHnKWeightVec([]float64{2, 1}))
	assert.Equal(t, []float64{2, 1}, m.HnKWeightVec())

	assert.Error(t, m.SetHnKWeightVec([]float64{1}))
	assert.Error(t, m.SetHnKWeightVec([]float64{1, 0}))

	// The getter returns a copy.
	w := m.HnKWeightVec()
	w[0] = 99
	assert.Equal(t, []float64{2, 1}, m.HnKWeightVec())
}

func TestResetHnParams(t *testing.T) {
	m := newNormalModel(t, Config{DimContinuous: 1})
	require.NoError(t, m.SetHnG(0.9))
	m.hnMetatreeList = []*Node{{leaf: true}}
	m.hnMetatreeProbVec = []float64{1}
	m.SetFitted()

	m.ResetHnParams()
	assert.Equal(t, m.H0G(), m.HnG())
	trees, probs := m.Metatrees()
	assert.Nil(t, trees)
	assert.Nil(t, probs)
	assert.False(t, m.IsFitted())
}
