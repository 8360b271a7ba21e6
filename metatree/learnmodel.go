package metatree

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/bayesgo/metatree/core/model"
	mterrors "github.com/bayesgo/metatree/pkg/errors"
	"github.com/bayesgo/metatree/pkg/log"
	"github.com/bayesgo/metatree/submodel"
)

// Config holds the model constants of a LearnModel. Constants are fixed at
// construction time; only hyperparameters change during learning.
type Config struct {
	// DimContinuous and DimCategorical are the numbers of continuous and
	// categorical features. Both are non-negative and their sum is at
	// least 1.
	DimContinuous  int
	DimCategorical int

	// MaxDepth bounds the depth of every meta-tree. Default 2.
	MaxDepth int

	// NumChildrenVec gives the number of children per feature, each at
	// least 2. For a categorical feature it is the number of categories.
	// A nil slice means 2 for every feature.
	NumChildrenVec []int

	// NumAssignmentVec limits how often each feature may be assigned on a
	// root-to-leaf path. Non-positive values mean no limit. Default -1.
	NumAssignmentVec []int

	// Ranges gives [min, max] per continuous feature. Default [-3, 3].
	Ranges [][2]float64

	// SubModel is the prototype leaf model in its prior state. Every node
	// clones it.
	SubModel submodel.SubModel

	// H0G is the prior split probability of every inner node, in (0, 1].
	// Zero selects the default 0.5.
	H0G float64

	// H0KWeightVec weights the features when extracting the MAP tree.
	// All entries positive; nil means uniform.
	H0KWeightVec []float64
}

// LearnModel learns a posterior distribution over meta-trees and predicts
// new targets by averaging over it.
type LearnModel struct {
	model.BaseEstimator

	dimContinuous    int
	dimCategorical   int
	dimFeatures      int
	maxDepth         int
	numChildrenVec   []int
	numAssignmentVec []int
	ranges           [][2]float64
	subModel         submodel.SubModel
	rootKCandidates  []int

	h0G          float64
	h0KWeightVec []float64
	hnG          float64
	hnKWeightVec []float64

	hnMetatreeList    []*Node
	hnMetatreeProbVec []float64

	// Prediction state, set by CalcPredDist.
	pN  int
	pXC *mat.Dense

	logger log.Logger
}

// NewLearnModel validates cfg and builds a LearnModel.
func NewLearnModel(cfg Config) (*LearnModel, error) {
	if cfg.DimContinuous < 0 {
		return nil, mterrors.NewParameterFormatError("DimContinuous", "must be non-negative", cfg.DimContinuous)
	}
	if cfg.DimCategorical < 0 {
		return nil, mterrors.NewParameterFormatError("DimCategorical", "must be non-negative", cfg.DimCategorical)
	}
	dimFeatures := cfg.DimContinuous + cfg.DimCategorical
	if dimFeatures < 1 {
		return nil, mterrors.NewParameterFormatError("DimContinuous+DimCategorical", "must be at least 1", dimFeatures)
	}
	maxDepth := cfg.MaxDepth
	if maxDepth == 0 {
		maxDepth = 2
	}
	if maxDepth < 1 {
		return nil, mterrors.NewParameterFormatError("MaxDepth", "must be at least 1", cfg.MaxDepth)
	}
	numChildren := cfg.NumChildrenVec
	if numChildren == nil {
		numChildren = make([]int, dimFeatures)
		for i := range numChildren {
			numChildren[i] = 2
		}
	}
	if len(numChildren) != dimFeatures {
		return nil, mterrors.NewParameterFormatError("NumChildrenVec",
			fmt.Sprintf("length must equal the number of features %d", dimFeatures), len(numChildren))
	}
	for i, c := range numChildren {
		if c < 2 {
			return nil, mterrors.NewParameterFormatError("NumChildrenVec",
				fmt.Sprintf("entry %d must be at least 2", i), c)
		}
	}
	numAssignment := cfg.NumAssignmentVec
	if numAssignment == nil {
		numAssignment = make([]int, dimFeatures)
		for i := range numAssignment {
			numAssignment[i] = -1
		}
	}
	if len(numAssignment) != dimFeatures {
		return nil, mterrors.NewParameterFormatError("NumAssignmentVec",
			fmt.Sprintf("length must equal the number of features %d", dimFeatures), len(numAssignment))
	}
	ranges := cfg.Ranges
	if ranges == nil {
		ranges = make([][2]float64, cfg.DimContinuous)
		for i := range ranges {
			ranges[i] = [2]float64{-3, 3}
		}
	}
	if len(ranges) != cfg.DimContinuous {
		return nil, mterrors.NewParameterFormatError("Ranges",
			fmt.Sprintf("length must equal DimContinuous %d", cfg.DimContinuous), len(ranges))
	}
	for i, r := range ranges {
		if r[0] > r[1] {
			return nil, mterrors.NewParameterFormatError("Ranges",
				fmt.Sprintf("entry %d must satisfy min <= max", i), r)
		}
	}
	if cfg.SubModel == nil {
		return nil, mterrors.NewParameterFormatError("SubModel", "must not be nil", nil)
	}
	if cfg.SubModel.Family() == submodel.FamilyLinearRegression && cfg.DimContinuous < 1 {
		return nil, mterrors.NewParameterFormatError("SubModel",
			"linear regression requires at least one continuous feature", cfg.DimContinuous)
	}
	h0G := cfg.H0G
	if cfg.H0G == 0 {
		h0G = 0.5
	}
	if h0G < 0 || h0G > 1 {
		return nil, mterrors.NewParameterFormatError("H0G", "must be in [0, 1]", cfg.H0G)
	}
	h0KWeight := cfg.H0KWeightVec
	if h0KWeight == nil {
		h0KWeight = make([]float64, dimFeatures)
		for i := range h0KWeight {
			h0KWeight[i] = 1
		}
	}
	if len(h0KWeight) != dimFeatures {
		return nil, mterrors.NewParameterFormatError("H0KWeightVec",
			fmt.Sprintf("length must equal the number of features %d", dimFeatures), len(h0KWeight))
	}
	for i, w := range h0KWeight {
		if w <= 0 {
			return nil, mterrors.NewParameterFormatError("H0KWeightVec",
				fmt.Sprintf("entry %d must be positive", i), w)
		}
	}

	// Features with a positive assignment limit appear that many times
	// among the root candidates, all others once.
	var rootCandidates []int
	for k := 0; k < dimFeatures; k++ {
		if numAssignment[k] > 0 {
			for j := 0; j < numAssignment[k]; j++ {
				rootCandidates = append(rootCandidates, k)
			}
		} else {
			rootCandidates = append(rootCandidates, k)
		}
	}

	m := &LearnModel{
		dimContinuous:    cfg.DimContinuous,
		dimCategorical:   cfg.DimCategorical,
		dimFeatures:      dimFeatures,
		maxDepth:         maxDepth,
		numChildrenVec:   append([]int(nil), numChildren...),
		numAssignmentVec: append([]int(nil), numAssignment...),
		ranges:           copyRanges(ranges),
		subModel:         cfg.SubModel.Clone(),
		rootKCandidates:  rootCandidates,
		h0G:              h0G,
		h0KWeightVec:     append([]float64(nil), h0KWeight...),
		hnG:              h0G,
		hnKWeightVec:     append([]float64(nil), h0KWeight...),
		logger:           log.GetLoggerWithName("metatree.learnmodel"),
	}
	return m, nil
}

// DimContinuous returns the number of continuous features.
func (m *LearnModel) DimContinuous() int { return m.dimContinuous }

// DimCategorical returns the number of categorical features.
func (m *LearnModel) DimCategorical() int { return m.dimCategorical }

// MaxDepth returns the meta-tree depth bound.
func (m *LearnModel) MaxDepth() int { return m.maxDepth }

// H0G returns the prior split probability.
func (m *LearnModel) H0G() float64 { return m.h0G }

// HnG returns the current split probability hyperparameter.
func (m *LearnModel) HnG() float64 { return m.hnG }

// SetHnG sets the split probability seeded into new tree roots and MAP
// expansion. Children created during posterior updates start from the
// prior value instead.
func (m *LearnModel) SetHnG(g float64) error {
	if g < 0 || g > 1 {
		return mterrors.NewParameterFormatError("HnG", "must be in [0, 1]", g)
	}
	m.hnG = g
	return nil
}

// HnKWeightVec returns the current feature-weight hyperparameters used by
// MAP extraction.
func (m *LearnModel) HnKWeightVec() []float64 {
	return append([]float64(nil), m.hnKWeightVec...)
}

// SetHnKWeightVec sets the feature weights used by MAP extraction.
func (m *LearnModel) SetHnKWeightVec(w []float64) error {
	if len(w) != m.dimFeatures {
		return mterrors.NewParameterFormatError("HnKWeightVec",
			fmt.Sprintf("length must equal the number of features %d", m.dimFeatures), len(w))
	}
	for _, v := range w {
		if v <= 0 {
			return mterrors.NewParameterFormatError("HnKWeightVec", "all weights must be positive", v)
		}
	}
	copy(m.hnKWeightVec, w)
	return nil
}

// Metatrees returns the learned meta-tree ensemble and its weights. The
// returned slices are the model's own state and must not be modified.
func (m *LearnModel) Metatrees() ([]*Node, []float64) {
	return m.hnMetatreeList, m.hnMetatreeProbVec
}

// ResetHnParams restores the hyperparameters to the prior and discards the
// learned ensemble.
func (m *LearnModel) ResetHnParams() {
	m.hnG = m.h0G
	copy(m.hnKWeightVec, m.h0KWeightVec)
	m.hnMetatreeList = nil
	m.hnMetatreeProbVec = nil
	m.pN = 0
	m.pXC = nil
	m.Reset()
}

// sample is a validated training or prediction batch.
type sample struct {
	n    int
	xc   *mat.Dense // n x dimContinuous, nil when dimContinuous == 0
	xcat [][]int    // n rows, nil when dimCategorical == 0
	y    []float64  // nil for prediction batches
}

// checkSample validates shapes, category codes and (when y is required) the
// targets against the sub-model family.
func (m *LearnModel) checkSample(xContinuous mat.Matrix, xCategorical [][]int, y []float64, needY bool) (*sample, error) {
	const op = "metatree.checkSample"

	n := -1
	var xc *mat.Dense
	if m.dimContinuous > 0 {
		if xContinuous == nil {
			return nil, mterrors.NewDataFormatErrorf(op, "continuous features required but not given")
		}
		r, c := xContinuous.Dims()
		if c != m.dimContinuous {
			return nil, mterrors.NewDimensionError(op, m.dimContinuous, c, 1)
		}
		xc = mat.DenseCopyOf(xContinuous)
		n = r
	}
	var xcat [][]int
	if m.dimCategorical > 0 {
		if xCategorical == nil {
			return nil, mterrors.NewDataFormatErrorf(op, "categorical features required but not given")
		}
		if n >= 0 && len(xCategorical) != n {
			return nil, mterrors.NewDimensionError(op, n, len(xCategorical), 0)
		}
		n = len(xCategorical)
		xcat = make([][]int, n)
		for i, row := range xCategorical {
			if len(row) != m.dimCategorical {
				return nil, mterrors.NewDimensionError(op, m.dimCategorical, len(row), 1)
			}
			for j, v := range row {
				if v < 0 || v >= m.numChildrenVec[m.dimContinuous+j] {
					return nil, mterrors.NewDataFormatErrorf(op,
						"categorical feature %d has value %d outside [0, %d)",
						j, v, m.numChildrenVec[m.dimContinuous+j])
				}
			}
			xcat[i] = append([]int(nil), row...)
		}
	}
	if n < 0 {
		return nil, mterrors.Wrap(mterrors.ErrEmptyData, op)
	}
	if n == 0 {
		return nil, mterrors.Wrap(mterrors.ErrEmptyData, op)
	}
	if needY {
		if len(y) != n {
			return nil, mterrors.NewDimensionError(op, n, len(y), 0)
		}
		if err := m.subModel.CheckTarget(y); err != nil {
			return nil, err
		}
	}
	return &sample{n: n, xc: xc, xcat: xcat, y: y}, nil
}

// allRows returns [0, 1, ..., n-1].
func (s *sample) allRows() []int {
	rows := make([]int, s.n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

// gatherY returns the targets of the given rows.
func (s *sample) gatherY(rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = s.y[r]
	}
	return out
}

// gatherXC returns the continuous features of the given rows, or nil when
// there are no continuous features.
func (s *sample) gatherXC(rows []int) *mat.Dense {
	if s.xc == nil {
		return nil
	}
	_, c := s.xc.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		for j := 0; j < c; j++ {
			out.Set(i, j, s.xc.At(r, j))
		}
	}
	return out
}

// xcRow returns one row of the continuous features.
func (s *sample) xcRow(row int) []float64 {
	if s.xc == nil {
		return nil
	}
	return s.xc.RawRowView(row)
}

// childIndex routes a row through an inner node's split.
func (m *LearnModel) childIndex(node *Node, s *sample, row int) int {
	if node.k < m.dimContinuous {
		v := s.xc.At(row, node.k)
		last := len(node.children) - 1
		for i := 0; i < last; i++ {
			if v < node.thresholds[i+1] {
				return i
			}
		}
		return last
	}
	return s.xcat[row][node.k-m.dimContinuous]
}

// partitionRows splits rows among node's children.
func (m *LearnModel) partitionRows(node *Node, s *sample, rows []int) [][]int {
	out := make([][]int, len(node.children))
	for _, r := range rows {
		i := m.childIndex(node, s, r)
		out[i] = append(out[i], r)
	}
	return out
}
