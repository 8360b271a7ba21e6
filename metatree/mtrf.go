package metatree

import (
	"gonum.org/v1/gonum/mat"

	mterrors "github.com/bayesgo/metatree/pkg/errors"
	"github.com/bayesgo/metatree/pkg/log"
	"github.com/bayesgo/metatree/randomforest"
	"github.com/bayesgo/metatree/submodel"
)

// featureMatrix lays out continuous columns followed by categorical codes
// so a forest can split on either kind.
func (m *LearnModel) featureMatrix(s *sample) *mat.Dense {
	x := mat.NewDense(s.n, m.dimFeatures, nil)
	for i := 0; i < s.n; i++ {
		for j := 0; j < m.dimContinuous; j++ {
			x.Set(i, j, s.xc.At(i, j))
		}
		for j := 0; j < m.dimCategorical; j++ {
			x.Set(i, m.dimContinuous+j, float64(s.xcat[i][j]))
		}
	}
	return x
}

// copyForestTree grafts a trained forest tree onto node. Forest splits
// become meta-tree splits with the split point bracketed by the node's
// feature range; forest leaves, and nodes whose candidate features are
// exhausted, become meta-tree leaves that never split.
func (m *LearnModel) copyForestTree(node *Node, tree *randomforest.Tree, id int) {
	if tree.Feature[id] == randomforest.LeafNode || len(node.kCandidates) == 0 {
		node.hG = 0
		node.leaf = true
		return
	}
	node.k = tree.Feature[id]
	var thresholds []float64
	if node.k < m.dimContinuous {
		thresholds = []float64{node.ranges[node.k][0], tree.Threshold[id], node.ranges[node.k][1]}
	}
	m.makeChildren(node, thresholds)
	m.copyForestTree(node.children[0], tree, tree.Left[id])
	m.copyForestTree(node.children[1], tree, tree.Right[id])
}

// updatePosteriorMTRF proposes the ensemble from a random forest and then
// reweights it by the batch's marginal likelihood per tree.
func (m *LearnModel) updatePosteriorMTRF(s *sample, o *UpdateOptions) error {
	for _, nc := range m.numChildrenVec {
		if nc != 2 {
			return mterrors.NewParameterFormatError("NumChildrenVec",
				"MTRF requires binary splits for every feature", m.numChildrenVec)
		}
	}
	if o.NumTrees < 1 {
		return mterrors.NewParameterFormatError("NumTrees", "must be at least 1", o.NumTrees)
	}

	params := randomforest.Params{
		NumTrees: o.NumTrees,
		MaxDepth: m.maxDepth,
		Task:     randomforest.TaskRegression,
	}
	if m.subModel.Family().IsClassification() {
		params.Task = randomforest.TaskClassification
		params.NumClasses = m.subModel.(submodel.ClassProbEstimator).NumClasses()
	}
	forest, err := randomforest.Train(m.featureMatrix(s), s.y, params, o.rng())
	if err != nil {
		return err
	}

	trees := make([]*Node, len(forest.Trees))
	probs := make([]float64, len(forest.Trees))
	for i, t := range forest.Trees {
		root := newNode(0, m.rootKCandidates, m.hnG, m.ranges, 0)
		root.subModel = m.subModel.Clone()
		m.copyForestTree(root, t, 0)
		trees[i] = root
		probs[i] = 1 / float64(len(forest.Trees))
	}
	m.hnMetatreeList, m.hnMetatreeProbVec = m.mergeMetatrees(trees, probs)

	m.logger.Debug("built ensemble from random forest",
		log.AlgorithmKey, string(AlgMTRF),
		log.MetaTreesKey, len(m.hnMetatreeList),
	)
	return m.givenMT(s)
}
