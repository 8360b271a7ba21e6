package metatree

import (
	"math"

	mterrors "github.com/bayesgo/metatree/pkg/errors"
	"github.com/bayesgo/metatree/pkg/log"
)

// updateLeafPosterior folds the routed rows into node's sub-model and
// returns its cumulative log marginal likelihood.
func (m *LearnModel) updateLeafPosterior(node *Node, s *sample, rows []int) (float64, error) {
	y := s.gatherY(rows)
	var err error
	if node.subModel.Family().UsesFeatures() {
		err = node.subModel.UpdatePosterior(s.gatherXC(rows), y)
	} else {
		err = node.subModel.UpdatePosterior(nil, y)
	}
	if err != nil {
		return 0, err
	}
	return node.subModel.LogMarginalLikelihood(), nil
}

// updatePosteriorRecursion updates the sub-models of the subtree rooted at
// node with the routed rows and returns the subtree's log marginal
// likelihood, mixing the leaf and split hypotheses at every node. The
// node's split probability hG is replaced by its posterior value.
func (m *LearnModel) updatePosteriorRecursion(node *Node, s *sample, rows []int) (float64, error) {
	if node.leaf {
		ll, err := m.updateLeafPosterior(node, s, rows)
		if err != nil {
			return 0, err
		}
		node.logML = ll
		return ll, nil
	}

	childRows := m.partitionRows(node, s, rows)
	split := math.Log(node.hG)
	for i, cr := range childRows {
		if len(cr) == 0 {
			node.logChildrenML[i] = 0
			continue
		}
		ll, err := m.updatePosteriorRecursion(node.children[i], s, cr)
		if err != nil {
			return 0, err
		}
		node.logChildrenML[i] = ll
		split += ll
	}

	ll, err := m.updateLeafPosterior(node, s, rows)
	if err != nil {
		return 0, err
	}
	node.logML = ll

	total := logAddExp(math.Log(1-node.hG)+ll, split)
	node.hG = math.Exp(split - total)
	return total, nil
}

// givenMT reweights the current ensemble by the marginal likelihood of the
// batch under each meta-tree.
func (m *LearnModel) givenMT(s *sample) error {
	if len(m.hnMetatreeList) == 0 {
		return mterrors.NewParameterFormatError("Metatrees",
			"given_MT requires a non-empty meta-tree ensemble", len(m.hnMetatreeList))
	}
	logPost := make([]float64, len(m.hnMetatreeList))
	rows := s.allRows()
	for i, root := range m.hnMetatreeList {
		ll, err := m.updatePosteriorRecursion(root, s, rows)
		if err != nil {
			return err
		}
		logPost[i] = math.Log(m.hnMetatreeProbVec[i]) + ll
	}
	maxLP := logPost[0]
	for _, lp := range logPost[1:] {
		if lp > maxLP {
			maxLP = lp
		}
	}
	sum := 0.0
	for i, lp := range logPost {
		m.hnMetatreeProbVec[i] = math.Exp(lp - maxLP)
		sum += m.hnMetatreeProbVec[i]
	}
	for i := range m.hnMetatreeProbVec {
		m.hnMetatreeProbVec[i] /= sum
	}
	m.logger.Debug("reweighted meta-tree ensemble",
		log.MetaTreesKey, len(m.hnMetatreeList),
		log.SamplesKey, s.n,
	)
	m.SetFitted()
	return nil
}
