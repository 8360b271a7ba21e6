package metatree

import (
	"math"
	"sort"

	mterrors "github.com/bayesgo/metatree/pkg/errors"
)

// mapAddNodes expands node into the a priori most likely full subtree:
// every added inner node splits on its highest-weight candidate feature
// with evenly placed thresholds.
func (m *LearnModel) mapAddNodes(node *Node) {
	if node.depth == m.maxDepth || len(node.kCandidates) == 0 {
		node.hG = 0
		node.subModel = m.subModel.Clone()
		node.leaf = true
		node.mapLeaf = true
		return
	}
	best := node.kCandidates[0]
	for _, cand := range node.kCandidates[1:] {
		if m.hnKWeightVec[cand] > m.hnKWeightVec[best] {
			best = cand
		}
	}
	node.k = best
	numChildren := m.numChildrenVec[node.k]
	if node.k < m.dimContinuous {
		node.thresholds = makeEvenThresholds(node.ranges[node.k][0], node.ranges[node.k][1], numChildren)
	} else {
		node.thresholds = nil
	}
	// node.leaf is left as is: it still marks whether the node has seen
	// data, while mapLeaf marks the MAP pruning.
	candidates := m.childKCandidates(node)
	node.children = make([]*Node, numChildren)
	for i := range node.children {
		child := newNode(node.depth+1, candidates, m.hnG, node.ranges, 0)
		if node.thresholds != nil {
			child.ranges[node.k] = [2]float64{node.thresholds[i], node.thresholds[i+1]}
		}
		node.children[i] = child
		m.mapAddNodes(child)
	}
}

// mapRecursion marks the MAP pruning of the subtree rooted at node and
// returns its posterior probability. A leaf that has never been expanded is
// compared against a bound on the probability of its best full expansion.
func (m *LearnModel) mapRecursion(node *Node) float64 {
	if node.leaf {
		if node.depth == m.maxDepth || len(node.kCandidates) == 0 {
			node.mapLeaf = true
			return 1
		}
		rest := make([]int, len(node.kCandidates))
		for i, cand := range node.kCandidates {
			rest[i] = m.numChildrenVec[cand]
		}
		sort.Ints(rest)
		sumNodes := 0
		numNodes := 1
		levels := m.maxDepth - node.depth
		if len(node.kCandidates) < levels {
			levels = len(node.kCandidates)
		}
		for i := 0; i < levels; i++ {
			sumNodes += numNodes
			numNodes *= rest[i]
		}
		expanded := node.hG * math.Pow(m.hnG, float64(sumNodes-1))
		if 1-node.hG > expanded {
			node.mapLeaf = true
			return 1 - node.hG
		}
		m.mapAddNodes(node)
		return expanded
	}
	stay := 1 - node.hG
	split := node.hG
	for _, child := range node.children {
		split *= m.mapRecursion(child)
	}
	if stay > split {
		node.mapLeaf = true
		return stay
	}
	node.mapLeaf = false
	return split
}

// copyMapTree copies the MAP pruning of src into dst as a plain tree:
// mapLeaf nodes become leaves with a copy of the learned sub-model.
func (m *LearnModel) copyMapTree(dst, src *Node) {
	dst.hG = src.hG
	if src.mapLeaf {
		dst.subModel = src.subModel.Copy()
		dst.leaf = true
		return
	}
	dst.k = src.k
	if dst.k < m.dimContinuous {
		dst.thresholds = append([]float64(nil), src.thresholds...)
	} else {
		dst.thresholds = nil
	}
	dst.leaf = false
	candidates := m.childKCandidates(dst)
	dst.children = make([]*Node, m.numChildrenVec[dst.k])
	for i := range dst.children {
		child := newNode(dst.depth+1, candidates, 0, dst.ranges, 0)
		if dst.thresholds != nil {
			child.ranges[dst.k] = [2]float64{dst.thresholds[i], dst.thresholds[i+1]}
		}
		dst.children[i] = child
		m.copyMapTree(child, src.children[i])
	}
}

// EstimateParams returns the root of the approximately most probable
// meta-tree under the 0-1 loss, the only supported criterion. With an empty
// ensemble it warns and returns the a priori most likely tree.
func (m *LearnModel) EstimateParams(loss Loss) (*Node, error) {
	if loss != Loss01 {
		return nil, mterrors.NewCriteriaError("metatree.EstimateParams", string(loss), []string{string(Loss01)})
	}
	mapRoot := newNode(0, m.rootKCandidates, m.hnG, m.ranges, 0)
	mapRoot.leaf = true
	if len(m.hnMetatreeList) == 0 {
		mterrors.Warn(mterrors.NewResultWarning("metatree.EstimateParams",
			"the meta-tree ensemble is empty; returning an a priori most likely tree"))
		m.mapRecursion(mapRoot)
		return mapRoot, nil
	}
	bestIdx := 0
	bestProb := -1.0
	for i, tree := range m.hnMetatreeList {
		p := m.hnMetatreeProbVec[i] * m.mapRecursion(tree)
		if p > bestProb {
			bestIdx = i
			bestProb = p
		}
	}
	m.copyMapTree(mapRoot, m.hnMetatreeList[bestIdx])
	return mapRoot, nil
}
