package metatree

// sameStructure reports whether two meta-trees have identical tree shape,
// split features and (within floating-point tolerance) thresholds. Split
// probabilities and sub-model states are ignored.
func (m *LearnModel) sameStructure(a, b *Node) bool {
	if a.leaf && b.leaf {
		return true
	}
	if a.leaf || b.leaf {
		return false
	}
	if a.k != b.k {
		return false
	}
	if a.k < m.dimContinuous {
		if len(a.thresholds) != len(b.thresholds) {
			return false
		}
		for i := range a.thresholds {
			if !allClose(a.thresholds[i], b.thresholds[i]) {
				return false
			}
		}
	}
	if len(a.children) != len(b.children) {
		return false
	}
	for i := range a.children {
		if !m.sameStructure(a.children[i], b.children[i]) {
			return false
		}
	}
	return true
}

// mergeMetatrees collapses structurally identical trees, keeping the first
// occurrence and accumulating the weights, and normalizes the result.
func (m *LearnModel) mergeMetatrees(trees []*Node, probs []float64) ([]*Node, []float64) {
	var outTrees []*Node
	var outProbs []float64
	for i, tree := range trees {
		found := false
		for j, kept := range outTrees {
			if m.sameStructure(kept, tree) {
				outProbs[j] += probs[i]
				found = true
				break
			}
		}
		if !found {
			outTrees = append(outTrees, tree)
			outProbs = append(outProbs, probs[i])
		}
	}
	sum := 0.0
	for _, p := range outProbs {
		sum += p
	}
	for i := range outProbs {
		outProbs[i] /= sum
	}
	return outTrees, outProbs
}
