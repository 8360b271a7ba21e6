package metatree

import (
	mterrors "github.com/bayesgo/metatree/pkg/errors"
)

// featureImportancesRecursion accumulates, per feature, the split
// probability mass times the marginal-likelihood gain of splitting over
// staying a leaf.
func (m *LearnModel) featureImportancesRecursion(node *Node) []float64 {
	out := make([]float64, m.dimFeatures)
	if node.leaf {
		return out
	}
	for _, child := range node.children {
		for k, v := range m.featureImportancesRecursion(child) {
			out[k] += v
		}
	}
	for _, child := range node.children {
		out[node.k] += child.logML
	}
	out[node.k] -= node.logML
	for k := range out {
		out[k] *= node.hG
	}
	return out
}

// CalcFeatureImportances returns the posterior feature importances, one per
// feature with continuous features first.
func (m *LearnModel) CalcFeatureImportances() ([]float64, error) {
	if !m.IsFitted() {
		return nil, mterrors.NewNotFittedError("metatree.LearnModel", "CalcFeatureImportances")
	}
	out := make([]float64, m.dimFeatures)
	for i, root := range m.hnMetatreeList {
		for k, v := range m.featureImportancesRecursion(root) {
			out[k] += m.hnMetatreeProbVec[i] * v
		}
	}
	return out, nil
}
