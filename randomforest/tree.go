// Package randomforest implements a small bootstrap-aggregated CART forest.
// It exists to propose tree structures for the meta-tree learner: every
// fitted tree exposes its split features, thresholds and child links in
// flat arrays so they can be copied into other tree representations.
package randomforest

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// LeafNode marks a node without a split in the flat tree arrays.
const LeafNode = -1

// Tree is a binary decision tree in flat-array form. Node 0 is the root;
// Feature[i] == LeafNode means node i is a leaf.
type Tree struct {
	Feature   []int     // split feature per node, LeafNode for leaves
	Threshold []float64 // split threshold per node (left: x <= t)
	Left      []int     // left child index per node
	Right     []int     // right child index per node
	Value     []float64 // leaf prediction (mean or majority class)
}

// NumNodes returns the number of nodes in the tree.
func (t *Tree) NumNodes() int { return len(t.Feature) }

// PredictRow routes one sample to a leaf and returns its value.
func (t *Tree) PredictRow(x []float64) float64 {
	node := 0
	for t.Feature[node] != LeafNode {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return t.Value[node]
}

// Depth returns the depth of the tree. A single leaf has depth 0.
func (t *Tree) Depth() int {
	return t.depthFrom(0)
}

func (t *Tree) depthFrom(node int) int {
	if t.Feature[node] == LeafNode {
		return 0
	}
	l := t.depthFrom(t.Left[node])
	r := t.depthFrom(t.Right[node])
	if l > r {
		return l + 1
	}
	return r + 1
}

func (t *Tree) addLeaf(value float64) int {
	id := len(t.Feature)
	t.Feature = append(t.Feature, LeafNode)
	t.Threshold = append(t.Threshold, 0)
	t.Left = append(t.Left, -1)
	t.Right = append(t.Right, -1)
	t.Value = append(t.Value, value)
	return id
}

func (t *Tree) setSplit(node, feature int, threshold float64, left, right int) {
	t.Feature[node] = feature
	t.Threshold[node] = threshold
	t.Left[node] = left
	t.Right[node] = right
}

// splitCandidate is the best split found for one node.
type splitCandidate struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

// scanSplit finds the best threshold on one feature by sorting the routed
// rows and scanning the boundaries between distinct values.
func scanSplit(x mat.Matrix, y []float64, indices []int, feature int, impurity impurityFunc) (splitCandidate, bool) {
	sorted := append([]int(nil), indices...)
	sort.Slice(sorted, func(i, j int) bool {
		return x.At(sorted[i], feature) < x.At(sorted[j], feature)
	})

	total := impurity.newAcc()
	for _, idx := range sorted {
		impurity.add(total, y[idx])
	}
	totalScore := impurity.score(total)

	best := splitCandidate{feature: feature, gain: math.Inf(-1)}
	found := false

	left := impurity.newAcc()
	right := total.clone()
	for i := 0; i < len(sorted)-1; i++ {
		yi := y[sorted[i]]
		impurity.add(left, yi)
		impurity.sub(right, yi)

		v, next := x.At(sorted[i], feature), x.At(sorted[i+1], feature)
		if v == next {
			continue
		}
		gain := totalScore - impurity.score(left) - impurity.score(right)
		if gain > best.gain {
			best.gain = gain
			best.threshold = (v + next) / 2
			best.left = append([]int(nil), sorted[:i+1]...)
			best.right = append([]int(nil), sorted[i+1:]...)
			found = true
		}
	}
	return best, found
}
