package metatree

import "sort"

// ThresholdType selects how continuous split thresholds are placed when the
// structure sampler expands a node.
type ThresholdType string

const (
	// Threshold1DKMeans places a single boundary by a two-cluster 1-d
	// k-means over the observed feature values. Only valid for binary
	// splits.
	Threshold1DKMeans ThresholdType = "1d_kmeans"
	// ThresholdSampleMidpoint subdivides the observed feature range evenly.
	ThresholdSampleMidpoint ThresholdType = "sample_midpoint"
)

func (t ThresholdType) valid() bool {
	return t == Threshold1DKMeans || t == ThresholdSampleMidpoint
}

// makeThresholds1DKMeans returns [min, boundary, max] where the boundary is
// the midpoint of the pair of adjacent unique values whose split minimizes
// the within-cluster sum of squares. values must contain at least two
// distinct entries.
func makeThresholds1DKMeans(values []float64) []float64 {
	unique := append([]float64(nil), values...)
	sort.Float64s(unique)
	m := 0
	for i, v := range unique {
		if i == 0 || v != unique[m-1] {
			unique[m] = v
			m++
		}
	}
	unique = unique[:m]

	// Prefix sums over the unique values give each candidate split's SSE
	// in constant time.
	prefix := make([]float64, m+1)
	prefixSq := make([]float64, m+1)
	for i, v := range unique {
		prefix[i+1] = prefix[i] + v
		prefixSq[i+1] = prefixSq[i] + v*v
	}
	sse := func(lo, hi int) float64 { // [lo, hi)
		n := float64(hi - lo)
		s := prefix[hi] - prefix[lo]
		sq := prefixSq[hi] - prefixSq[lo]
		return sq - s*s/n
	}
	best := 0
	bestCost := sse(0, 1) + sse(1, m)
	for i := 1; i < m-1; i++ {
		cost := sse(0, i+1) + sse(i+1, m)
		if cost < bestCost {
			bestCost = cost
			best = i
		}
	}
	return []float64{unique[0], (unique[best] + unique[best+1]) / 2, unique[m-1]}
}

// makeEvenThresholds subdivides [lo, hi] into numChildren intervals and
// returns the numChildren+1 boundaries including the endpoints.
func makeEvenThresholds(lo, hi float64, numChildren int) []float64 {
	out := make([]float64, numChildren+1)
	step := (hi - lo) / float64(numChildren)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[numChildren] = hi
	return out
}

// childKCandidates returns the candidate features of a child of node. A
// feature with a positive assignment limit loses one occurrence when it is
// split on.
func (m *LearnModel) childKCandidates(node *Node) []int {
	if m.numAssignmentVec[node.k] <= 0 {
		return node.kCandidates
	}
	out := make([]int, 0, len(node.kCandidates))
	removed := false
	for _, c := range node.kCandidates {
		if !removed && c == node.k {
			removed = true
			continue
		}
		out = append(out, c)
	}
	return out
}

// makeChildren expands node into an inner node: it builds the threshold
// vector from the given boundaries (continuous splits only) and creates one
// child per split outcome. Child ranges are narrowed to the child's
// threshold interval for continuous splits.
func (m *LearnModel) makeChildren(node *Node, thresholds []float64) {
	numChildren := m.numChildrenVec[node.k]
	if node.k < m.dimContinuous {
		node.thresholds = thresholds
	} else {
		node.thresholds = nil
	}
	node.leaf = false
	candidates := m.childKCandidates(node)
	node.children = make([]*Node, numChildren)
	node.logChildrenML = make([]float64, numChildren)
	for i := range node.children {
		// New children start from the prior split probability; rows
		// routed into them refine it, empty children keep it.
		child := newNode(node.depth+1, candidates, m.h0G, node.ranges, 0)
		child.subModel = m.subModel.Clone()
		if node.k < m.dimContinuous {
			child.ranges[node.k] = [2]float64{node.thresholds[i], node.thresholds[i+1]}
		}
		node.children[i] = child
	}
}

// makeChildrenForMCMC expands node using thresholds derived from the rows
// currently routed to it. A degenerate feature range collapses all
// thresholds onto one point, which routes every row to the last child.
func (m *LearnModel) makeChildrenForMCMC(node *Node, s *sample, rows []int, thresholdType ThresholdType) {
	var thresholds []float64
	if node.k < m.dimContinuous {
		numChildren := m.numChildrenVec[node.k]
		lo, hi := node.ranges[node.k][0], node.ranges[node.k][1]
		switch {
		case lo == hi:
			thresholds = make([]float64, numChildren+1)
			for i := range thresholds {
				thresholds[i] = lo
			}
		case thresholdType == Threshold1DKMeans && numChildren == 2:
			values := make([]float64, len(rows))
			for i, r := range rows {
				values[i] = s.xc.At(r, node.k)
			}
			thresholds = makeThresholds1DKMeans(values)
		default:
			thresholds = makeEvenThresholds(lo, hi, numChildren)
		}
	}
	m.makeChildren(node, thresholds)
}
