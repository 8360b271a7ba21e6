// Package metatree implements Bayesian learning and prediction over
// ensembles of decision-tree structures, called meta-trees. A meta-tree
// represents a whole class of subtrees at once: every inner node carries a
// posterior split probability, so predictions average over all prunings of
// the tree instead of committing to a single one.
//
// The posterior over tree structures is built by one of four algorithms:
// a random-forest proposal (MTRF), reweighting of a given ensemble
// (GivenMT), Metropolis-Hastings sampling over structures (MTMCMC) and its
// replica-exchange variant (REMTMCMC).
package metatree

import (
	"math"

	"github.com/bayesgo/metatree/submodel"
)

// noSplit marks a node without an assigned split feature.
const noSplit = -1

// Node is one node of a meta-tree. The root node represents the whole tree.
//
// Inner nodes hold a split feature k, a posterior split probability hG and
// one child per outcome of the split. Continuous splits carry a threshold
// vector with numChildren+1 entries including the range endpoints: child i
// covers [thresholds[i], thresholds[i+1]). Every node, inner or leaf, owns a
// sub-model fed with the rows routed to it.
type Node struct {
	depth       int
	kCandidates []int
	hG          float64
	k           int
	subModel    submodel.SubModel
	children    []*Node
	ranges      [][2]float64 // per continuous feature, length dimContinuous
	thresholds  []float64    // continuous splits only, nil otherwise
	leaf        bool
	mapLeaf     bool

	logChildrenML []float64
	logML         float64

	// divisionFlag records whether the structure generator kept this node's
	// split when proposing from it.
	divisionFlag bool

	// Prediction routing cache, filled by CalcPredDist.
	pRows     []int   // global sample rows routed to this node
	pChildPos [][]int // per child, positions within pRows
}

// newNode creates a node with its own copies of the candidate list and the
// feature ranges.
func newNode(depth int, kCandidates []int, hG float64, ranges [][2]float64, numChildrenML int) *Node {
	n := &Node{
		depth:       depth,
		kCandidates: append([]int(nil), kCandidates...),
		hG:          hG,
		k:           noSplit,
		ranges:      copyRanges(ranges),
	}
	if numChildrenML > 0 {
		n.logChildrenML = make([]float64, numChildrenML)
	}
	return n
}

// Depth returns the node's depth; the root has depth 0.
func (n *Node) Depth() int { return n.depth }

// K returns the split feature index, or -1 for a node without a split.
func (n *Node) K() int {
	return n.k
}

// HG returns the node's split probability.
func (n *Node) HG() float64 { return n.hG }

// IsLeaf reports whether the node is a leaf.
func (n *Node) IsLeaf() bool { return n.leaf }

// Children returns the node's children; nil for leaves.
func (n *Node) Children() []*Node { return n.children }

// Thresholds returns the node's threshold vector for continuous splits,
// including the range endpoints. It is nil for categorical splits and
// leaves.
func (n *Node) Thresholds() []float64 { return n.thresholds }

// SubModel returns the node's sub-model.
func (n *Node) SubModel() submodel.SubModel { return n.subModel }

// LogMarginalLikelihood returns the node's cached leaf marginal likelihood
// from the most recent posterior update.
func (n *Node) LogMarginalLikelihood() float64 { return n.logML }

func copyRanges(ranges [][2]float64) [][2]float64 {
	if ranges == nil {
		return nil
	}
	out := make([][2]float64, len(ranges))
	copy(out, ranges)
	return out
}

// logAddExp returns log(exp(a) + exp(b)) without overflow.
func logAddExp(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}

// allClose reports |a-b| <= atol + rtol*|b| elementwise.
func allClose(a, b float64) bool {
	const (
		rtol = 1e-5
		atol = 1e-8
	)
	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}
