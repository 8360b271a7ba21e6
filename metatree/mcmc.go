package metatree

import (
	"math"
	"math/rand"

	mterrors "github.com/bayesgo/metatree/pkg/errors"
	"github.com/bayesgo/metatree/pkg/log"
)

// gMaxTuner adapts the proposal ceiling gMax towards a target acceptance
// rate during burn-in. Both the acceptance estimate and the ceiling itself
// are exponentially smoothed.
type gMaxTuner struct {
	rho  float64 // decay of the acceptance-rate estimate
	phi  float64 // decay of the ceiling average
	pObj float64 // target acceptance rate

	numerator   float64
	denominator float64
	ceilingSum  float64
	ceilingNorm float64
}

func newGMaxTuner(rho, phi, pObj float64) *gMaxTuner {
	return &gMaxTuner{rho: rho, phi: phi, pObj: pObj}
}

func (t *gMaxTuner) accept() {
	t.numerator = t.numerator*t.rho + 1
	t.denominator = t.denominator*t.rho + 1
}

func (t *gMaxTuner) reject() {
	t.numerator *= t.rho
	t.denominator = t.denominator*t.rho + 1
}

// update returns the smoothed new ceiling given the current one. Both the
// raw proposal and the smoothed result stay within [0, 1].
func (t *gMaxTuner) update(gMax float64) float64 {
	pHat := t.numerator / t.denominator
	var gNew float64
	if pHat > t.pObj {
		gNew = gMax * t.pObj / pHat
	} else {
		gNew = 1 - (1-gMax)*(1-t.pObj)/(1-pHat)
	}
	t.ceilingSum = t.ceilingSum*t.phi + gNew
	t.ceilingNorm = t.ceilingNorm*t.phi + 1
	return t.ceilingSum / t.ceilingNorm
}

// mcmcSampler runs Metropolis-Hastings over truncated meta-tree structures
// for one chain.
type mcmcSampler struct {
	m             *LearnModel
	s             *sample
	rows          []int
	rng           *rand.Rand
	gMax          float64
	thresholdType ThresholdType

	trees       []*Node
	counts      []int
	lLast       float64
	numProposed int
	numAccepted int
}

// newRoot creates a fresh proposal root with a uniformly chosen split
// feature.
func (c *mcmcSampler) newRoot() *Node {
	root := newNode(0, c.m.rootKCandidates, c.m.hnG, c.m.ranges, 0)
	root.k = c.m.rootKCandidates[c.rng.Intn(len(c.m.rootKCandidates))]
	return root
}

// start generates the chain's initial tree with a fully fresh structure.
func (c *mcmcSampler) start() error {
	root := c.newRoot()
	ll, err := c.generate(nil, root, true, c.rows)
	if err != nil {
		return err
	}
	c.trees = []*Node{root}
	c.counts = []int{1}
	c.lLast = ll
	c.numProposed = 1
	c.numAccepted = 1
	return nil
}

// rowsIdentical reports whether all routed rows have identical features, in
// which case a node cannot usefully split.
func (c *mcmcSampler) rowsIdentical(rows []int) bool {
	first := rows[0]
	for _, r := range rows[1:] {
		if c.s.xc != nil {
			for j := 0; j < c.m.dimContinuous; j++ {
				if !allClose(c.s.xc.At(r, j), c.s.xc.At(first, j)) {
					return false
				}
			}
		}
		if c.s.xcat != nil {
			for j := 0; j < c.m.dimCategorical; j++ {
				if c.s.xcat[r][j] != c.s.xcat[first][j] {
					return false
				}
			}
		}
	}
	return true
}

// generate proposes the subtree rooted at next from the corresponding
// subtree of last, folding the routed rows into the new sub-models on the
// way down, and returns the new subtree's log marginal likelihood.
//
// While fresh is false the proposal follows last's structure; at each inner
// node it diverges with probability 1-min(last.hG, gMax), resamples the
// split feature and generates the rest of the subtree from scratch. Division
// flags are recorded on both trees for the proposal density.
func (c *mcmcSampler) generate(last, next *Node, fresh bool, rows []int) (float64, error) {
	if fresh {
		next.subModel = c.m.subModel.Clone()
		ll, err := c.m.updateLeafPosterior(next, c.s, rows)
		if err != nil {
			return 0, err
		}
		next.logML = ll
	} else {
		next.subModel = last.subModel.Copy()
		next.logML = last.logML
	}

	if next.depth == c.m.maxDepth || c.rowsIdentical(rows) {
		next.leaf = true
		next.hG = 0
		return next.logML, nil
	}

	if fresh {
		next.k = next.kCandidates[c.rng.Intn(len(next.kCandidates))]
	} else if c.rng.Float64() > math.Min(last.hG, c.gMax) {
		fresh = true
		last.divisionFlag = false
		next.divisionFlag = false
		others := make([]int, 0, len(next.kCandidates))
		for _, cand := range next.kCandidates {
			if cand != last.k {
				others = append(others, cand)
			}
		}
		next.k = others[c.rng.Intn(len(others))]
	} else {
		last.divisionFlag = true
		next.divisionFlag = true
		next.k = last.k
	}

	// Feature ranges follow the routed rows.
	for j := 0; j < c.m.dimContinuous; j++ {
		lo, hi := c.s.xc.At(rows[0], j), c.s.xc.At(rows[0], j)
		for _, r := range rows[1:] {
			v := c.s.xc.At(r, j)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		next.ranges[j] = [2]float64{lo, hi}
	}

	c.m.makeChildrenForMCMC(next, c.s, rows, c.thresholdType)
	childRows := c.m.partitionRows(next, c.s, rows)

	split := math.Log(next.hG)
	for i, cr := range childRows {
		child := next.children[i]
		if len(cr) == 0 {
			next.logChildrenML[i] = 0
			child.leaf = true
			child.logML = 0
			continue
		}
		var lastChild *Node
		if !fresh {
			lastChild = last.children[i]
		}
		ll, err := c.generate(lastChild, child, fresh, cr)
		if err != nil {
			return 0, err
		}
		next.logChildrenML[i] = ll
		split += ll
	}

	total := logAddExp(math.Log(1-next.hG)+next.logML, split)
	next.hG = math.Exp(split - total)
	return total, nil
}

// truncatedPosterior evaluates the structure proposal density of a tree
// after a generate pass has recorded its division flags.
func (c *mcmcSampler) truncatedPosterior(node *Node) float64 {
	if node.k == noSplit {
		return 0
	}
	g := math.Min(node.hG, c.gMax)
	if !node.divisionFlag {
		return math.Log(1 - g)
	}
	t := math.Log(g)
	for _, child := range node.children {
		t += c.truncatedPosterior(child)
	}
	return t
}

// mhStep proposes one tree and accepts or rejects it. tuner may be nil
// outside burn-in.
func (c *mcmcSampler) mhStep(tuner *gMaxTuner) error {
	lastTree := c.trees[len(c.trees)-1]
	root := c.newRoot()
	lNew, err := c.generate(lastTree, root, false, c.rows)
	if err != nil {
		return err
	}
	tNew := c.truncatedPosterior(root)
	tLast := c.truncatedPosterior(lastTree)
	if c.rng.Float64() < math.Exp(lNew-tLast-c.lLast+tNew) {
		c.trees = append(c.trees, root)
		c.counts = append(c.counts, 1)
		c.lLast = lNew
		c.numAccepted++
		if tuner != nil {
			tuner.accept()
		}
	} else {
		c.counts[len(c.counts)-1]++
		if tuner != nil {
			tuner.reject()
		}
	}
	c.numProposed++
	return nil
}

// checkMCMCConstants verifies the model constants the structure sampler
// requires: a common arity across features, unlimited feature assignment and
// uniform feature weights.
func (m *LearnModel) checkMCMCConstants() error {
	for _, nc := range m.numChildrenVec[1:] {
		if nc != m.numChildrenVec[0] {
			return mterrors.NewParameterFormatError("NumChildrenVec",
				"MCMC requires all features to have the same number of children", m.numChildrenVec)
		}
	}
	for _, a := range m.numAssignmentVec {
		if a > 0 {
			return mterrors.NewParameterFormatError("NumAssignmentVec",
				"MCMC requires unlimited feature assignment", m.numAssignmentVec)
		}
	}
	for _, w := range m.h0KWeightVec[1:] {
		if w != m.h0KWeightVec[0] {
			return mterrors.NewParameterFormatError("H0KWeightVec",
				"MCMC requires uniform feature weights", m.h0KWeightVec)
		}
	}
	return nil
}

// updatePosteriorMTMCMC samples meta-trees with Metropolis-Hastings,
// tuning the proposal ceiling during burn-in, and keeps the post-burn-in
// trees weighted by their visit counts.
func (m *LearnModel) updatePosteriorMTMCMC(s *sample, o *UpdateOptions) error {
	if err := m.checkMCMCConstants(); err != nil {
		return err
	}
	if !o.ThresholdType.valid() {
		return mterrors.NewParameterFormatError("ThresholdType", "unknown threshold type", o.ThresholdType)
	}
	if o.GMax < 0 || o.GMax > 1 {
		return mterrors.NewParameterFormatError("GMax", "must be in [0, 1]", o.GMax)
	}

	c := &mcmcSampler{
		m:             m,
		s:             s,
		rows:          s.allRows(),
		rng:           o.rng(),
		gMax:          o.GMax,
		thresholdType: o.ThresholdType,
	}
	if err := c.start(); err != nil {
		return err
	}

	// With a single feature there is only one structure per depth and the
	// chain would never move.
	if m.dimFeatures == 1 {
		m.hnMetatreeList = []*Node{c.trees[0]}
		m.hnMetatreeProbVec = []float64{1}
		m.SetFitted()
		return nil
	}

	tuner := newGMaxTuner(o.Rho, o.Phi, o.PObj)
	for c.numProposed < o.BurnIn {
		if err := c.mhStep(tuner); err != nil {
			return err
		}
		c.gMax = tuner.update(c.gMax)
	}
	keep := c.numAccepted - 1
	c.counts[len(c.counts)-1] = 1
	for c.numProposed < o.BurnIn+o.NumMetatrees {
		if err := c.mhStep(nil); err != nil {
			return err
		}
	}

	m.logger.Info("MTMCMC sampling finished",
		log.AlgorithmKey, string(AlgMTMCMC),
		log.IterationKey, c.numProposed,
		log.AcceptanceRateKey, float64(c.numAccepted)/float64(c.numProposed),
		log.GMaxKey, c.gMax,
	)

	trees := c.trees[keep:]
	probs := make([]float64, len(trees))
	total := 0
	for _, cnt := range c.counts[keep:] {
		total += cnt
	}
	for i, cnt := range c.counts[keep:] {
		probs[i] = float64(cnt) / float64(total)
	}
	m.hnMetatreeList, m.hnMetatreeProbVec = m.mergeMetatrees(trees, probs)
	m.SetFitted()
	return nil
}
