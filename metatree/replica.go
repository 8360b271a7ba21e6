package metatree

import (
	"math"

	mterrors "github.com/bayesgo/metatree/pkg/errors"
	"github.com/bayesgo/metatree/pkg/log"
)

// reMHStep proposes one tree for a tempered chain. Only the top chain
// (inverse temperature 1) keeps its history; the others track just their
// current tree.
func (c *mcmcSampler) reMHStep(beta float64, top bool) error {
	lastTree := c.trees[len(c.trees)-1]
	root := c.newRoot()
	lNew, err := c.generate(lastTree, root, false, c.rows)
	if err != nil {
		return err
	}
	tNew := c.truncatedPosterior(root)
	tLast := c.truncatedPosterior(lastTree)
	if c.rng.Float64() < math.Exp((lNew-c.lLast)*beta-tLast+tNew) {
		if top {
			c.trees = append(c.trees, root)
			c.counts = append(c.counts, 1)
		} else {
			c.trees[len(c.trees)-1] = root
		}
		c.lLast = lNew
		c.numAccepted++
	} else if top {
		c.counts[len(c.counts)-1]++
	}
	c.numProposed++
	return nil
}

// updatePosteriorREMTMCMC runs replica exchange over tempered MH chains and
// keeps the post-burn-in samples of the chain at inverse temperature 1.
func (m *LearnModel) updatePosteriorREMTMCMC(s *sample, o *UpdateOptions) error {
	if err := m.checkMCMCConstants(); err != nil {
		return err
	}
	if !o.ThresholdType.valid() {
		return mterrors.NewParameterFormatError("ThresholdType", "unknown threshold type", o.ThresholdType)
	}
	if o.GMax < 0 || o.GMax > 1 {
		return mterrors.NewParameterFormatError("GMax", "must be in [0, 1]", o.GMax)
	}
	numChains := o.NumChains
	if numChains < 1 {
		return mterrors.NewParameterFormatError("NumChains", "must be at least 1", o.NumChains)
	}
	if o.NumInterval < 1 {
		return mterrors.NewParameterFormatError("NumInterval", "must be at least 1", o.NumInterval)
	}
	if o.NumExchange < 0 {
		return mterrors.NewParameterFormatError("NumExchange", "must be non-negative", o.NumExchange)
	}
	beta := o.BetaVec
	if beta == nil {
		beta = make([]float64, numChains)
		for i := range beta {
			beta[i] = float64(i+1) / float64(numChains)
		}
	}
	if len(beta) != numChains {
		return mterrors.NewParameterFormatError("BetaVec",
			"length must equal the number of chains", len(beta))
	}
	for i, b := range beta {
		if b < 0 || b > 1 {
			return mterrors.NewParameterFormatError("BetaVec",
				"inverse temperatures must be in [0, 1]", beta[i])
		}
	}

	rng := o.rng()
	chains := make([]*mcmcSampler, numChains)
	for i := range chains {
		chains[i] = &mcmcSampler{
			m:             m,
			s:             s,
			rows:          s.allRows(),
			rng:           rng,
			gMax:          o.GMax,
			thresholdType: o.ThresholdType,
		}
		if err := chains[i].start(); err != nil {
			return err
		}
	}
	top := chains[numChains-1]

	if m.dimFeatures == 1 {
		m.hnMetatreeList = []*Node{top.trees[0]}
		m.hnMetatreeProbVec = []float64{1}
		m.SetFitted()
		return nil
	}

	exchange := func() {
		for e := 0; e < o.NumExchange; e++ {
			j := rng.Intn(numChains - 1)
			a, b := chains[j], chains[j+1]
			ratio := a.lLast*beta[j+1] + b.lLast*beta[j] - a.lLast*beta[j] - b.lLast*beta[j+1]
			if rng.Float64() >= math.Exp(ratio) {
				continue
			}
			if j == numChains-2 {
				// The top chain keeps history, so swapping moves the
				// lower chain's tree in as a new sample.
				b.trees = append(b.trees, a.trees[len(a.trees)-1])
				a.trees[len(a.trees)-1] = b.trees[len(b.trees)-2]
				a.counts[len(a.counts)-1] = 1
				b.counts[len(b.counts)-1]--
				b.counts = append(b.counts, 1)
			} else {
				la, lb := len(a.trees)-1, len(b.trees)-1
				a.trees[la], b.trees[lb] = b.trees[lb], a.trees[la]
				a.counts[len(a.counts)-1] = 1
				b.counts[len(b.counts)-1] = 1
			}
			a.lLast, b.lLast = b.lLast, a.lLast
		}
	}

	// Each round steps every chain and then, on the interval, attempts
	// exchanges between neighbouring temperatures.
	for i := 0; i < o.BurnIn; i++ {
		for j, c := range chains {
			if err := c.reMHStep(beta[j], j == numChains-1); err != nil {
				return err
			}
		}
		if numChains > 1 && i%o.NumInterval == 0 {
			exchange()
		}
	}
	keep := len(top.trees) - 1
	for _, c := range chains {
		c.counts[len(c.counts)-1] = 1
	}
	for i := 0; i < o.NumMetatrees; i++ {
		for j, c := range chains {
			if err := c.reMHStep(beta[j], j == numChains-1); err != nil {
				return err
			}
		}
		if numChains > 1 && i%o.NumInterval == 0 {
			exchange()
		}
	}

	m.logger.Info("REMTMCMC sampling finished",
		log.AlgorithmKey, string(AlgREMTMCMC),
		log.ChainKey, numChains,
		log.IterationKey, top.numProposed,
		log.AcceptanceRateKey, float64(top.numAccepted)/float64(top.numProposed),
	)

	trees := top.trees[keep:]
	counts := top.counts[keep:]
	total := 0
	for _, cnt := range counts {
		total += cnt
	}
	probs := make([]float64, len(trees))
	for i, cnt := range counts {
		probs[i] = float64(cnt) / float64(total)
	}
	m.hnMetatreeList, m.hnMetatreeProbVec = m.mergeMetatrees(trees, probs)
	m.SetFitted()
	return nil
}
