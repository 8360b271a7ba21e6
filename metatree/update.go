package metatree

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	mterrors "github.com/bayesgo/metatree/pkg/errors"
)

// AlgType selects the posterior-update algorithm.
type AlgType string

const (
	// AlgMTRF builds the ensemble from a random forest and reweights it.
	AlgMTRF AlgType = "MTRF"
	// AlgGivenMT reweights the current ensemble with a new batch.
	AlgGivenMT AlgType = "given_MT"
	// AlgMTMCMC samples tree structures with Metropolis-Hastings.
	AlgMTMCMC AlgType = "MTMCMC"
	// AlgREMTMCMC samples with replica-exchange Metropolis-Hastings.
	AlgREMTMCMC AlgType = "REMTMCMC"
)

// UpdateOptions tunes UpdatePosterior. The zero value of each field selects
// the documented default, so the zero UpdateOptions is fully usable.
type UpdateOptions struct {
	// Seed seeds the sampler's random source. Ignored when RNG is set.
	Seed int64
	// RNG, when non-nil, is used as the random source.
	RNG *rand.Rand

	// NumTrees is the forest size for MTRF. Default 100.
	NumTrees int

	// BurnIn is the number of discarded MCMC iterations. Default 100.
	BurnIn int
	// NumMetatrees is the number of kept MCMC iterations. Default 500.
	NumMetatrees int
	// GMax caps the probability of following the previous tree's splits
	// when proposing. Defaults: 0 for MTMCMC (tuned during burn-in),
	// 0.9 for REMTMCMC.
	GMax float64
	// Rho is the decay of the burn-in acceptance-rate estimate. Default
	// 0.99. MTMCMC only.
	Rho float64
	// Phi is the decay of the ceiling average. Default 0.999. MTMCMC only.
	Phi float64
	// PObj is the target acceptance rate. Default 0.3. MTMCMC only.
	PObj float64
	// ThresholdType places continuous split boundaries. Default
	// Threshold1DKMeans.
	ThresholdType ThresholdType

	// NumChains is the number of tempered chains for REMTMCMC. Default 8.
	NumChains int
	// BetaVec gives the inverse temperature of each chain, each in
	// [0, 1]. Nil means (i+1)/NumChains.
	BetaVec []float64
	// NumInterval is the number of iterations between exchange rounds.
	// Default 10.
	NumInterval int
	// NumExchange is the number of swap attempts per round. Default 4.
	NumExchange int
}

// withDefaults fills unset fields for the given algorithm.
func (o *UpdateOptions) withDefaults(alg AlgType) *UpdateOptions {
	out := UpdateOptions{}
	if o != nil {
		out = *o
	}
	if out.NumTrees == 0 {
		out.NumTrees = 100
	}
	if out.BurnIn == 0 {
		out.BurnIn = 100
	}
	if out.NumMetatrees == 0 {
		out.NumMetatrees = 500
	}
	if out.GMax == 0 && alg == AlgREMTMCMC {
		out.GMax = 0.9
	}
	if out.Rho == 0 {
		out.Rho = 0.99
	}
	if out.Phi == 0 {
		out.Phi = 0.999
	}
	if out.PObj == 0 {
		out.PObj = 0.3
	}
	if out.ThresholdType == "" {
		out.ThresholdType = Threshold1DKMeans
	}
	if out.NumChains == 0 {
		out.NumChains = 8
	}
	if out.NumInterval == 0 {
		out.NumInterval = 10
	}
	if out.NumExchange == 0 {
		out.NumExchange = 4
	}
	return &out
}

// rng returns the configured random source.
func (o *UpdateOptions) rng() *rand.Rand {
	if o.RNG != nil {
		return o.RNG
	}
	return rand.New(rand.NewSource(o.Seed))
}

// UpdatePosterior learns the meta-tree ensemble from a batch.
//
// xContinuous is an n-by-DimContinuous matrix (nil when there are no
// continuous features), xCategorical holds one row of category codes per
// sample (nil when there are no categorical features) and y holds the n
// targets. opts may be nil for the defaults.
func (m *LearnModel) UpdatePosterior(xContinuous mat.Matrix, xCategorical [][]int, y []float64, alg AlgType, opts *UpdateOptions) error {
	s, err := m.checkSample(xContinuous, xCategorical, y, true)
	if err != nil {
		return err
	}
	o := opts.withDefaults(alg)
	switch alg {
	case AlgMTRF:
		return m.updatePosteriorMTRF(s, o)
	case AlgGivenMT:
		return m.givenMT(s)
	case AlgMTMCMC:
		return m.updatePosteriorMTMCMC(s, o)
	case AlgREMTMCMC:
		return m.updatePosteriorREMTMCMC(s, o)
	default:
		return mterrors.NewCriteriaError("metatree.UpdatePosterior", string(alg),
			[]string{string(AlgMTRF), string(AlgGivenMT), string(AlgMTMCMC), string(AlgREMTMCMC)})
	}
}
