package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bayesgo/metatree/metatree"
	"github.com/bayesgo/metatree/submodel"
)

// modelConfig is the YAML description of a LearnModel, its leaf model,
// and the posterior-update algorithm.
type modelConfig struct {
	Model struct {
		DimContinuous    int          `yaml:"dim_continuous"`
		DimCategorical   int          `yaml:"dim_categorical"`
		MaxDepth         int          `yaml:"max_depth"`
		NumChildrenVec   []int        `yaml:"num_children_vec"`
		NumAssignmentVec []int        `yaml:"num_assignment_vec"`
		Ranges           [][2]float64 `yaml:"ranges"`
		H0G              float64      `yaml:"h0_g"`
		H0KWeightVec     []float64    `yaml:"h0_k_weight_vec"`
		SubModel         subModelSpec `yaml:"submodel"`
	} `yaml:"model"`

	Algorithm string `yaml:"algorithm"`

	Options struct {
		Seed          int64     `yaml:"seed"`
		NumTrees      int       `yaml:"num_trees"`
		BurnIn        int       `yaml:"burn_in"`
		NumMetatrees  int       `yaml:"num_metatrees"`
		GMax          float64   `yaml:"g_max"`
		Rho           float64   `yaml:"rho"`
		Phi           float64   `yaml:"phi"`
		PObj          float64   `yaml:"p_obj"`
		ThresholdType string    `yaml:"threshold_type"`
		NumChains     int       `yaml:"num_chains"`
		BetaVec       []float64 `yaml:"beta_vec"`
		NumInterval   int       `yaml:"num_interval"`
		NumExchange   int       `yaml:"num_exchange"`
	} `yaml:"options"`

	// Scale selects a transform applied to the continuous features
	// before fitting and prediction: none (default), standard, minmax.
	Scale string `yaml:"scale"`
}

type subModelSpec struct {
	Family string  `yaml:"family"`
	Alpha  float64 `yaml:"alpha"`
	Beta   float64 `yaml:"beta"`
	M      float64 `yaml:"m"`
	Kappa  float64 `yaml:"kappa"`
	Degree int     `yaml:"degree"`
}

func loadConfig(path string) (*modelConfig, error) {
	if path == "" {
		return nil, fmt.Errorf("required config flag was not set")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config at %s: %w", path, err)
	}
	cfg := &modelConfig{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config at %s: %w", path, err)
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = string(metatree.AlgMTRF)
	}
	switch cfg.Scale {
	case "", "none", "standard", "minmax":
	default:
		return nil, fmt.Errorf("unknown scale %q (expected none, standard or minmax)", cfg.Scale)
	}
	return cfg, nil
}

func (c *modelConfig) buildSubModel() (submodel.SubModel, error) {
	spec := c.Model.SubModel
	alpha, beta := spec.Alpha, spec.Beta
	switch submodel.Family(spec.Family) {
	case submodel.FamilyBernoulli:
		if alpha == 0 {
			alpha = 0.5
		}
		if beta == 0 {
			beta = 0.5
		}
		return submodel.NewBernoulli(alpha, beta)
	case submodel.FamilyCategorical:
		if alpha == 0 {
			alpha = 0.5
		}
		return submodel.NewCategorical(spec.Degree, alpha)
	case submodel.FamilyPoisson:
		if alpha == 0 {
			alpha = 1
		}
		if beta == 0 {
			beta = 1
		}
		return submodel.NewPoisson(alpha, beta)
	case submodel.FamilyExponential:
		if alpha == 0 {
			alpha = 1
		}
		if beta == 0 {
			beta = 1
		}
		return submodel.NewExponential(alpha, beta)
	case submodel.FamilyNormal:
		kappa := spec.Kappa
		if kappa == 0 {
			kappa = 1
		}
		if alpha == 0 {
			alpha = 2
		}
		if beta == 0 {
			beta = 2
		}
		return submodel.NewNormal(spec.M, kappa, alpha, beta)
	case submodel.FamilyLinearRegression:
		if alpha == 0 {
			alpha = 2
		}
		if beta == 0 {
			beta = 2
		}
		return submodel.NewLinearRegression(c.Model.DimContinuous, nil, nil, alpha, beta)
	default:
		return nil, fmt.Errorf("unknown submodel family %q", spec.Family)
	}
}

func (c *modelConfig) buildModel() (*metatree.LearnModel, error) {
	sub, err := c.buildSubModel()
	if err != nil {
		return nil, err
	}
	return metatree.NewLearnModel(metatree.Config{
		DimContinuous:    c.Model.DimContinuous,
		DimCategorical:   c.Model.DimCategorical,
		MaxDepth:         c.Model.MaxDepth,
		NumChildrenVec:   c.Model.NumChildrenVec,
		NumAssignmentVec: c.Model.NumAssignmentVec,
		Ranges:           c.Model.Ranges,
		SubModel:         sub,
		H0G:              c.Model.H0G,
		H0KWeightVec:     c.Model.H0KWeightVec,
	})
}

func (c *modelConfig) buildOptions() *metatree.UpdateOptions {
	o := c.Options
	return &metatree.UpdateOptions{
		Seed:          o.Seed,
		NumTrees:      o.NumTrees,
		BurnIn:        o.BurnIn,
		NumMetatrees:  o.NumMetatrees,
		GMax:          o.GMax,
		Rho:           o.Rho,
		Phi:           o.Phi,
		PObj:          o.PObj,
		ThresholdType: metatree.ThresholdType(o.ThresholdType),
		NumChains:     o.NumChains,
		BetaVec:       o.BetaVec,
		NumInterval:   o.NumInterval,
		NumExchange:   o.NumExchange,
	}
}

func (c *modelConfig) algorithm() metatree.AlgType {
	return metatree.AlgType(c.Algorithm)
}

func (c *modelConfig) isClassification() bool {
	return submodel.Family(c.Model.SubModel.Family).IsClassification()
}
