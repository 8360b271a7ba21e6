package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayesgo/metatree/metatree"
	"github.com/bayesgo/metatree/submodel"
)

const sampleConfig = `
model:
  dim_continuous: 2
  dim_categorical: 1
  max_depth: 3
  num_children_vec: [2, 2, 3]
  ranges: [[-1, 1], [0, 10]]
  h0_g: 0.6
  submodel:
    family: normal
    m: 0
    kappa: 1
    alpha: 2
    beta: 2
algorithm: MTMCMC
options:
  seed: 42
  burn_in: 50
  num_metatrees: 200
scale: standard
`

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(writeTempConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Model.DimContinuous)
	assert.Equal(t, 1, cfg.Model.DimCategorical)
	assert.Equal(t, []int{2, 2, 3}, cfg.Model.NumChildrenVec)
	assert.Equal(t, [2]float64{0, 10}, cfg.Model.Ranges[1])
	assert.Equal(t, metatree.AlgMTMCMC, cfg.algorithm())
	assert.Equal(t, int64(42), cfg.Options.Seed)
	assert.Equal(t, "standard", cfg.Scale)
	assert.False(t, cfg.isClassification())

	model, err := cfg.buildModel()
	require.NoError(t, err)
	assert.Equal(t, 3, model.MaxDepth())
	assert.InDelta(t, 0.6, model.H0G(), 1e-12)
}

func TestLoadConfigDefaultsAlgorithm(t *testing.T) {
	body := strings.Replace(sampleConfig, "algorithm: MTMCMC", "", 1)
	cfg, err := loadConfig(writeTempConfig(t, body))
	require.NoError(t, err)
	assert.Equal(t, metatree.AlgMTRF, cfg.algorithm())
}

func TestLoadConfigRejectsUnknownScale(t *testing.T) {
	body := strings.Replace(sampleConfig, "scale: standard", "scale: robust", 1)
	_, err := loadConfig(writeTempConfig(t, body))
	assert.Error(t, err)
}

func TestLoadConfigMissingPath(t *testing.T) {
	_, err := loadConfig("")
	assert.Error(t, err)
}

func TestBuildSubModelFamilies(t *testing.T) {
	tests := []struct {
		family string
		extra  string
		want   submodel.Family
	}{
		{"bernoulli", "", submodel.FamilyBernoulli},
		{"categorical", "degree: 3", submodel.FamilyCategorical},
		{"poisson", "", submodel.FamilyPoisson},
		{"exponential", "", submodel.FamilyExponential},
		{"normal", "", submodel.FamilyNormal},
		{"linearregression", "", submodel.FamilyLinearRegression},
	}
	for _, tt := range tests {
		t.Run(tt.family, func(t *testing.T) {
			cfg := &modelConfig{}
			cfg.Model.DimContinuous = 2
			cfg.Model.SubModel.Family = tt.family
			if tt.extra != "" {
				cfg.Model.SubModel.Degree = 3
			}
			sub, err := cfg.buildSubModel()
			require.NoError(t, err)
			assert.Equal(t, tt.want, sub.Family())
		})
	}

	cfg := &modelConfig{}
	cfg.Model.SubModel.Family = "gamma"
	_, err := cfg.buildSubModel()
	assert.Error(t, err)
}
