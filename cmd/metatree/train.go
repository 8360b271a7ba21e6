package main

import (
	"fmt"

	"github.com/bayesgo/metatree/core/model"
	"github.com/bayesgo/metatree/metatree"
)

// trainModel builds the model described by cfg and fits it on the
// training CSV. The returned scaler, when non-nil, must be applied to
// every later batch of continuous features.
func trainModel(cfg *modelConfig, trainPath string) (*metatree.LearnModel, model.Transformer, *dataset, error) {
	train, err := readDataset(trainPath, cfg.Model.DimContinuous, cfg.Model.DimCategorical, true)
	if err != nil {
		return nil, nil, nil, err
	}

	scaler, err := newScaler(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if scaler != nil {
		train.xc, err = scaler.FitTransform(train.xc)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	lm, err := cfg.buildModel()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := lm.UpdatePosterior(train.xc, train.xcat, train.y, cfg.algorithm(), cfg.buildOptions()); err != nil {
		return nil, nil, nil, fmt.Errorf("fitting model: %w", err)
	}
	return lm, scaler, train, nil
}

// scaleInput applies the training-batch scaler to a prediction or
// evaluation batch.
func scaleInput(scaler model.Transformer, ds *dataset) error {
	if scaler == nil || ds.xc == nil {
		return nil
	}
	xc, err := scaler.Transform(ds.xc)
	if err != nil {
		return err
	}
	ds.xc = xc
	return nil
}
