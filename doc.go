// Package metatree provides Bayesian decision-tree ensemble learning
// for Go, based on the meta-tree model.
//
// A meta-tree is a decision tree whose every node carries a split
// probability and a conjugate sub-model. Instead of committing to one
// tree, the learner keeps a posterior distribution over tree structures
// and averages predictions over it, which gives calibrated predictive
// distributions as well as point predictions.
//
// # Packages
//
//   - metatree: the LearnModel with posterior updates (random-forest
//     initialization, Metropolis-Hastings, replica exchange), batch
//     prediction, predictive variances and densities, MAP tree
//     extraction, and feature importances
//   - submodel: conjugate leaf models (Bernoulli, categorical, Poisson,
//     exponential, normal, Bayesian linear regression)
//   - randomforest: the CART forest used to seed the MTRF ensemble
//   - preprocessing: feature scaling transforms
//   - metrics: regression and classification evaluation metrics
//
// # Quick start
//
//	sub, _ := submodel.NewNormal(0, 1, 2, 2)
//	model, err := metatree.NewLearnModel(metatree.Config{
//	    DimContinuous: 2,
//	    MaxDepth:      3,
//	    SubModel:      sub,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = model.Fit(x, nil, y, metatree.AlgMTMCMC, &metatree.UpdateOptions{Seed: 1})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	preds, err := model.Predict(xNew, nil)
//
// The cmd/metatree command exposes fitting, evaluation, prediction and
// feature-importance plotting over CSV files.
package metatree
