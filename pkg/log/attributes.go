// Package log defines standard attribute keys for metatree operations.
//
// Using these keys consistently enables filtering of structured logs by
// model, operation and sampler state. The keys follow a hierarchical naming
// convention (e.g. "model.name", "data.samples").

package log

// Model and operation context.
const (
	// ModelNameKey identifies the model type.
	// Examples: "MetaTreeLearnModel", "RandomForest"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "update_posterior", "calc_pred_dist",
	// "make_prediction", "estimate_params"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package or component emitting the record.
	// Examples: "metatree", "submodel", "randomforest"
	ComponentKey = "ml.component"

	// AlgorithmKey names the posterior-learning algorithm.
	// Values: "MTRF", "GivenMT", "MTMCMC", "REMTMCMC"
	AlgorithmKey = "ml.algorithm"
)

// Data shape.
const (
	// SamplesKey is the number of sample rows.
	SamplesKey = "data.samples"

	// ContinuousFeaturesKey is the number of continuous explanatory variables.
	ContinuousFeaturesKey = "data.continuous_features"

	// CategoricalFeaturesKey is the number of categorical explanatory variables.
	CategoricalFeaturesKey = "data.categorical_features"
)

// Sampler state.
const (
	// IterationKey is the current Metropolis-Hastings iteration.
	IterationKey = "mcmc.iteration"

	// ChainKey identifies a replica-exchange chain.
	ChainKey = "mcmc.chain"

	// BetaKey is the inverse temperature of a chain.
	BetaKey = "mcmc.beta"

	// AcceptanceRateKey is the estimated proposal acceptance probability.
	AcceptanceRateKey = "mcmc.acceptance_rate"

	// GMaxKey is the current proposal ceiling.
	GMaxKey = "mcmc.g_max"

	// MetaTreesKey is the number of meta-trees currently retained.
	MetaTreesKey = "mcmc.num_metatrees"

	// LogLikelihoodKey is a tree's marginal log-likelihood.
	LogLikelihoodKey = "mcmc.log_likelihood"
)

// Error context.
const (
	// ErrorCodeKey is a structured error code for programmatic handling.
	// Examples: "NOT_FITTED", "DATA_FORMAT", "CRITERIA"
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the error type.
	ErrorTypeKey = "error.type"
)

// Configuration.
const (
	// RandomSeedKey records the sampler seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// DurationMsKey records execution time in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Standard attribute value constants.
const (
	OperationUpdatePosterior = "update_posterior"
	OperationCalcPredDist    = "calc_pred_dist"
	OperationMakePrediction  = "make_prediction"
	OperationEstimateParams  = "estimate_params"

	ErrorNotFitted   = "NOT_FITTED"
	ErrorDataFormat  = "DATA_FORMAT"
	ErrorCriteria    = "CRITERIA"
	ErrorParamFormat = "PARAMETER_FORMAT"
	ErrorEmptyData   = "EMPTY_DATA"
	ErrorSingularMat = "SINGULAR_MATRIX"
)
