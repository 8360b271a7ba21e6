// Package submodel implements the conjugate Bayesian leaf models used by the
// meta-tree learner. Every tree node owns one sub-model; the node feeds it
// the rows routed to the node and reads back the log marginal likelihood and
// the posterior predictive distribution.
//
// All families share the same life cycle: construct with hyperparameters
// (the prior), fold data in with UpdatePosterior, read LogMarginalLikelihood,
// fix a predictive with CalcPredDist and evaluate it with PredMean, PredVar
// and PredDensity. ResetHnParams restores the prior.
package submodel

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/bayesgo/metatree/pkg/errors"
)

// Family identifies a conjugate model family.
type Family string

// Supported families.
const (
	FamilyBernoulli        Family = "bernoulli"
	FamilyCategorical      Family = "categorical"
	FamilyPoisson          Family = "poisson"
	FamilyExponential      Family = "exponential"
	FamilyNormal           Family = "normal"
	FamilyLinearRegression Family = "linearregression"
)

// IsClassification reports whether the family models a discrete class label.
func (f Family) IsClassification() bool {
	return f == FamilyBernoulli || f == FamilyCategorical
}

// UsesFeatures reports whether the predictive distribution depends on the
// continuous explanatory variables, not only on the targets.
func (f Family) UsesFeatures() bool {
	return f == FamilyLinearRegression
}

// SubModel is the conjugate model attached to every tree node.
//
// The log marginal likelihood is cumulative: it covers all data folded in
// since construction or the last ResetHnParams, evaluated against the prior.
type SubModel interface {
	// Family returns the family identifier.
	Family() Family

	// CheckTarget validates that the targets lie in the family's support.
	CheckTarget(y []float64) error

	// UpdatePosterior folds the rows into the posterior. x holds the
	// continuous explanatory variables, one row per target; families whose
	// predictive does not depend on features ignore it and accept nil.
	UpdatePosterior(x mat.Matrix, y []float64) error

	// LogMarginalLikelihood returns the accumulated log marginal likelihood
	// of the folded-in data.
	LogMarginalLikelihood() float64

	// ResetHnParams restores the posterior to the prior.
	ResetHnParams()

	// CalcPredDist fixes the posterior predictive at the point x (the
	// continuous explanatory variables of one sample). Families that do not
	// use features accept nil.
	CalcPredDist(x []float64) error

	// PredMean returns the mean of the fixed predictive distribution.
	PredMean() (float64, error)

	// PredVar returns the variance of the fixed predictive distribution.
	// Families without a meaningful scalar variance return a CriteriaError.
	PredVar() (float64, error)

	// PredDensity evaluates the fixed predictive density (or mass) at y.
	PredDensity(y float64) float64

	// Clone returns a fresh model with the same hyperparameters and a
	// prior-state posterior.
	Clone() SubModel

	// Copy returns a deep copy including the posterior state.
	Copy() SubModel
}

// ClassProbEstimator is the capability interface of classification families.
// The meta-tree mixes the class probability vectors of its leaves, so the
// discrete families expose them directly.
type ClassProbEstimator interface {
	// NumClasses returns the number of classes.
	NumClasses() int

	// ClassProbs returns the predictive probability of each class. The
	// returned slice is owned by the caller.
	ClassProbs() []float64
}

// lnBeta returns ln B(a, b).
func lnBeta(a, b float64) float64 {
	lga, _ := math.Lgamma(a)
	lgb, _ := math.Lgamma(b)
	lgab, _ := math.Lgamma(a + b)
	return lga + lgb - lgab
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

func checkPositive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 1) {
		return errors.NewParameterFormatError(name, "must be a positive finite real number", v)
	}
	return nil
}

func checkRows(op string, x mat.Matrix, n int) error {
	if x == nil {
		return errors.NewDataFormatError(op, "explanatory variables are required for this family")
	}
	r, _ := x.Dims()
	if r != n {
		return errors.NewDimensionError(op, n, r, 0)
	}
	return nil
}
