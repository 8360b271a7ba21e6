// Package model provides the base estimator state shared by all learning
// models in the project.
package model

// EstimatorState represents the fitted state of a model.
type EstimatorState int

const (
	// NotFitted means the posterior has not been updated with data yet.
	NotFitted EstimatorState = iota
	// Fitted means the posterior reflects at least one update.
	Fitted
)

// BaseEstimator is embedded by every learning model.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether the model has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the model as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the model to the not-fitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
