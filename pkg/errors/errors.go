// Package errors provides the error and warning types used across the
// metatree project. It is inspired by the exception hierarchy of BayesML,
// with structured error information and stack traces attached via
// cockroachdb/errors.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// Default handler logs to standard error.
		log.Printf("metatree-warning: %v\n", w)
	}
	// zerolog sink, installed lazily to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the warning handler for the whole library.
// It controls how non-fatal conditions such as ResultWarning are reported.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // discard warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs a zerolog-backed warning sink (kept separate
// to avoid a circular import with pkg/log).
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning. If a zerolog sink is installed it takes precedence,
// otherwise the plain handler is used.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warning types
//
// ===========================================================================

// ResultWarning is raised when a computation finished but the result is
// degenerate, e.g. when the posterior holds no meta-trees and estimation
// falls back to defaults.
type ResultWarning struct {
	Op      string
	Message string
}

func (w *ResultWarning) Error() string {
	return fmt.Sprintf("%s: %s", w.Op, w.Message)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *ResultWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Op).
		Str("message", w.Message).
		Str("type", "ResultWarning")
}

// NewResultWarning creates a new ResultWarning.
func NewResultWarning(op, message string) *ResultWarning {
	return &ResultWarning{Op: op, Message: message}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// NotFittedError is returned when Predict or a posterior accessor is called
// on a model whose posterior has not been updated yet.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("metatree: %s: this model is not fitted yet. Call UpdatePosterior() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// ParameterFormatError reports a constructor or setter argument whose value
// or shape violates its documented constraints.
type ParameterFormatError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ParameterFormatError) Error() string {
	return fmt.Sprintf("metatree: invalid parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ParameterFormatError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ParameterFormatError")
}

// NewParameterFormatError creates a ParameterFormatError with a stack trace.
func NewParameterFormatError(param, reason string, value interface{}) error {
	err := &ParameterFormatError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// DataFormatError reports training or prediction data whose shape, dtype or
// value range does not match the model.
type DataFormatError struct {
	Op     string
	Reason string
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("metatree: %s: %s", e.Op, e.Reason)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DataFormatError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Str("type", "DataFormatError")
}

// NewDataFormatError creates a DataFormatError with a stack trace attached.
func NewDataFormatError(op, reason string) error {
	err := &DataFormatError{Op: op, Reason: reason}
	return errors.WithStack(err)
}

// NewDataFormatErrorf creates a DataFormatError from a format string.
func NewDataFormatErrorf(op, format string, args ...interface{}) error {
	err := &DataFormatError{Op: op, Reason: fmt.Sprintf(format, args...)}
	return errors.WithStack(err)
}

// CriteriaError is returned when an unsupported option value is requested,
// e.g. an unknown loss function or threshold rule.
type CriteriaError struct {
	Op        string
	Criterion string
	Supported []string
}

func (e *CriteriaError) Error() string {
	return fmt.Sprintf("metatree: %s: unsupported criterion %q (supported: %v)", e.Op, e.Criterion, e.Supported)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *CriteriaError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("criterion", e.Criterion).
		Strs("supported", e.Supported).
		Str("type", "CriteriaError")
}

// NewCriteriaError creates a CriteriaError with a stack trace attached.
func NewCriteriaError(op, criterion string, supported []string) error {
	err := &CriteriaError{Op: op, Criterion: criterion, Supported: supported}
	return errors.WithStack(err)
}

// DimensionError reports an input whose dimensions differ from the values
// the model was constructed with.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("metatree: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error values
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an empty sample is passed.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a precision matrix cannot be inverted.
	ErrSingularMatrix = New("singular matrix")
)
