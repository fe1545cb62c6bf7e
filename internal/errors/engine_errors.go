package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies engine failures
type ErrorCategory string

const (
	// Recoverable: the caller skips the offending unit and continues
	ErrorCategoryInsufficientData ErrorCategory = "INSUFFICIENT_DATA"
	ErrorCategoryDivergence       ErrorCategory = "DIVERGENCE"

	// Fatal: the run must abort
	ErrorCategoryInvalidParameter ErrorCategory = "INVALID_PARAMETER"
	ErrorCategoryConfiguration    ErrorCategory = "CONFIG"
	ErrorCategoryData             ErrorCategory = "DATA"
	ErrorCategoryPopulation       ErrorCategory = "POPULATION"
)

// EngineError is a categorized error with component/operation context
type EngineError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether the run must abort rather than skip and continue
func (e *EngineError) IsFatal() bool {
	switch e.Category {
	case ErrorCategoryInsufficientData, ErrorCategoryDivergence:
		return false
	default:
		return true
	}
}

// NewEngineError creates a new categorized engine error
func NewEngineError(category ErrorCategory, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// WrapError wraps an existing error with engine error context
func WrapError(err error, category ErrorCategory, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

// NewInsufficientDataError signals a window shorter than a gene's lookback.
// Callers treat the gene as silent for that step.
func NewInsufficientDataError(component string, have, need int) *EngineError {
	return NewEngineError(ErrorCategoryInsufficientData, component, "compute_signal",
		fmt.Sprintf("window has %d bars, need %d", have, need))
}

// NewInvalidParameterError signals a parameter outside its declared bound.
// Raised at construction or mutation time, never auto-corrected.
func NewInvalidParameterError(component, param string, value, min, max float64) *EngineError {
	return NewEngineError(ErrorCategoryInvalidParameter, component, "validate",
		fmt.Sprintf("parameter %s=%v outside bounds [%v, %v]", param, value, min, max))
}

// NewDivergenceError signals a NaN/Inf fitness evaluation. The individual is
// discarded and replaced; the run continues.
func NewDivergenceError(component string, fitness float64) *EngineError {
	return NewEngineError(ErrorCategoryDivergence, component, "evaluate",
		fmt.Sprintf("non-finite fitness %v", fitness))
}

// NewPopulationError signals an empty or invalid population at a state
// transition. Always fatal.
func NewPopulationError(component, message string) *EngineError {
	return NewEngineError(ErrorCategoryPopulation, component, "transition", message)
}

// NewConfigurationError signals an invalid configuration. Load fails closed.
func NewConfigurationError(component, operation, message string) *EngineError {
	return NewEngineError(ErrorCategoryConfiguration, component, operation, message)
}

// NewDataError signals corrupted or inconsistent input data
func NewDataError(component, operation, message string) *EngineError {
	return NewEngineError(ErrorCategoryData, component, operation, message)
}

// IsCategory reports whether err (or anything it wraps) is an EngineError of
// the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Category == category
	}
	return false
}

// IsInsufficientData reports whether err is an insufficient-data error
func IsInsufficientData(err error) bool {
	return IsCategory(err, ErrorCategoryInsufficientData)
}

// IsInvalidParameter reports whether err is an invalid-parameter error
func IsInvalidParameter(err error) bool {
	return IsCategory(err, ErrorCategoryInvalidParameter)
}

// IsDivergence reports whether err is an evolution-divergence error
func IsDivergence(err error) bool {
	return IsCategory(err, ErrorCategoryDivergence)
}
