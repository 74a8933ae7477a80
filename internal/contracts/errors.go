package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is a client-correctable input problem
// (missing field, non-numeric value, feature misalignment)
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// MissingFeaturesError reports features absent from an input vector
func MissingFeaturesError(missing []string) *ValidationError {
	return &ValidationError{
		Field:   "features",
		Message: "input data missing expected features: " + strings.Join(missing, ", "),
	}
}

// ModelUnavailableError is returned when inference is requested before a model was loaded
type ModelUnavailableError struct {
	Reason string
}

func (e *ModelUnavailableError) Error() string {
	if e.Reason == "" {
		return "credit model is not loaded"
	}
	return "credit model is not loaded: " + e.Reason
}

// InferenceError wraps a failure of the loaded model's inference call
type InferenceError struct {
	Backend string
	Err     error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed (%s): %v", e.Backend, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// ExplainabilityError is a recoverable attribution failure.
// 파이프라인 내부에서만 사용, 호출자에게 노출하지 않음
type ExplainabilityError struct {
	Reason string
	Err    error
}

func (e *ExplainabilityError) Error() string {
	if e.Err == nil {
		return "explainability unavailable: " + e.Reason
	}
	return fmt.Sprintf("explainability unavailable: %s: %v", e.Reason, e.Err)
}

func (e *ExplainabilityError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsModelUnavailable reports whether err is (or wraps) a ModelUnavailableError
func IsModelUnavailable(err error) bool {
	var target *ModelUnavailableError
	return errors.As(err, &target)
}

// IsInference reports whether err is (or wraps) an InferenceError
func IsInference(err error) bool {
	var target *InferenceError
	return errors.As(err, &target)
}
