package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"float", 1.5, 1.5, true},
		{"int", 7, 7, true},
		{"uint8", uint8(3), 3, true},
		{"json number", json.Number("42.25"), 42.25, true},
		{"numeric string", " 12 ", 12, true},
		{"true", true, 1, true},
		{"false", false, 0, true},
		{"nil", nil, 0, false},
		{"text", "abc", 0, false},
		{"bad json number", json.Number("x"), 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
		{"slice", []int{1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat64(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ToFloat64(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	wrapped := func(err error) error { return fmt.Errorf("score: %w", err) }

	assert.True(t, IsValidation(wrapped(NewValidationError("age", "must be numeric"))))
	assert.True(t, IsModelUnavailable(wrapped(&ModelUnavailableError{})))
	assert.True(t, IsInference(wrapped(&InferenceError{Backend: "xgboost", Err: errors.New("boom")})))

	assert.False(t, IsValidation(&ModelUnavailableError{}))
	assert.False(t, IsInference(NewValidationError("", "x")))
	assert.False(t, IsModelUnavailable(nil))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "age: must be numeric", NewValidationError("age", "must be numeric").Error())
	assert.Equal(t, "bad input", NewValidationError("", "bad input").Error())
	assert.Equal(t, "credit model is not loaded", (&ModelUnavailableError{}).Error())
	assert.Equal(t, "credit model is not loaded: no path", (&ModelUnavailableError{Reason: "no path"}).Error())

	missing := MissingFeaturesError([]string{"a", "b"})
	assert.Equal(t, "features", missing.Field)
	assert.Contains(t, missing.Error(), "a, b")

	cause := errors.New("timeout")
	inf := &InferenceError{Backend: "remote", Err: cause}
	assert.ErrorIs(t, inf, cause)
	assert.Equal(t, "inference failed (remote): timeout", inf.Error())

	exp := &ExplainabilityError{Reason: "no explainer loaded"}
	assert.Equal(t, "explainability unavailable: no explainer loaded", exp.Error())
	assert.ErrorIs(t, &ExplainabilityError{Reason: "x", Err: cause}, cause)
}
