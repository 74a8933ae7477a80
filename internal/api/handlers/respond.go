package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/pkg/logger"
)

// maxBodyBytes: 요청 본문 상한 (1MB)
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// StatusFor maps the error taxonomy to an HTTP status
// ⭐ SSOT: 에러 → HTTP 상태 매핑은 여기서만
func StatusFor(err error) int {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError

	switch {
	case contracts.IsValidation(err):
		return http.StatusUnprocessableEntity
	case contracts.IsModelUnavailable(err):
		return http.StatusServiceUnavailable
	case contracts.IsInference(err):
		return http.StatusInternalServerError
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody builds the client-facing error. Internal details of inference
// failures stay in the logs.
func ErrorBody(err error) ErrorResponse {
	var ve *contracts.ValidationError
	switch {
	case errors.As(err, &ve):
		return ErrorResponse{Error: ve.Message, Field: ve.Field}
	case contracts.IsModelUnavailable(err):
		return ErrorResponse{Error: err.Error()}
	case contracts.IsInference(err):
		return ErrorResponse{Error: "credit model inference failed"}
	}

	switch StatusFor(err) {
	case http.StatusBadRequest:
		return ErrorResponse{Error: "malformed JSON body: " + err.Error()}
	case http.StatusRequestEntityTooLarge:
		return ErrorResponse{Error: "request body too large"}
	default:
		return ErrorResponse{Error: "internal server error"}
	}
}

func respondDomainError(w http.ResponseWriter, log *logger.Logger, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Error("Request failed")
	}
	respondJSON(w, status, ErrorBody(err))
}

// decodeObject reads a JSON object body (bounded)
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]interface{}, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, contracts.NewValidationError("body", "expected a JSON object")
	}
	return body, nil
}

// Validator is satisfied by *schema.Validator
type Validator interface {
	Validate(doc interface{}) error
}

func validateWith(v Validator, doc interface{}) error {
	if v == nil {
		return nil
	}
	if err := v.Validate(doc); err != nil {
		return fmt.Errorf("request schema: %w", err)
	}
	return nil
}
