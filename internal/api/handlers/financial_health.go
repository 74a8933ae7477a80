package handlers

import (
	"net/http"

	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/internal/features"
	"github.com/wonny/sycamore/backend/pkg/logger"
)

// RecordEvaluator is satisfied by *health.Evaluator
type RecordEvaluator interface {
	EvaluateRecord(raw contracts.RawApplicantRecord) contracts.FinancialHealthResult
}

// FinancialHealthHandler handles the rule-based financial health endpoint
type FinancialHealthHandler struct {
	evaluator RecordEvaluator
	schema    Validator
	logger    *logger.Logger
}

// NewFinancialHealthHandler creates a new financial health handler
func NewFinancialHealthHandler(evaluator RecordEvaluator, schema Validator, log *logger.Logger) *FinancialHealthHandler {
	return &FinancialHealthHandler{evaluator: evaluator, schema: schema, logger: log}
}

// Score computes the financial health of one applicant record.
// Derived features present in the body are used as given.
// POST /api/financial-health/score
func (h *FinancialHealthHandler) Score(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(w, r)
	if err != nil {
		respondDomainError(w, h.logger, r, err)
		return
	}
	if err := validateWith(h.schema, body); err != nil {
		respondDomainError(w, h.logger, r, err)
		return
	}

	raw, err := features.ParseRecord(body)
	if err != nil {
		respondDomainError(w, h.logger, r, err)
		return
	}

	respondJSON(w, http.StatusOK, h.evaluator.EvaluateRecord(raw))
}
