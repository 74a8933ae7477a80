package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/pkg/logger"
)

// CreditScorer is satisfied by *scoring.Service
type CreditScorer interface {
	ScoreFields(ctx context.Context, fields map[string]interface{}) (*contracts.ScoringResult, error)
}

// CreditHandler handles credit scoring endpoints
// ⭐ SSOT: 신용 점수 API 핸들러는 이 구조체에서만
type CreditHandler struct {
	scorer CreditScorer
	schema Validator
	logger *logger.Logger
}

// NewCreditHandler creates a new credit handler
func NewCreditHandler(scorer CreditScorer, schema Validator, log *logger.Logger) *CreditHandler {
	return &CreditHandler{scorer: scorer, schema: schema, logger: log}
}

// Score scores one applicant record
// POST /api/credit/score
func (h *CreditHandler) Score(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(w, r)
	if err != nil {
		respondDomainError(w, h.logger, r, err)
		return
	}

	res, err := scoreDocument(r.Context(), h.scorer, h.schema, body)
	if err != nil {
		respondDomainError(w, h.logger, r, err)
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func scoreDocument(ctx context.Context, scorer CreditScorer, schema Validator, body map[string]interface{}) (*contracts.ScoringResult, error) {
	if err := validateWith(schema, body); err != nil {
		return nil, err
	}
	return scorer.ScoreFields(ctx, body)
}
