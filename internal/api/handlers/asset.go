package handlers

import (
	"math"
	"net/http"

	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/internal/features"
	"github.com/wonny/sycamore/backend/pkg/logger"
)

// DefaultAge is used when the request has no AGE
const DefaultAge = 30

// AssetHandler handles investment allocation requests
type AssetHandler struct {
	advisor      contracts.InvestmentAdvisor
	evaluator    RecordEvaluator
	schema       Validator
	recordSchema Validator
	logger       *logger.Logger
}

// NewAssetHandler creates a new asset handler. recordSchema validates the
// applicant record used when no score is supplied.
func NewAssetHandler(advisor contracts.InvestmentAdvisor, evaluator RecordEvaluator, schema, recordSchema Validator, log *logger.Logger) *AssetHandler {
	return &AssetHandler{
		advisor:      advisor,
		evaluator:    evaluator,
		schema:       schema,
		recordSchema: recordSchema,
		logger:       log,
	}
}

// Recommend returns the allocation for {financial_health_score, AGE}.
// Without a score, the health score is computed from the applicant record in the body.
// POST /api/asset-management/recommend
func (h *AssetHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(w, r)
	if err != nil {
		respondDomainError(w, h.logger, r, err)
		return
	}
	if err := validateWith(h.schema, body); err != nil {
		respondDomainError(w, h.logger, r, err)
		return
	}

	age, err := ageOf(body)
	if err != nil {
		respondDomainError(w, h.logger, r, err)
		return
	}

	score, err := h.healthScore(body)
	if err != nil {
		respondDomainError(w, h.logger, r, err)
		return
	}

	respondJSON(w, http.StatusOK, h.advisor.Advise(score, age))
}

func (h *AssetHandler) healthScore(body map[string]interface{}) (float64, error) {
	if v, ok := body["financial_health_score"]; ok && v != nil {
		score, ok := contracts.ToFloat64(v)
		if !ok {
			return 0, contracts.NewValidationError("financial_health_score", "must be a number")
		}
		return score, nil
	}

	if _, ok := body[contracts.FieldLimitBal]; !ok {
		return 0, contracts.NewValidationError("financial_health_score",
			"required unless an applicant record is supplied")
	}

	// 점수가 없으면 레코드로부터 먼저 계산
	if err := validateWith(h.recordSchema, body); err != nil {
		return 0, err
	}
	raw, err := features.ParseRecord(body)
	if err != nil {
		return 0, err
	}
	return h.evaluator.EvaluateRecord(raw).FinancialHealthScore, nil
}

func ageOf(body map[string]interface{}) (int, error) {
	v, ok := body[contracts.FieldAge]
	if !ok || v == nil {
		return DefaultAge, nil
	}
	f, ok := contracts.ToFloat64(v)
	if !ok || f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, contracts.NewValidationError(contracts.FieldAge, "must be a non-negative integer")
	}
	return int(f), nil
}
