package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/wonny/sycamore/backend/internal/contracts"
)

// Decision is one persisted scoring outcome
type Decision struct {
	ID                     uuid.UUID                `json:"id"`
	RequestID              string                   `json:"request_id,omitempty"`
	CreatedAt              time.Time                `json:"created_at"`
	ModelVersion           string                   `json:"model_version"`
	PolicyID               string                   `json:"policy_id"`
	PolicyHash             string                   `json:"policy_hash"`
	CreditScore            int                      `json:"credit_score"`
	ProbabilityOfDefault   float64                  `json:"probability_of_default"`
	RiskTier               contracts.RiskTier       `json:"risk_tier"`
	RecommendedLoanAmount  float64                  `json:"recommended_loan_amount"`
	RecommendedTenorMonths int                      `json:"recommended_tenor_months"`
	Currency               string                   `json:"currency"`
	Features               map[string]float64       `json:"features"`
	Explainability         contracts.Explainability `json:"explainability"`
}

// PolicyRef identifies the policy a decision was made under
type PolicyRef struct {
	ID   string
	Hash string
}

// NewDecision snapshots a scoring result for the audit log
func NewDecision(res *contracts.ScoringResult, requestID string, policy PolicyRef) Decision {
	return Decision{
		ID:                     uuid.New(),
		RequestID:              requestID,
		CreatedAt:              time.Now().UTC(),
		ModelVersion:           res.ModelVersion,
		PolicyID:               policy.ID,
		PolicyHash:             policy.Hash,
		CreditScore:            res.CreditScore,
		ProbabilityOfDefault:   res.ProbabilityOfDefault,
		RiskTier:               res.RiskTier,
		RecommendedLoanAmount:  res.RecommendedLoanAmount,
		RecommendedTenorMonths: res.RecommendedTenorMonths,
		Currency:               res.Currency,
		Features:               res.DerivedFeatures,
		Explainability:         res.Explainability,
	}
}
