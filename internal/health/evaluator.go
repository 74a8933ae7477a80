package health

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/internal/features"
	"github.com/wonny/sycamore/backend/internal/policy"
)

// Evaluator computes the rule-based financial health score
// ⭐ SSOT: 재무 건전성 점수 공식은 여기서만
type Evaluator struct {
	cfg    policy.Health
	engine contracts.FeatureEngine
}

var _ contracts.HealthEvaluator = (*Evaluator)(nil)

// New creates an evaluator with the given coefficients
func New(cfg policy.Health) *Evaluator {
	return &Evaluator{cfg: cfg, engine: features.NewEngine()}
}

// Evaluate scores derived features:
//
//	base − late·count − util·utilization − vol·(volatility / max(avg_bill, 1)) + bonus·consistency
//
// clamped to [0, 100]. Banding happens before the 2 dp rounding.
func (e *Evaluator) Evaluate(f contracts.DerivedFeatureSet) contracts.FinancialHealthResult {
	c := e.cfg

	score := c.Base -
		c.LatePaymentPenalty*float64(f.LatePaymentCount) -
		c.UtilizationPenalty*f.CreditUtilization -
		c.VolatilityPenalty*(f.CashflowVolatility/math.Max(f.AvgBillAmt, 1)) +
		c.ConsistencyBonus*f.PaymentConsistency

	score = clamp(score)

	return contracts.FinancialHealthResult{
		FinancialHealthScore: decimal.NewFromFloat(score).Round(2).InexactFloat64(),
		HealthBand:           e.band(score),
	}
}

// EvaluateRecord derives features from a raw record (caller-supplied derived
// values win) and scores them
func (e *Evaluator) EvaluateRecord(raw contracts.RawApplicantRecord) contracts.FinancialHealthResult {
	derived := e.engine.Compute(raw)
	return e.Evaluate(features.Effective(raw, derived))
}

func (e *Evaluator) band(score float64) contracts.HealthBand {
	switch {
	case score >= e.cfg.StrongMin:
		return contracts.HealthBandStrong
	case score >= e.cfg.ModerateMin:
		return contracts.HealthBandModerate
	default:
		return contracts.HealthBandFragile
	}
}

// clamp bounds score to [0, 100]; NaN counts as 0
func clamp(score float64) float64 {
	switch {
	case math.IsNaN(score):
		return 0
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
