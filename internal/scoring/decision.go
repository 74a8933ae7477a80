package scoring

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/internal/policy"
)

// CreditScore maps PD to 0~100 with round half to even
func CreditScore(pd float64) int {
	return int(math.RoundToEven((1 - pd) * 100))
}

// Tier buckets PD; both boundaries are inclusive on the lower tier
func Tier(pd float64, rt policy.RiskTiers) contracts.RiskTier {
	switch {
	case pd <= rt.LowMaxPD:
		return contracts.RiskTierLow
	case pd <= rt.MediumMaxPD:
		return contracts.RiskTierMedium
	default:
		return contracts.RiskTierHigh
	}
}

// LoanOffer returns the recommended amount (2 dp, never negative) and tenor
// ⭐ SSOT: 금액 계산은 decimal로만 (float 누적 오차 방지)
func LoanOffer(limit float64, tier contracts.RiskTier, loans policy.Loans) (float64, int) {
	terms := loans.LoanTermsFor(string(tier))

	if math.IsNaN(limit) || math.IsInf(limit, 0) {
		return 0, terms.TenorMonths
	}

	amount := decimal.NewFromFloat(limit).
		Mul(decimal.NewFromFloat(terms.LimitMultiplier)).
		Round(2)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.InexactFloat64(), terms.TenorMonths
}
