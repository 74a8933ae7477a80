package policy

import (
	"fmt"
	"strings"
)

// ValidationError 정책 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var riskTolerances = map[string]bool{
	"Conservative": true,
	"Moderate":     true,
	"Aggressive":   true,
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.PolicyID == "" {
		return ValidationError{"meta.policy_id", "required"}
	}

	// === Risk tiers ===
	rt := cfg.RiskTiers
	if rt.LowMaxPD <= 0 || rt.LowMaxPD >= 1 {
		return ValidationError{"risk_tiers.low_max_pd", "must be in (0, 1)"}
	}
	if rt.MediumMaxPD <= rt.LowMaxPD || rt.MediumMaxPD >= 1 {
		return ValidationError{"risk_tiers.medium_max_pd", "must be in (low_max_pd, 1)"}
	}

	// === Loans ===
	for name, terms := range map[string]LoanTerms{
		"loans.low":    cfg.Loans.Low,
		"loans.medium": cfg.Loans.Medium,
		"loans.high":   cfg.Loans.High,
	} {
		if terms.LimitMultiplier < 0 {
			return ValidationError{name + ".limit_multiplier", "must be >= 0"}
		}
		if terms.TenorMonths <= 0 {
			return ValidationError{name + ".tenor_months", "must be > 0"}
		}
	}

	if strings.TrimSpace(cfg.Currency) == "" {
		return ValidationError{"currency", "required"}
	}

	// === Alignment ===
	switch cfg.Alignment.MissingFeatures {
	case MissingZeroFill, MissingStrict:
	default:
		return ValidationError{"alignment.missing_features", fmt.Sprintf("must be %s or %s", MissingZeroFill, MissingStrict)}
	}

	// === Explainability ===
	if cfg.Explainability.TopN < 1 {
		return ValidationError{"explainability.top_n", "must be >= 1"}
	}

	// === Health ===
	h := cfg.Health
	if h.ModerateMin >= h.StrongMin {
		return ValidationError{"health", "moderate_min must be < strong_min"}
	}
	if h.LatePaymentPenalty < 0 || h.UtilizationPenalty < 0 || h.VolatilityPenalty < 0 || h.ConsistencyBonus < 0 {
		return ValidationError{"health", "penalties and bonus must be >= 0"}
	}

	// === Investment ===
	return validateInvestment(cfg.Investment)
}

func validateInvestment(inv Investment) error {
	if inv.MinHorizonYears < 0 {
		return ValidationError{"investment.min_horizon_years", "must be >= 0"}
	}
	if len(inv.Tiers) == 0 {
		return ValidationError{"investment.tiers", "required"}
	}

	prev := 0.0
	for i, tier := range inv.Tiers {
		field := fmt.Sprintf("investment.tiers[%d]", i)
		last := i == len(inv.Tiers)-1

		// 마지막 티어만 above_score 없이 나머지를 모두 받음
		if last && tier.AboveScore != nil {
			return ValidationError{field + ".above_score", "last tier must not set above_score"}
		}
		if !last {
			if tier.AboveScore == nil {
				return ValidationError{field + ".above_score", "required on all but the last tier"}
			}
			if i > 0 && *tier.AboveScore >= prev {
				return ValidationError{field + ".above_score", "tiers must be in descending score order"}
			}
			prev = *tier.AboveScore
		}

		if !riskTolerances[tier.RiskTolerance] {
			return ValidationError{field + ".risk_tolerance", "must be Conservative, Moderate or Aggressive"}
		}
		if len(tier.Allocation) == 0 {
			return ValidationError{field + ".allocation", "required"}
		}
		seen := make(map[string]bool)
		for _, a := range tier.Allocation {
			if a.Pct < 0 {
				return ValidationError{field + ".allocation", fmt.Sprintf("%s pct must be >= 0", a.Asset)}
			}
			if seen[a.Asset] {
				return ValidationError{field + ".allocation", fmt.Sprintf("duplicate asset %s", a.Asset)}
			}
			seen[a.Asset] = true
		}
		if total := tier.TotalPct(); total != 100 {
			return ValidationError{field + ".allocation", fmt.Sprintf("must sum to 100, got %d", total)}
		}
	}

	return nil
}
