package advisor

import (
	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/internal/policy"
)

// Advisor maps a financial health score and age to an allocation
// ⭐ SSOT: 자산 배분 규칙은 정책 테이블에서만
type Advisor struct {
	cfg policy.Investment
}

var _ contracts.InvestmentAdvisor = (*Advisor)(nil)

// New creates an advisor. An empty tier table falls back to the default one.
func New(cfg policy.Investment) *Advisor {
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = policy.Default().Investment.Tiers
	}
	return &Advisor{cfg: cfg}
}

// Advise picks the first tier whose above_score the score strictly exceeds;
// the last tier catches the rest
func (a *Advisor) Advise(financialHealthScore float64, age int) contracts.InvestmentProfile {
	tier := a.tierFor(financialHealthScore)

	allocation := make(map[string]int, len(tier.Allocation))
	for _, w := range tier.Allocation {
		allocation[w.Asset] = w.Pct
	}

	return contracts.InvestmentProfile{
		RiskTolerance:       contracts.RiskTolerance(tier.RiskTolerance),
		InvestmentHorizon:   a.Horizon(age),
		PortfolioAllocation: allocation,
	}
}

// Horizon returns years to retirement, never below the policy minimum
func (a *Advisor) Horizon(age int) int {
	return max(a.cfg.RetirementAge-age, a.cfg.MinHorizonYears)
}

func (a *Advisor) tierFor(score float64) policy.InvestmentTier {
	tiers := a.cfg.Tiers
	for _, t := range tiers {
		if t.AboveScore == nil || score > *t.AboveScore {
			return t
		}
	}
	return tiers[len(tiers)-1]
}
