package contracts

// RiskTier is the coarse bucketing of probability of default
type RiskTier string

const (
	RiskTierLow    RiskTier = "LOW"
	RiskTierMedium RiskTier = "MEDIUM"
	RiskTierHigh   RiskTier = "HIGH"
)

// Factor is one explained feature contribution
type Factor struct {
	Feature string  `json:"feature"` // human readable label
	Impact  float64 `json:"impact"`  // signed contribution (log-odds)
}

// Explainability holds the ranked attributions of one prediction
type Explainability struct {
	TopPositiveFactors []Factor `json:"top_positive_factors"`
	TopNegativeFactors []Factor `json:"top_negative_factors"`
}

// EmptyExplainability returns explainability with empty (non-nil) lists
func EmptyExplainability() Explainability {
	return Explainability{
		TopPositiveFactors: []Factor{},
		TopNegativeFactors: []Factor{},
	}
}

// ScoringResult is the outcome of scoring one applicant
type ScoringResult struct {
	CreditScore            int            `json:"credit_score"` // 0~100
	ProbabilityOfDefault   float64        `json:"probability_of_default"`
	RiskTier               RiskTier       `json:"risk_tier"`
	RecommendedLoanAmount  float64        `json:"recommended_loan_amount"`
	RecommendedTenorMonths int            `json:"recommended_tenor_months"`
	Currency               string         `json:"currency"`
	Explainability         Explainability `json:"explainability"`

	DerivedFeatures map[string]float64 `json:"derived_features,omitempty"`
	ModelVersion    string             `json:"model_version,omitempty"`
}

// HealthBand classifies a financial health score
type HealthBand string

const (
	HealthBandStrong   HealthBand = "Strong"
	HealthBandModerate HealthBand = "Moderate"
	HealthBandFragile  HealthBand = "Fragile"
)

// FinancialHealthResult is the rule-based financial health outcome
type FinancialHealthResult struct {
	FinancialHealthScore float64    `json:"financial_health_score"` // 0~100
	HealthBand           HealthBand `json:"health_band"`
}

// RiskTolerance is the investor risk appetite
type RiskTolerance string

const (
	RiskToleranceConservative RiskTolerance = "Conservative"
	RiskToleranceModerate     RiskTolerance = "Moderate"
	RiskToleranceAggressive   RiskTolerance = "Aggressive"
)

// InvestmentProfile is the recommended allocation for an applicant
type InvestmentProfile struct {
	RiskTolerance       RiskTolerance  `json:"risk_tolerance"`
	InvestmentHorizon   int            `json:"investment_horizon"` // years
	PortfolioAllocation map[string]int `json:"portfolio_allocation"`
}

// AllocationTotal returns the sum of allocation percentages
func (p InvestmentProfile) AllocationTotal() int {
	total := 0
	for _, pct := range p.PortfolioAllocation {
		total += pct
	}
	return total
}
