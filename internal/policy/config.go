package policy

// Config는 신용 점수 산출 정책 전체 설정
type Config struct {
	Meta           Meta           `yaml:"meta" json:"meta"`
	RiskTiers      RiskTiers      `yaml:"risk_tiers" json:"risk_tiers"`
	Loans          Loans          `yaml:"loans" json:"loans"`
	Currency       string         `yaml:"currency" json:"currency"`
	Alignment      Alignment      `yaml:"alignment" json:"alignment"`
	Explainability Explainability `yaml:"explainability" json:"explainability"`
	Health         Health         `yaml:"health" json:"health"`
	Investment     Investment     `yaml:"investment" json:"investment"`
}

// Meta 메타 정보
type Meta struct {
	PolicyID string `yaml:"policy_id" json:"policy_id"`
	Version  string `yaml:"version" json:"version"`
}

// RiskTiers PD 구간 경계 (하한 포함)
// pd <= LowMaxPD → LOW, pd <= MediumMaxPD → MEDIUM, else HIGH
type RiskTiers struct {
	LowMaxPD    float64 `yaml:"low_max_pd" json:"low_max_pd"`
	MediumMaxPD float64 `yaml:"medium_max_pd" json:"medium_max_pd"`
}

// Loans 등급별 대출 추천 테이블
type Loans struct {
	Low    LoanTerms `yaml:"low" json:"low"`
	Medium LoanTerms `yaml:"medium" json:"medium"`
	High   LoanTerms `yaml:"high" json:"high"`
}

type LoanTerms struct {
	LimitMultiplier float64 `yaml:"limit_multiplier" json:"limit_multiplier"`
	TenorMonths     int     `yaml:"tenor_months" json:"tenor_months"`
}

// Missing feature policies
const (
	MissingZeroFill = "zero_fill" // 누락 피처 → 0 (가용성 우선)
	MissingStrict   = "strict"    // 누락 피처 → ValidationError
)

// Alignment 피처 정렬 정책
type Alignment struct {
	MissingFeatures string `yaml:"missing_features" json:"missing_features"`
}

// Explainability 설명 출력 설정
type Explainability struct {
	TopN   int               `yaml:"top_n" json:"top_n"`
	Labels map[string]string `yaml:"labels" json:"labels"`
}

// Health 재무 건전성 점수 계수
type Health struct {
	Base               float64 `yaml:"base" json:"base"`
	LatePaymentPenalty float64 `yaml:"late_payment_penalty" json:"late_payment_penalty"`
	UtilizationPenalty float64 `yaml:"utilization_penalty" json:"utilization_penalty"`
	VolatilityPenalty  float64 `yaml:"volatility_penalty" json:"volatility_penalty"`
	ConsistencyBonus   float64 `yaml:"consistency_bonus" json:"consistency_bonus"`
	StrongMin          float64 `yaml:"strong_min" json:"strong_min"`
	ModerateMin        float64 `yaml:"moderate_min" json:"moderate_min"`
}

// Investment 자산 배분 테이블
type Investment struct {
	RetirementAge   int              `yaml:"retirement_age" json:"retirement_age"`
	MinHorizonYears int              `yaml:"min_horizon_years" json:"min_horizon_years"`
	Tiers           []InvestmentTier `yaml:"tiers" json:"tiers"`
}

// InvestmentTier applies when the health score is strictly above AboveScore.
// The last tier has no AboveScore and catches everything else.
type InvestmentTier struct {
	AboveScore    *float64      `yaml:"above_score,omitempty" json:"above_score,omitempty"`
	RiskTolerance string        `yaml:"risk_tolerance" json:"risk_tolerance"`
	Allocation    []AssetWeight `yaml:"allocation" json:"allocation"`
}

type AssetWeight struct {
	Asset string `yaml:"asset" json:"asset"`
	Pct   int    `yaml:"pct" json:"pct"`
}

// TotalPct returns the sum of allocation percentages
func (t InvestmentTier) TotalPct() int {
	total := 0
	for _, a := range t.Allocation {
		total += a.Pct
	}
	return total
}

// LoanTermsFor returns the loan row for a tier name (LOW/MEDIUM/HIGH)
func (l Loans) LoanTermsFor(tier string) LoanTerms {
	switch tier {
	case "LOW":
		return l.Low
	case "MEDIUM":
		return l.Medium
	default:
		return l.High
	}
}

func f64(v float64) *float64 { return &v }

// Default returns the built-in policy used when no policy file is configured
func Default() *Config {
	return &Config{
		Meta: Meta{
			PolicyID: "sycamore_default",
			Version:  "1.0.3",
		},
		RiskTiers: RiskTiers{
			LowMaxPD:    0.25,
			MediumMaxPD: 0.55,
		},
		Loans: Loans{
			Low:    LoanTerms{LimitMultiplier: 1.5, TenorMonths: 36},
			Medium: LoanTerms{LimitMultiplier: 0.8, TenorMonths: 24},
			High:   LoanTerms{LimitMultiplier: 0.2, TenorMonths: 12},
		},
		Currency: "NGN",
		Alignment: Alignment{
			MissingFeatures: MissingZeroFill,
		},
		Explainability: Explainability{
			TopN: 3,
			Labels: map[string]string{
				"PAY_0":               "Recent Payment Status",
				"LIMIT_BAL":           "Credit Limit",
				"credit_utilization":  "Credit Utilization",
				"payment_consistency": "Payment Consistency",
			},
		},
		Health: Health{
			Base:               100,
			LatePaymentPenalty: 10,
			UtilizationPenalty: 25,
			VolatilityPenalty:  20,
			ConsistencyBonus:   20,
			StrongMin:          80,
			ModerateMin:        50,
		},
		Investment: Investment{
			RetirementAge:   60,
			MinHorizonYears: 5,
			Tiers: []InvestmentTier{
				{
					AboveScore:    f64(80),
					RiskTolerance: "Aggressive",
					Allocation:    []AssetWeight{{"Stocks", 70}, {"Bonds", 20}, {"Cash", 10}},
				},
				{
					AboveScore:    f64(50),
					RiskTolerance: "Moderate",
					Allocation:    []AssetWeight{{"Stocks", 50}, {"Bonds", 40}, {"Cash", 10}},
				},
				{
					RiskTolerance: "Conservative",
					Allocation:    []AssetWeight{{"Stocks", 20}, {"Bonds", 60}, {"Cash", 20}},
				},
			},
		},
	}
}
