package contracts

import (
	"context"
)

// FeatureEngine derives statistical features from a raw record
// ⭐ SSOT: 파생 변수 계산 인터페이스
type FeatureEngine interface {
	Compute(raw RawApplicantRecord) DerivedFeatureSet
}

// CreditScorer turns a raw record into a scoring result
// ⭐ SSOT: 신용 점수 산출 인터페이스
type CreditScorer interface {
	Score(ctx context.Context, raw RawApplicantRecord) (*ScoringResult, error)
}

// HealthEvaluator scores financial health from derived features
// ⭐ SSOT: 재무 건전성 평가 인터페이스
type HealthEvaluator interface {
	Evaluate(features DerivedFeatureSet) FinancialHealthResult
}

// InvestmentAdvisor recommends an allocation from health score and age
// ⭐ SSOT: 자산 배분 추천 인터페이스
type InvestmentAdvisor interface {
	Advise(financialHealthScore float64, age int) InvestmentProfile
}
