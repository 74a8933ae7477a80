package health

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/internal/policy"
)

func TestEvaluate_StrongScenario(t *testing.T) {
	e := New(policy.Default().Health)

	got := e.Evaluate(contracts.DerivedFeatureSet{
		LatePaymentCount:   2,
		CreditUtilization:  0.5,
		CashflowVolatility: 0,
		AvgBillAmt:         1000,
		PaymentConsistency: 1,
	})

	assert.Equal(t, 87.5, got.FinancialHealthScore)
	assert.Equal(t, contracts.HealthBandStrong, got.HealthBand)
}

func TestEvaluate_Bands(t *testing.T) {
	e := New(policy.Default().Health)

	tests := []struct {
		name string
		in   contracts.DerivedFeatureSet
		want contracts.HealthBand
	}{
		{"exactly 80", contracts.DerivedFeatureSet{LatePaymentCount: 2}, contracts.HealthBandStrong},
		{"just under 80", contracts.DerivedFeatureSet{LatePaymentCount: 2, CreditUtilization: 0.01}, contracts.HealthBandModerate},
		{"exactly 50", contracts.DerivedFeatureSet{LatePaymentCount: 5}, contracts.HealthBandModerate},
		{"fragile", contracts.DerivedFeatureSet{LatePaymentCount: 6}, contracts.HealthBandFragile},
	}

	for _, tt := range tests {
		got := e.Evaluate(tt.in)
		if got.HealthBand != tt.want {
			t.Errorf("%s: band = %s (score %v), want %s", tt.name, got.HealthBand, got.FinancialHealthScore, tt.want)
		}
	}
}

func TestEvaluate_ClampedForExtremeInputs(t *testing.T) {
	e := New(policy.Default().Health)

	inputs := []contracts.DerivedFeatureSet{
		{LatePaymentCount: 6, CreditUtilization: 1.5, CashflowVolatility: 1e9, AvgBillAmt: 0},
		{PaymentConsistency: 2},
		{PaymentConsistency: 2, AvgBillAmt: -500, CashflowVolatility: 0},
		{CashflowVolatility: math.Inf(1)},
		{CreditUtilization: math.NaN()},
		{PaymentConsistency: math.Inf(1), CashflowVolatility: math.Inf(1)},
	}

	for i, in := range inputs {
		got := e.Evaluate(in)
		assert.GreaterOrEqual(t, got.FinancialHealthScore, 0.0, "input %d", i)
		assert.LessOrEqual(t, got.FinancialHealthScore, 100.0, "input %d", i)
	}

	assert.Equal(t, 0.0, e.Evaluate(inputs[0]).FinancialHealthScore)
	assert.Equal(t, 100.0, e.Evaluate(inputs[1]).FinancialHealthScore)
}

func TestEvaluate_RoundsToCents(t *testing.T) {
	e := New(policy.Default().Health)

	got := e.Evaluate(contracts.DerivedFeatureSet{CreditUtilization: 1.0 / 3})
	assert.Equal(t, 91.67, got.FinancialHealthScore)
}

func TestEvaluateRecord_RespectsSuppliedFeatures(t *testing.T) {
	e := New(policy.Default().Health)

	raw := contracts.RawApplicantRecord{
		LimitBal:  10000,
		PayStatus: [6]int{2, 2, 0, 0, 0, 0},
		Precomputed: map[string]float64{
			contracts.FeatureCreditUtilization:  0.5,
			contracts.FeaturePaymentConsistency: 1,
			contracts.FeatureAvgBillAmt:         1000,
		},
	}

	got := e.EvaluateRecord(raw)
	assert.Equal(t, 87.5, got.FinancialHealthScore)
	assert.Equal(t, contracts.HealthBandStrong, got.HealthBand)
}
