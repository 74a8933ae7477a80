package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/internal/metrics"
	"github.com/wonny/sycamore/backend/internal/model"
	"github.com/wonny/sycamore/backend/internal/policy"
)

type stubClassifier struct {
	pd  float64
	err error
}

func (s *stubClassifier) PredictProba(context.Context, []float64) (float64, error) {
	return s.pd, s.err
}

func (s *stubClassifier) FeatureNames() []string { return contracts.ExpectedFeatures }

func (s *stubClassifier) Backend() string { return "stub" }

// stubAttributor gives PAY_0 a positive and LIMIT_BAL a negative contribution
type stubAttributor struct {
	err error
}

func (s *stubAttributor) Attribute(_ context.Context, row []float64) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(row))
	out[0] = -0.3 // LIMIT_BAL
	out[5] = 0.7  // PAY_0
	return out, nil
}

type staticSource struct {
	adapter *model.Adapter
}

func (s staticSource) Current() (*model.Adapter, error) {
	if s.adapter == nil {
		return nil, &contracts.ModelUnavailableError{}
	}
	return s.adapter, nil
}

func newStubPipeline(t *testing.T, c model.Classifier, a model.Attributor, m *metrics.Metrics) *Pipeline {
	t.Helper()
	adapter, err := model.NewAdapter(c, a, policy.MissingZeroFill, model.Info{Version: "stub-v1"})
	require.NoError(t, err)
	return NewPipeline(staticSource{adapter: adapter}, nil, m, nil)
}

func fp(v float64) *float64 { return &v }

func applicant() contracts.RawApplicantRecord {
	return contracts.RawApplicantRecord{
		LimitBal:  10000,
		Age:       35,
		Sex:       1,
		Education: 2,
		Marriage:  1,
		PayStatus: [6]int{0, 0, 0, 0, 0, 0},
		BillAmt:   [6]*float64{fp(2000), fp(1800), fp(2100), fp(1900), fp(2000), fp(2200)},
		PayAmt:    [6]*float64{fp(2000), fp(1800), fp(2100), fp(1900), fp(2000), fp(2200)},
	}
}

func TestPipeline_Score(t *testing.T) {
	m := metrics.New()
	p := newStubPipeline(t, &stubClassifier{pd: 0.10}, &stubAttributor{}, m)

	res, err := p.Score(context.Background(), applicant())
	require.NoError(t, err)

	assert.Equal(t, 90, res.CreditScore)
	assert.Equal(t, 0.10, res.ProbabilityOfDefault)
	assert.Equal(t, contracts.RiskTierLow, res.RiskTier)
	assert.Equal(t, 15000.0, res.RecommendedLoanAmount)
	assert.Equal(t, 36, res.RecommendedTenorMonths)
	assert.Equal(t, "NGN", res.Currency)
	assert.Equal(t, "stub-v1", res.ModelVersion)
	assert.Len(t, res.DerivedFeatures, len(contracts.ExpectedFeatures))

	require.Len(t, res.Explainability.TopPositiveFactors, 1)
	assert.Equal(t, "Recent Payment Status", res.Explainability.TopPositiveFactors[0].Feature)
	require.Len(t, res.Explainability.TopNegativeFactors, 1)
	assert.Equal(t, -0.3, res.Explainability.TopNegativeFactors[0].Impact)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScoringRequests.WithLabelValues("credit", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RiskTiers.WithLabelValues("LOW")))
}

func TestPipeline_ExplainFailureDegrades(t *testing.T) {
	m := metrics.New()
	p := newStubPipeline(t, &stubClassifier{pd: 0.4}, &stubAttributor{err: errors.New("boom")}, m)

	res, err := p.Score(context.Background(), applicant())
	require.NoError(t, err)

	assert.Equal(t, contracts.RiskTierMedium, res.RiskTier)
	assert.Equal(t, 60, res.CreditScore)
	assert.NotNil(t, res.Explainability.TopPositiveFactors)
	assert.Empty(t, res.Explainability.TopPositiveFactors)
	assert.Empty(t, res.Explainability.TopNegativeFactors)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExplainFailures))
}

func TestPipeline_NoExplainer(t *testing.T) {
	m := metrics.New()
	p := newStubPipeline(t, &stubClassifier{pd: 0.9}, nil, m)

	res, err := p.Score(context.Background(), applicant())
	require.NoError(t, err)

	assert.Equal(t, contracts.RiskTierHigh, res.RiskTier)
	assert.Empty(t, res.Explainability.TopPositiveFactors)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ExplainFailures))
}

func TestPipeline_InferenceErrorPropagates(t *testing.T) {
	m := metrics.New()
	p := newStubPipeline(t, &stubClassifier{err: errors.New("backend down")}, &stubAttributor{}, m)

	res, err := p.Score(context.Background(), applicant())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, contracts.IsInference(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScoringRequests.WithLabelValues("credit", metrics.OutcomeInference)))
}

func TestPipeline_ModelUnavailable(t *testing.T) {
	p := NewPipeline(staticSource{}, nil, nil, nil)

	_, err := p.Score(context.Background(), applicant())
	require.Error(t, err)
	assert.True(t, contracts.IsModelUnavailable(err))
}

func TestPipeline_ScoreFieldsValidation(t *testing.T) {
	p := newStubPipeline(t, &stubClassifier{pd: 0.1}, nil, nil)

	_, err := p.ScoreFields(context.Background(), map[string]any{"LIMIT_BAL": "lots"})
	require.Error(t, err)
	assert.True(t, contracts.IsValidation(err))
}

func TestPipeline_PolicyOverrides(t *testing.T) {
	pol := policy.Default()
	pol.Currency = "USD"
	pol.RiskTiers.LowMaxPD = 0.05

	adapter, err := model.NewAdapter(&stubClassifier{pd: 0.10}, nil, "", model.Info{})
	require.NoError(t, err)
	p := NewPipeline(staticSource{adapter: adapter}, pol, nil, nil)

	res, err := p.Score(context.Background(), applicant())
	require.NoError(t, err)
	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, contracts.RiskTierMedium, res.RiskTier)
	assert.Equal(t, 8000.0, res.RecommendedLoanAmount)
}

// 실제 XGBoost 아티팩트로 동일 입력 → 동일 결과 확인
func TestPipeline_DeterministicWithTreeModel(t *testing.T) {
	reg := model.NewRegistry(model.Options{}, nil)
	ok, err := reg.Load(context.Background(), "../model/testdata/credit_xgb.json", "../model/testdata/explainer_tree.json")
	require.NoError(t, err)
	require.True(t, ok)

	p := NewPipeline(reg, nil, nil, nil)

	first, err := p.Score(context.Background(), applicant())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.Score(context.Background(), applicant())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	assert.GreaterOrEqual(t, first.CreditScore, 0)
	assert.LessOrEqual(t, first.CreditScore, 100)
	assert.Equal(t, CreditScore(first.ProbabilityOfDefault), first.CreditScore)
}
