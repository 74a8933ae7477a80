package scoring

import (
	"context"
	"time"

	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/internal/explain"
	"github.com/wonny/sycamore/backend/internal/features"
	"github.com/wonny/sycamore/backend/internal/metrics"
	"github.com/wonny/sycamore/backend/internal/model"
	"github.com/wonny/sycamore/backend/internal/policy"
	"github.com/wonny/sycamore/backend/pkg/logger"
)

// AdapterSource hands out the current model snapshot
type AdapterSource interface {
	Current() (*model.Adapter, error)
}

// Pipeline scores one applicant end to end
// ⭐ SSOT: 신용 점수 산출 흐름은 여기서만
type Pipeline struct {
	engine    contracts.FeatureEngine
	models    AdapterSource
	explainer *explain.Explainer
	policy    *policy.Config
	metrics   *metrics.Metrics
	log       *logger.Logger
}

var _ contracts.CreditScorer = (*Pipeline)(nil)

// NewPipeline creates a pipeline. pol nil means policy.Default(); m may be nil.
func NewPipeline(models AdapterSource, pol *policy.Config, m *metrics.Metrics, log *logger.Logger) *Pipeline {
	if pol == nil {
		pol = policy.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		engine:    features.NewEngine(),
		models:    models,
		explainer: explain.New(pol.Explainability),
		policy:    pol,
		metrics:   m,
		log:       log.Component("scoring"),
	}
}

// Policy returns the active scoring policy
func (p *Pipeline) Policy() *policy.Config {
	return p.policy
}

// ScoreFields parses a flat key→value record and scores it
func (p *Pipeline) ScoreFields(ctx context.Context, fields map[string]any) (*contracts.ScoringResult, error) {
	raw, err := features.ParseRecord(fields)
	if err != nil {
		p.metrics.ObserveScoring("credit", metrics.OutcomeValidation, 0)
		return nil, err
	}
	return p.Score(ctx, raw)
}

// Score runs features → predict → decision → explanation.
// Prediction failures are returned as-is; explanation failures only empty the factor lists.
func (p *Pipeline) Score(ctx context.Context, raw contracts.RawApplicantRecord) (*contracts.ScoringResult, error) {
	start := time.Now()

	// 요청당 스냅샷 1개 (predict/explain 동일 모델 보장)
	adapter, err := p.models.Current()
	if err != nil {
		p.metrics.ObserveScoring("credit", metrics.OutcomeUnavailable, time.Since(start))
		return nil, err
	}
	res, _, err := p.scoreWith(ctx, adapter, raw, start)
	return res, err
}

// scoreWith also reports whether the explanation degraded on an attribution
// failure; such results must not be cached
func (p *Pipeline) scoreWith(ctx context.Context, adapter *model.Adapter, raw contracts.RawApplicantRecord, start time.Time) (*contracts.ScoringResult, bool, error) {
	derived := p.engine.Compute(raw)
	vec := features.Vector(raw, derived)
	vector := features.ToAny(vec)

	pd, err := adapter.Predict(ctx, vector)
	if err != nil {
		p.metrics.ObserveScoring("credit", outcomeOf(err), time.Since(start))
		p.log.WithContext(ctx).WithError(err).Warn("Credit prediction failed")
		return nil, false, err
	}

	tier := Tier(pd, p.policy.RiskTiers)
	amount, tenor := LoanOffer(raw.LimitBal, tier, p.policy.Loans)
	exp, degraded := p.explanation(ctx, adapter, vector)

	result := &contracts.ScoringResult{
		CreditScore:            CreditScore(pd),
		ProbabilityOfDefault:   pd,
		RiskTier:               tier,
		RecommendedLoanAmount:  amount,
		RecommendedTenorMonths: tenor,
		Currency:               p.policy.Currency,
		Explainability:         exp,
		DerivedFeatures:        vec,
		ModelVersion:           adapter.Info().Version,
	}

	p.metrics.ObserveScoring("credit", metrics.OutcomeOK, time.Since(start))
	p.metrics.ObserveTier(string(tier))

	p.log.WithContext(ctx).WithFields(map[string]interface{}{
		"credit_score": result.CreditScore,
		"risk_tier":    result.RiskTier,
		"model":        result.ModelVersion,
	}).Debug("Applicant scored")

	return result, degraded, nil
}

func (p *Pipeline) explanation(ctx context.Context, adapter *model.Adapter, vector map[string]any) (contracts.Explainability, bool) {
	if !adapter.HasExplainer() {
		return contracts.EmptyExplainability(), false
	}

	exp, err := p.explainer.Explain(ctx, adapter, vector)
	if err != nil {
		p.metrics.ExplainFailed()
		p.log.WithContext(ctx).WithError(err).Warn("Explainability unavailable, returning empty factors")
		return exp, true
	}
	return exp, false
}

func outcomeOf(err error) string {
	switch {
	case contracts.IsValidation(err):
		return metrics.OutcomeValidation
	case contracts.IsModelUnavailable(err):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeInference
	}
}
