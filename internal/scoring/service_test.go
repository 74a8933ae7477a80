package scoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sycamore/backend/internal/audit"
	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/internal/metrics"
	"github.com/wonny/sycamore/backend/pkg/logger"
	"github.com/wonny/sycamore/backend/pkg/redis"
)

// countingClassifier counts predictions to detect cache hits
type countingClassifier struct {
	stubClassifier
	mu    sync.Mutex
	calls int
}

func (c *countingClassifier) PredictProba(ctx context.Context, row []float64) (float64, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.stubClassifier.PredictProba(ctx, row)
}

type sinkRecorder struct {
	mu        sync.Mutex
	decisions []audit.Decision
}

func (s *sinkRecorder) Submit(d audit.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, d)
}

func applicantFields() map[string]any {
	return map[string]any{
		"LIMIT_BAL": 10000.0, "AGE": 35.0, "SEX": 1.0, "EDUCATION": 2.0, "MARRIAGE": 1.0,
		"PAY_0": 0.0, "PAY_2": 0.0, "PAY_3": 0.0, "PAY_4": 0.0, "PAY_5": 0.0, "PAY_6": 0.0,
		"BILL_AMT1": 2000.0, "PAY_AMT1": 2000.0,
	}
}

func newTestCache(t *testing.T) *redis.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return redis.NewCache(redis.NewFromClient(rdb), "test")
}

func TestService_CachesByRequest(t *testing.T) {
	m := metrics.New()
	clf := &countingClassifier{stubClassifier: stubClassifier{pd: 0.10}}
	p := newStubPipeline(t, clf, &stubAttributor{}, m)
	svc := NewService(p, "policyhash", WithCache(newTestCache(t), time.Minute))

	ctx := context.Background()
	first, err := svc.ScoreFields(ctx, applicantFields())
	require.NoError(t, err)
	second, err := svc.ScoreFields(ctx, applicantFields())
	require.NoError(t, err)

	assert.Equal(t, 1, clf.calls)
	assert.Equal(t, first.CreditScore, second.CreditScore)
	assert.Equal(t, first.Explainability, second.Explainability)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))

	changed := applicantFields()
	changed["LIMIT_BAL"] = 20000.0
	third, err := svc.ScoreFields(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, 2, clf.calls)
	assert.Equal(t, 30000.0, third.RecommendedLoanAmount)
}

func TestService_AuditsFreshDecisions(t *testing.T) {
	sink := &sinkRecorder{}
	p := newStubPipeline(t, &stubClassifier{pd: 0.10}, nil, nil)
	svc := NewService(p, "policyhash", WithAudit(sink))

	ctx := logger.ContextWithRequestID(context.Background(), "req-7")
	_, err := svc.ScoreFields(ctx, applicantFields())
	require.NoError(t, err)

	require.Len(t, sink.decisions, 1)
	d := sink.decisions[0]
	assert.Equal(t, "req-7", d.RequestID)
	assert.Equal(t, "policyhash", d.PolicyHash)
	assert.Equal(t, "sycamore_default", d.PolicyID)
	assert.Equal(t, "stub-v1", d.ModelVersion)
	assert.Equal(t, 90, d.CreditScore)
}

func TestService_FailuresAreNotCachedOrAudited(t *testing.T) {
	sink := &sinkRecorder{}
	p := newStubPipeline(t, &stubClassifier{pd: 1.5}, nil, nil) // 범위 밖 → InferenceError
	svc := NewService(p, "h", WithAudit(sink), WithCache(newTestCache(t), time.Minute))

	_, err := svc.ScoreFields(context.Background(), applicantFields())
	require.Error(t, err)
	assert.True(t, contracts.IsInference(err))
	assert.Empty(t, sink.decisions)

	_, err = svc.ScoreFields(context.Background(), map[string]any{})
	assert.True(t, contracts.IsValidation(err))
}

func TestService_ZeroTTLDisablesCache(t *testing.T) {
	clf := &countingClassifier{stubClassifier: stubClassifier{pd: 0.3}}
	p := newStubPipeline(t, clf, nil, nil)
	svc := NewService(p, "h", WithCache(newTestCache(t), 0))

	for i := 0; i < 3; i++ {
		_, err := svc.ScoreFields(context.Background(), applicantFields())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, clf.calls)
}

func TestDigest_StableAcrossKeyOrder(t *testing.T) {
	a := map[string]any{"LIMIT_BAL": 1.0, "AGE": 30.0}
	b := map[string]any{"AGE": 30.0, "LIMIT_BAL": 1.0}
	assert.Equal(t, Digest(a), Digest(b))
	assert.NotEqual(t, Digest(a), Digest(map[string]any{"AGE": 31.0, "LIMIT_BAL": 1.0}))
	assert.Len(t, Digest(a), 32)
}

func TestService_DegradedExplanationIsNotCached(t *testing.T) {
	m := metrics.New()
	clf := &countingClassifier{stubClassifier: stubClassifier{pd: 0.10}}
	attr := &stubAttributor{err: errors.New("explain timeout")}
	p := newStubPipeline(t, clf, attr, m)
	svc := NewService(p, "policyhash", WithCache(newTestCache(t), time.Minute))
	ctx := context.Background()

	degraded, err := svc.ScoreFields(ctx, applicantFields())
	require.NoError(t, err)
	assert.Empty(t, degraded.Explainability.TopPositiveFactors)

	// 설명기가 회복되면 다음 요청은 다시 계산
	attr.err = nil
	recovered, err := svc.ScoreFields(ctx, applicantFields())
	require.NoError(t, err)
	assert.NotEmpty(t, recovered.Explainability.TopPositiveFactors)
	assert.Equal(t, 2, clf.calls)

	cached, err := svc.ScoreFields(ctx, applicantFields())
	require.NoError(t, err)
	assert.Equal(t, recovered.Explainability, cached.Explainability)
	assert.Equal(t, 2, clf.calls)
}
