package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/wonny/sycamore/backend/internal/audit"
	"github.com/wonny/sycamore/backend/internal/contracts"
	"github.com/wonny/sycamore/backend/internal/features"
	"github.com/wonny/sycamore/backend/internal/metrics"
	"github.com/wonny/sycamore/backend/pkg/logger"
	"github.com/wonny/sycamore/backend/pkg/redis"
)

// ResultCache stores scoring results by key (pkg/redis.Cache)
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DecisionSink receives every freshly computed decision (audit.Recorder)
type DecisionSink interface {
	Submit(d audit.Decision)
}

// Service wraps the pipeline with the optional result cache and audit log
type Service struct {
	pipeline *Pipeline
	policy   audit.PolicyRef

	cache ResultCache
	ttl   time.Duration
	sink  DecisionSink

	metrics *metrics.Metrics
	log     *logger.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithCache enables result caching; ttl <= 0 disables it
func WithCache(cache ResultCache, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.cache = cache
			s.ttl = ttl
		}
	}
}

// WithAudit sends decisions to sink
func WithAudit(sink DecisionSink) ServiceOption {
	return func(s *Service) { s.sink = sink }
}

// NewService creates a service; policyHash is recorded with each decision
func NewService(p *Pipeline, policyHash string, opts ...ServiceOption) *Service {
	s := &Service{
		pipeline: p,
		policy:   audit.PolicyRef{ID: p.Policy().Meta.PolicyID, Hash: policyHash},
		metrics:  p.metrics,
		log:      p.log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pipeline returns the wrapped pipeline
func (s *Service) Pipeline() *Pipeline {
	return s.pipeline
}

// PolicyHash returns the hash recorded with decisions
func (s *Service) PolicyHash() string {
	return s.policy.Hash
}

// ScoreFields parses and scores one flat record, consulting the cache first
func (s *Service) ScoreFields(ctx context.Context, fields map[string]any) (*contracts.ScoringResult, error) {
	start := time.Now()

	raw, err := features.ParseRecord(fields)
	if err != nil {
		s.metrics.ObserveScoring("credit", metrics.OutcomeValidation, time.Since(start))
		return nil, err
	}

	adapter, err := s.pipeline.models.Current()
	if err != nil {
		s.metrics.ObserveScoring("credit", metrics.OutcomeUnavailable, time.Since(start))
		return nil, err
	}

	key := ""
	if s.cache != nil {
		key = s.cacheKey(adapter.Info().Version, fields)
		if res, ok := s.lookup(ctx, key); ok {
			return res, nil
		}
	}

	res, degraded, err := s.pipeline.scoreWith(ctx, adapter, raw, start)
	if err != nil {
		return nil, err
	}

	// 설명 실패는 일시적일 수 있으므로 캐시하지 않음
	if key != "" && !degraded {
		if err := s.cache.Set(ctx, key, res, s.ttl); err != nil {
			s.log.WithContext(ctx).WithError(err).Warn("Score cache write failed")
		}
	}
	if s.sink != nil {
		s.sink.Submit(audit.NewDecision(res, logger.RequestID(ctx), s.policy))
	}
	return res, nil
}

func (s *Service) lookup(ctx context.Context, key string) (*contracts.ScoringResult, bool) {
	var cached contracts.ScoringResult
	found, err := s.cache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		s.metrics.ObserveCache("error")
		s.log.WithContext(ctx).WithError(err).Warn("Score cache read failed")
		return nil, false
	case !found:
		s.metrics.ObserveCache("miss")
		return nil, false
	default:
		s.metrics.ObserveCache("hit")
		return &cached, true
	}
}

func (s *Service) cacheKey(modelVersion string, fields map[string]any) string {
	return redis.ScoreKey(modelVersion, s.policy.Hash, Digest(fields))
}

// Digest fingerprints a request; encoding/json sorts map keys so equal
// records give equal digests
func Digest(fields map[string]any) string {
	data, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}
