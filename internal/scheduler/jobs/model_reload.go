package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/sycamore/backend/internal/metrics"
	"github.com/wonny/sycamore/backend/internal/model"
	"github.com/wonny/sycamore/backend/pkg/logger"
	"github.com/wonny/sycamore/backend/pkg/redis"
)

// Reload results recorded in metrics
const (
	ReloadSwapped   = "swapped"
	ReloadUnchanged = "unchanged"
	ReloadMissing   = "missing"
	ReloadFailed    = "failed"
)

// ModelSource is the part of model.Registry the job needs
type ModelSource interface {
	Reload(ctx context.Context) (bool, error)
	Current() (*model.Adapter, error)
}

// CachePurger drops cached results of a retired model version
type CachePurger interface {
	Purge(ctx context.Context, pattern string) (int, error)
}

// ModelReloadJob re-reads the model artifact and swaps it in.
// 실패 시 기존 모델 유지 (레지스트리 보장)
type ModelReloadJob struct {
	models   ModelSource
	cache    CachePurger
	metrics  *metrics.Metrics
	logger   *logger.Logger
	schedule string
}

// NewModelReloadJob creates the reload job. cache and m may be nil.
func NewModelReloadJob(models ModelSource, cache CachePurger, m *metrics.Metrics, schedule string, log *logger.Logger) *ModelReloadJob {
	if log == nil {
		log = logger.Nop()
	}
	return &ModelReloadJob{
		models:   models,
		cache:    cache,
		metrics:  m,
		logger:   log,
		schedule: schedule,
	}
}

// Name returns the job name
func (j *ModelReloadJob) Name() string {
	return "model_reload"
}

// Schedule returns the configured cron expression
func (j *ModelReloadJob) Schedule() string {
	return j.schedule
}

// Run executes one reload
func (j *ModelReloadJob) Run(ctx context.Context) error {
	_, err := j.Reload(ctx)
	return err
}

// Reload swaps the model and reports the outcome (also used by POST /api/model/reload)
func (j *ModelReloadJob) Reload(ctx context.Context) (string, error) {
	before := currentVersion(j.models)

	loaded, err := j.models.Reload(ctx)
	switch {
	case err != nil:
		j.metrics.ObserveReload(ReloadFailed)
		return ReloadFailed, fmt.Errorf("model reload: %w", err)
	case !loaded:
		j.metrics.ObserveReload(ReloadMissing)
		j.logger.Warn("Model artifact missing, keeping current model")
		return ReloadMissing, nil
	}

	after := currentVersion(j.models)
	if after == before {
		j.metrics.ObserveReload(ReloadUnchanged)
		j.logger.WithField("version", after).Debug("Model unchanged")
		return ReloadUnchanged, nil
	}

	j.metrics.ObserveReload(ReloadSwapped)
	j.logger.WithFields(map[string]interface{}{
		"from": before,
		"to":   after,
	}).Info("Model swapped")

	if j.cache != nil && before != "" {
		removed, err := j.cache.Purge(ctx, redis.ScorePattern(before))
		if err != nil {
			j.logger.WithError(err).Warn("Failed to purge cached scores")
		} else if removed > 0 {
			j.logger.WithField("removed", removed).Info("Purged cached scores of previous model")
		}
	}
	return ReloadSwapped, nil
}

func currentVersion(models ModelSource) string {
	a, err := models.Current()
	if err != nil {
		return ""
	}
	return a.Info().Version
}
