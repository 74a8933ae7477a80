package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/sycamore/backend/internal/advisor"
	"github.com/wonny/sycamore/backend/internal/api/handlers"
	"github.com/wonny/sycamore/backend/internal/audit"
	"github.com/wonny/sycamore/backend/internal/health"
	"github.com/wonny/sycamore/backend/internal/metrics"
	"github.com/wonny/sycamore/backend/internal/model"
	"github.com/wonny/sycamore/backend/internal/policy"
	"github.com/wonny/sycamore/backend/internal/scheduler"
	"github.com/wonny/sycamore/backend/internal/scheduler/jobs"
	"github.com/wonny/sycamore/backend/internal/scoring"
	"github.com/wonny/sycamore/backend/pkg/config"
	"github.com/wonny/sycamore/backend/pkg/database"
	"github.com/wonny/sycamore/backend/pkg/httputil"
	"github.com/wonny/sycamore/backend/pkg/logger"
	"github.com/wonny/sycamore/backend/pkg/redis"
)

// auditQueueSize bounds decisions waiting for the database
const auditQueueSize = 1024

// app holds every wired component of one process
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	policy     *policy.Config
	policyHash string
	metrics    *metrics.Metrics

	models   *model.Registry
	pipeline *scoring.Pipeline
	service  *scoring.Service
	health   *health.Evaluator
	advisor  *advisor.Advisor
	reload   *jobs.ModelReloadJob

	redis     *redis.Client
	cache     *redis.Cache
	db        *database.DB
	auditRepo *audit.Repository
	recorder  *audit.Recorder

	stopAudit context.CancelFunc
}

// jobs returns the scheduled jobs enabled by config
func (a *app) jobs() []scheduler.Job {
	var list []scheduler.Job
	if a.cfg.Model.ReloadSchedule != "" {
		list = append(list, a.reload)
	}
	if a.auditRepo != nil && a.cfg.Audit.Retention > 0 {
		list = append(list, jobs.NewAuditRetentionJob(a.auditRepo, a.cfg.Audit.Retention, a.log))
	}
	return list
}

// appOptions selects the optional infrastructure
type appOptions struct {
	// Infra connects Redis and (when AUDIT_ENABLED) PostgreSQL.
	// CLI one-shot commands run without it.
	Infra bool
}

// loadPolicy resolves --policy, then POLICY_PATH, then the built-in defaults
func loadPolicy(cfg *config.Config) (*policy.Config, string, error) {
	path := cfg.PolicyPath
	if policyFile != "" {
		path = policyFile
	}
	pol, err := policy.LoadOrDefault(path)
	if err != nil {
		return nil, "", fmt.Errorf("load policy %s: %w", path, err)
	}
	hash, err := policy.Hash(pol)
	if err != nil {
		return nil, "", fmt.Errorf("hash policy: %w", err)
	}
	return pol, hash, nil
}

// newApp wires the service graph
// ⭐ SSOT: 컴포넌트 조립은 여기서만
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, log: log, metrics: metrics.New()}

	var err error
	a.policy, a.policyHash, err = loadPolicy(cfg)
	if err != nil {
		return nil, err
	}

	if opts.Infra {
		a.redis, err = redis.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	// 1. Model registry
	regOpts := model.Options{
		Source:          cfg.Model.Backend,
		MissingFeatures: a.policy.Alignment.MissingFeatures,
		OnLoad: func(info model.Info) {
			a.metrics.SetModel(info.Backend, info.Version, info.HasExplainer)
		},
	}
	modelPath := cfg.Model.Path
	if cfg.Model.Backend == config.ModelBackendRemote {
		client := httputil.New(cfg, log).WithRetry(2, 200*time.Millisecond)
		if a.redis != nil && a.redis.Enabled() {
			// 모델 서버 호출량은 레플리카 전체 합산으로 제한
			client = client.WithRateLimiter(redis.NewRateLimiter(a.redis, "sycamore"), redis.ModelServerRateLimit)
		}
		regOpts.Client = client
		modelPath = cfg.Model.RemoteURL
	}
	a.models = model.NewRegistry(regOpts, log)

	loaded, err := a.models.Load(ctx, modelPath, cfg.Model.ExplainerPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load model: %w", err)
	}
	if !loaded {
		// 모델 없이 기동: /health/ready가 503, 스코어링은 503
		log.WithField("model_path", modelPath).Warn("Starting without a model")
	}

	// 2. Scoring
	a.pipeline = scoring.NewPipeline(a.models, a.policy, a.metrics, log)
	a.health = health.New(a.policy.Health)
	a.advisor = advisor.New(a.policy.Investment)

	var serviceOpts []scoring.ServiceOption
	var purger jobs.CachePurger

	if opts.Infra {
		// 3. Result cache
		if a.redis.Enabled() {
			a.cache = redis.NewCache(a.redis, "sycamore")
			purger = a.cache
			serviceOpts = append(serviceOpts, scoring.WithCache(a.cache, cfg.Redis.CacheTTL))
		}

		// 4. Audit log
		if cfg.Audit.Enabled {
			a.db, err = database.New(ctx, cfg)
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("connect to database: %w", err)
			}
			a.auditRepo = audit.NewRepository(a.db.Pool)
			if err := a.auditRepo.EnsureSchema(ctx); err != nil {
				a.Close()
				return nil, fmt.Errorf("audit schema: %w", err)
			}

			a.recorder = audit.NewRecorder(a.auditRepo, auditQueueSize, log)
			auditCtx, cancel := context.WithCancel(context.Background())
			a.stopAudit = cancel
			a.recorder.Start(auditCtx)
			serviceOpts = append(serviceOpts, scoring.WithAudit(a.recorder))
		}
	}

	a.service = scoring.NewService(a.pipeline, a.policyHash, serviceOpts...)
	a.reload = jobs.NewModelReloadJob(a.models, purger, a.metrics, cfg.Model.ReloadSchedule, log)

	return a, nil
}

// checks returns the readiness probes of the connected infrastructure
func (a *app) checks() map[string]handlers.Checker {
	checks := map[string]handlers.Checker{}
	if a.redis != nil && a.redis.Enabled() {
		checks["redis"] = a.redis.Ping
	}
	if a.db != nil {
		checks["database"] = a.db.Ping
	}
	return checks
}

// Close flushes the audit queue and releases connections
func (a *app) Close() {
	if a.recorder != nil {
		a.stopAudit()
		a.recorder.Wait()
		if n := a.recorder.Dropped(); n > 0 {
			a.log.WithField("dropped", n).Warn("Audit decisions dropped")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}
