package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/sycamore/backend/internal/api"
	"github.com/wonny/sycamore/backend/internal/api/handlers"
	"github.com/wonny/sycamore/backend/internal/api/schema"
	"github.com/wonny/sycamore/backend/internal/metrics"
	"github.com/wonny/sycamore/backend/internal/scheduler"
	"github.com/wonny/sycamore/backend/pkg/config"
	"github.com/wonny/sycamore/backend/pkg/logger"
	"github.com/wonny/sycamore/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 모델 아티팩트 + 정책 로드
- HTTP/WebSocket 스코어링 엔드포인트 제공
- MODEL_RELOAD_SCHEDULE 설정 시 주기적 모델 리로드

Endpoints:
  GET  /health                         - Liveness
  GET  /health/ready                   - Readiness
  POST /api/credit/score               - 신용 점수
  POST /api/financial-health/score     - 재무 건전성
  POST /api/asset-management/recommend - 투자 성향 추천
  GET  /api/model                      - 로드된 모델 정보
  POST /api/model/reload               - 모델 리로드
  GET  /api/system-info                - 시스템 정보
  GET  /ws/credit/score                - WebSocket 스코어링
  GET  /metrics                        - Prometheus

Example:
  go run ./cmd/sycamore api
  go run ./cmd/sycamore api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Sycamore API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port":    cfg.Port,
		"env":     cfg.Env,
		"backend": cfg.Model.Backend,
	}).Info("Initializing API server")

	// 3. Wire components
	ctx := context.Background()
	a, err := newApp(ctx, cfg, log, appOptions{Infra: true})
	if err != nil {
		return err
	}
	defer a.Close()

	// 4. Scheduled jobs (model reload, audit retention)
	if scheduled := a.jobs(); len(scheduled) > 0 {
		sched := scheduler.New(log, scheduler.DefaultOptions())
		for _, job := range scheduled {
			if err := sched.AddJob(job); err != nil {
				return fmt.Errorf("schedule %s: %w", job.Name(), err)
			}
		}
		sched.Start()
		defer sched.Stop()
	}

	// 5. Handlers + router
	router := api.NewRouter(buildHandlers(a), api.RouterOptions{
		Metrics: metricsIfEnabled(a),
		Limiter: buildLimiter(a),
	}, log)

	// 6. Create server
	server := api.New(cfg, log, router)

	// 7. Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// buildHandlers creates every endpoint handler from the wired app
func buildHandlers(a *app) api.Handlers {
	applicant := schema.Applicant()
	profile := schema.AssetProfile()

	return api.Handlers{
		Credit: handlers.NewCreditHandler(a.service, applicant, a.log),
		Health: handlers.NewFinancialHealthHandler(a.health, applicant, a.log),
		Asset:  handlers.NewAssetHandler(a.advisor, a.health, profile, applicant, a.log),
		Model:  handlers.NewModelHandler(a.models, a.reload, a.log),
		System: handlers.NewSystemHandler(a.models, a.checks(), a.policy, a.policyHash),
		Stream: handlers.NewStreamHandler(a.service, applicant, a.log),
	}
}

func metricsIfEnabled(a *app) *metrics.Metrics {
	if !a.cfg.MetricsEnabled {
		return nil
	}
	return a.metrics
}

// buildLimiter shares the budget through Redis when it is connected
func buildLimiter(a *app) api.Limiter {
	rl := a.cfg.RateLimit
	if rl.RPS <= 0 {
		return nil
	}
	if a.redis != nil && a.redis.Enabled() {
		return api.NewRedisLimiter(redis.NewRateLimiter(a.redis, "sycamore"), rl.RPS)
	}
	return api.NewLocalLimiter(rl.RPS, rl.Burst)
}
