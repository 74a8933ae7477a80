package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/sycamore/backend/internal/api/handlers"
	"github.com/wonny/sycamore/backend/internal/metrics"
	"github.com/wonny/sycamore/backend/pkg/logger"
)

// Handlers groups every endpoint handler
type Handlers struct {
	Credit *handlers.CreditHandler
	Health *handlers.FinancialHealthHandler
	Asset  *handlers.AssetHandler
	Model  *handlers.ModelHandler
	System *handlers.SystemHandler
	Stream *handlers.StreamHandler
}

// RouterOptions holds the optional middleware dependencies
type RouterOptions struct {
	Metrics *metrics.Metrics // nil: /metrics not served
	Limiter Limiter          // nil: no rate limit
}

// apiMethods lists the methods each /api path serves
var apiMethods = map[string]string{
	"/credit/score":               "POST",
	"/financial-health/score":     "POST",
	"/asset-management/recommend": "POST",
	"/model":                      "GET",
	"/model/reload":               "POST",
	"/system-info":                "GET",
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, opts RouterOptions, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Liveness / readiness
	r.HandleFunc("/", h.System.Health).Methods("GET")
	r.HandleFunc("/health", h.System.Health).Methods("GET")
	r.HandleFunc("/health/ready", h.System.Ready).Methods("GET")

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler()).Methods("GET")
	}

	// API
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/credit/score", h.Credit.Score).Methods("POST")
	api.HandleFunc("/financial-health/score", h.Health.Score).Methods("POST")
	api.HandleFunc("/asset-management/recommend", h.Asset.Recommend).Methods("POST")

	api.HandleFunc("/model", h.Model.Get).Methods("GET")
	api.HandleFunc("/model/reload", h.Model.Reload).Methods("POST")
	api.HandleFunc("/system-info", h.System.SystemInfo).Methods("GET")

	// 경로는 맞고 메서드가 틀린 요청은 405 (실제 라우트보다 뒤에 등록)
	for path, allow := range apiMethods {
		api.HandleFunc(path, methodNotAllowed(allow))
	}

	if opts.Limiter != nil {
		api.Use(rateLimitMiddleware(opts.Limiter, log))
		// 웹소켓은 메시지 단위로 같은 예산을 차감
		h.Stream.LimitMessages(opts.Limiter, clientKey)
	}

	// Websocket
	r.HandleFunc("/ws/credit/score", h.Stream.ScoreStream).Methods("GET")

	// Apply middleware (바깥 → 안쪽 순서)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log, opts.Metrics))
	r.Use(recoveryMiddleware(log))

	return r
}
