package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/wonny/sycamore/backend/internal/model"
	"github.com/wonny/sycamore/backend/internal/policy"
)

// Service identity
const (
	ServiceName    = "sycamore"
	ServiceVersion = "1.0.3"
)

// Checker reports whether a dependency is reachable
type Checker func(ctx context.Context) error

// SystemHandler serves liveness, readiness and system info
type SystemHandler struct {
	models     ModelSource
	checks     map[string]Checker
	policy     *policy.Config
	policyHash string
	started    time.Time
}

// NewSystemHandler creates a new system handler. checks may be nil.
func NewSystemHandler(models ModelSource, checks map[string]Checker, pol *policy.Config, policyHash string) *SystemHandler {
	return &SystemHandler{
		models:     models,
		checks:     checks,
		policy:     pol,
		policyHash: policyHash,
		started:    time.Now(),
	}
}

// Health is the liveness probe
// GET / and GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": ServiceName,
		"version": ServiceVersion,
	})
}

// ReadyResponse lists the state of every dependency
type ReadyResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Ready is the readiness probe: 503 unless the model is loaded and every check passes
// GET /health/ready
func (h *SystemHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Components: map[string]string{}}

	if _, err := h.models.Current(); err != nil {
		resp.Status = "not_ready"
		resp.Components["model"] = err.Error()
	} else {
		resp.Components["model"] = "ok"
	}

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Status = "not_ready"
			resp.Components[name] = err.Error()
			continue
		}
		resp.Components[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}

// SystemInfo is the body of GET /api/system-info
type SystemInfo struct {
	Service    string      `json:"service"`
	Version    string      `json:"version"`
	GoVersion  string      `json:"go_version"`
	OS         string      `json:"os"`
	Arch       string      `json:"arch"`
	NumCPU     int         `json:"num_cpu"`
	Goroutines int         `json:"goroutines"`
	Uptime     string      `json:"uptime"`
	Model      *model.Info `json:"model"`
	Policy     PolicyInfo  `json:"policy"`
}

// PolicyInfo identifies the active scoring policy
type PolicyInfo struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Hash    string `json:"hash"`
}

// SystemInfo reports runtime, model and policy details
// GET /api/system-info
func (h *SystemHandler) SystemInfo(w http.ResponseWriter, r *http.Request) {
	info := SystemInfo{
		Service:    ServiceName,
		Version:    ServiceVersion,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		NumCPU:     runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Policy: PolicyInfo{
			ID:      h.policy.Meta.PolicyID,
			Version: h.policy.Meta.Version,
			Hash:    h.policyHash,
		},
	}

	if adapter, err := h.models.Current(); err == nil {
		mi := adapter.Info()
		info.Model = &mi
	}

	respondJSON(w, http.StatusOK, info)
}
