package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/sycamore/backend/internal/model"
	"github.com/wonny/sycamore/backend/pkg/logger"
)

// ModelSource hands out the current adapter (model.Registry)
type ModelSource interface {
	Current() (*model.Adapter, error)
}

// ModelReloader is satisfied by *jobs.ModelReloadJob
type ModelReloader interface {
	Reload(ctx context.Context) (string, error)
}

// ModelHandler exposes model metadata and manual reload
type ModelHandler struct {
	models   ModelSource
	reloader ModelReloader
	logger   *logger.Logger
}

// NewModelHandler creates a new model handler. reloader may be nil.
func NewModelHandler(models ModelSource, reloader ModelReloader, log *logger.Logger) *ModelHandler {
	return &ModelHandler{models: models, reloader: reloader, logger: log}
}

// Get returns the loaded model info
// GET /api/model
func (h *ModelHandler) Get(w http.ResponseWriter, r *http.Request) {
	adapter, err := h.models.Current()
	if err != nil {
		respondDomainError(w, h.logger, r, err)
		return
	}
	respondJSON(w, http.StatusOK, adapter.Info())
}

// ReloadResponse is the body of POST /api/model/reload
type ReloadResponse struct {
	Result string      `json:"result"`
	Error  string      `json:"error,omitempty"`
	Model  *model.Info `json:"model,omitempty"`
}

// Reload re-reads the model artifact; on failure the previous model stays active
// POST /api/model/reload
func (h *ModelHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		respondError(w, http.StatusServiceUnavailable, "model reload is not configured")
		return
	}

	result, err := h.reloader.Reload(r.Context())

	resp := ReloadResponse{Result: result}
	if adapter, cerr := h.models.Current(); cerr == nil {
		info := adapter.Info()
		resp.Model = &info
	}

	if err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Error("Manual model reload failed")
		resp.Error = err.Error()
		respondJSON(w, http.StatusInternalServerError, resp)
		return
	}

	h.logger.WithContext(r.Context()).WithField("result", result).Info("Manual model reload")
	respondJSON(w, http.StatusOK, resp)
}
