package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
)

// APIHandler serves process-level endpoints
type APIHandler struct {
	started time.Time
	logger  arbor.ILogger
}

// NewAPIHandler creates an API handler; uptime counts from this call
func NewAPIHandler(logger arbor.ILogger) *APIHandler {
	return &APIHandler{started: time.Now(), logger: logger}
}

// VersionHandler handles GET /api/version
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"name":    common.AppName,
		"version": common.GetVersion(),
		"full":    common.GetFullVersion(),
	})
}

// HealthHandler handles GET /api/health
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"uptime":     time.Since(h.started).Round(time.Second).String(),
		"goroutines": common.GetGoroutineCount(),
	})
}

// NotFoundHandler answers unknown paths with a JSON 404
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug().Str("path", r.URL.Path).Msg("No route")
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"success": false,
		"error":   "not found",
		"path":    r.URL.Path,
	})
}
