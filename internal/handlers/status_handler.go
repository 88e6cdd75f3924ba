package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
)

// StatusProvider reports pipeline progress
type StatusProvider interface {
	GetStatus() map[string]interface{}
}

// SubscriberCounter reports connected summary subscribers
type SubscriberCounter interface {
	SubscriberCount() int
}

// StatusHandler exposes pipeline progress
type StatusHandler struct {
	status      StatusProvider
	subscribers SubscriberCounter
	logger      arbor.ILogger
}

// NewStatusHandler creates a status handler. subscribers may be nil.
func NewStatusHandler(status StatusProvider, subscribers SubscriberCounter, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{status: status, subscribers: subscribers, logger: logger}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	status := h.status.GetStatus()
	if h.subscribers != nil {
		status["subscribers"] = h.subscribers.SubscriberCount()
	}
	WriteJSON(w, http.StatusOK, status)
}
