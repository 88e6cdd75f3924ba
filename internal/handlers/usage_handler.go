package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/models"
)

// UsageLedger reports and resets process-wide token usage
type UsageLedger interface {
	Totals() models.Usage
	Reset()
}

// UsageHandler reports token usage to operators
type UsageHandler struct {
	ledger UsageLedger
	logger arbor.ILogger
}

// NewUsageHandler creates a usage handler
func NewUsageHandler(ledger UsageLedger, logger arbor.ILogger) *UsageHandler {
	return &UsageHandler{ledger: ledger, logger: logger}
}

type usageResponse struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

func toUsageResponse(u models.Usage) usageResponse {
	return usageResponse{InputTokens: u.InputTokens, OutputTokens: u.OutputTokens, TotalTokens: u.Total()}
}

// GetUsageHandler handles GET /api/usage
func (h *UsageHandler) GetUsageHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, toUsageResponse(h.ledger.Totals()))
}

// ResetUsageHandler handles POST /api/usage/reset
func (h *UsageHandler) ResetUsageHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	before := h.ledger.Totals()
	h.ledger.Reset()
	h.logger.Info().Int64("total_tokens", before.Total()).Msg("Token usage reset")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"previous": toUsageResponse(before),
	})
}
