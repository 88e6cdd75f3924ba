package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/models"
	"github.com/ternarybob/stockstory/internal/services/pipeline"
	"github.com/ternarybob/stockstory/internal/services/prices"
	"github.com/ternarybob/stockstory/internal/services/session"
	"github.com/ternarybob/stockstory/internal/services/tools"
)

// WeekFinder flags weeks with significant price moves
type WeekFinder interface {
	SignificantWeeks(ctx context.Context, symbol string, start, end time.Time) ([]models.SignificantWeek, error)
	Threshold() float64
}

// ToolCaller runs the story tools for a session
type ToolCaller interface {
	CallTool(ctx context.Context, sessionID, name string, args map[string]interface{}) (*tools.ToolResult, error)
	Accumulator(sessionID string) *pipeline.Accumulator
}

// StoryHandler exposes the weekly analysis and narrative steps without the chat agent
type StoryHandler struct {
	weeks  WeekFinder
	tools  ToolCaller
	logger arbor.ILogger
}

// NewStoryHandler creates a story handler
func NewStoryHandler(weeks WeekFinder, tools ToolCaller, logger arbor.ILogger) *StoryHandler {
	return &StoryHandler{
		weeks:  weeks,
		tools:  tools,
		logger: logger,
	}
}

type weeksRequest struct {
	Ticker    string `json:"ticker" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

type weeksResponse struct {
	Ticker     string                   `json:"ticker"`
	Threshold  float64                  `json:"threshold"`
	Weeks      []models.SignificantWeek `json:"weeks"`
	DateRanges []string                 `json:"date_ranges"`
}

// WeeksHandler handles POST /api/weeks
func (h *StoryHandler) WeeksHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req weeksRequest
	if err := DecodeRequest(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}

	start, end, err := prices.ParsePeriod(req.StartDate, req.EndDate)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ticker := common.ParseTicker(req.Ticker)
	weeks, err := h.weeks.SignificantWeeks(r.Context(), ticker.EODHDSymbol(), start, end)
	if err != nil {
		h.logger.Warn().Err(err).Str("ticker", ticker.String()).Msg("Significant week lookup failed")
		WriteServiceError(w, err)
		return
	}

	labels := make([]string, 0, len(weeks))
	for _, dr := range prices.BuildDateRanges(weeks) {
		labels = append(labels, dr.Label())
	}
	if weeks == nil {
		weeks = []models.SignificantWeek{}
	}

	WriteJSON(w, http.StatusOK, weeksResponse{
		Ticker:     ticker.String(),
		Threshold:  h.weeks.Threshold(),
		Weeks:      weeks,
		DateRanges: labels,
	})
}

type summarizeRequest struct {
	SessionID  string   `json:"session_id"`
	Company    string   `json:"company" validate:"required"`
	DateRanges []string `json:"date_ranges" validate:"required,min=1,dive,required"`
}

// SummariesHandler handles /api/summaries: POST runs the weekly analysis, GET lists the
// session's summaries and DELETE removes one.
func (h *StoryHandler) SummariesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.summarize(w, r)
	case http.MethodGet:
		h.listSummaries(w, r)
	case http.MethodDelete:
		h.removeSummary(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *StoryHandler) summarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := DecodeRequest(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}
	sessionID := sessionOrDefault(req.SessionID)

	if _, err := prices.ParseDateRangeLabels(req.DateRanges); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ranges := make([]interface{}, len(req.DateRanges))
	for i, label := range req.DateRanges {
		ranges[i] = label
	}

	result, err := h.tools.CallTool(r.Context(), sessionID, tools.ToolSummarize, map[string]interface{}{
		"company":     req.Company,
		"date_ranges": ranges,
	})
	if err != nil {
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Weekly summarization failed")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"session_id": sessionID,
		"message":    firstLine(result.Text),
		"summaries":  h.summaries(sessionID),
	})
}

func (h *StoryHandler) listSummaries(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionOrDefault(r.URL.Query().Get("session_id"))
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"summaries":  h.summaries(sessionID),
	})
}

type removeSummaryRequest struct {
	SessionID string `json:"session_id"`
	DateRange string `json:"date_range" validate:"required"`
}

func (h *StoryHandler) removeSummary(w http.ResponseWriter, r *http.Request) {
	var req removeSummaryRequest
	if err := DecodeRequest(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}
	sessionID := sessionOrDefault(req.SessionID)

	acc := h.tools.Accumulator(sessionID)
	if acc == nil || !acc.Remove(req.DateRange) {
		WriteError(w, http.StatusNotFound, "no summary for "+req.DateRange)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"session_id": sessionID,
		"summaries":  acc.Summaries(),
	})
}

type storyRequest struct {
	SessionID string `json:"session_id"`
}

// StoryHandler handles POST /api/story. The session's summaries are consumed.
func (h *StoryHandler) StoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req storyRequest
	if err := DecodeRequest(r, &req); err != nil {
		WriteServiceError(w, err)
		return
	}
	sessionID := sessionOrDefault(req.SessionID)

	result, err := h.tools.CallTool(r.Context(), sessionID, tools.ToolGenerateStory, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Story generation failed")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"session_id": sessionID,
		"story":      result.Story,
	})
}

func (h *StoryHandler) summaries(sessionID string) []models.WeeklySummary {
	acc := h.tools.Accumulator(sessionID)
	if acc == nil {
		return []models.WeeklySummary{}
	}
	return acc.Summaries()
}

func sessionOrDefault(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return session.DefaultSessionID
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
