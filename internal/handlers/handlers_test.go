package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/models"
	"github.com/ternarybob/stockstory/internal/services/chat"
	"github.com/ternarybob/stockstory/internal/services/pipeline"
	"github.com/ternarybob/stockstory/internal/services/prices"
	"github.com/ternarybob/stockstory/internal/services/story"
	"github.com/ternarybob/stockstory/internal/services/tools"
)

type fakeProcessor struct {
	reply     *chat.Reply
	err       error
	sessionID string
	message   string
}

func (f *fakeProcessor) ProcessMessage(_ context.Context, sessionID, message string) (*chat.Reply, error) {
	f.sessionID, f.message = sessionID, message
	return f.reply, f.err
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&ValidationError{Fields: []string{"message is required"}}, http.StatusBadRequest},
		{fmt.Errorf("%w: eof", ErrInvalidBody), http.StatusBadRequest},
		{chat.ErrEmptyMessage, http.StatusBadRequest},
		{&prices.InvalidRangeError{Start: time.Now(), End: time.Now().AddDate(0, 0, -1)}, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", prices.ErrNoData), http.StatusNotFound},
		{story.ErrNoSummaries, http.StatusNotFound},
		{pipeline.ErrRunInProgress, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForError(tt.err))
		})
	}
}

func TestProcessMessageHandler(t *testing.T) {
	proc := &fakeProcessor{reply: &chat.Reply{Response: "Which company?", Suggestions: []string{}, SessionID: "abc"}}
	h := NewChatHandler(proc, arbor.NewLogger())

	rec, body := doJSON(t, h.ProcessMessageHandler, http.MethodPost, "/process_message", `{"message":"hi","session_id":"abc"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Which company?", body["output"])
	assert.Equal(t, "abc", body["session_id"])
	assert.Equal(t, "abc", proc.sessionID)
	assert.Equal(t, "hi", proc.message)

	rec, body = doJSON(t, h.ProcessMessageHandler, http.MethodPost, "/process_message", `{"session_id":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "message is required")

	rec, _ = doJSON(t, h.ProcessMessageHandler, http.MethodPost, "/process_message", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, h.ProcessMessageHandler, http.MethodGet, "/process_message", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	proc.err = fmt.Errorf("failed to process message: %w", pipeline.ErrRunInProgress)
	rec, _ = doJSON(t, h.ProcessMessageHandler, http.MethodPost, "/process_message", `{"message":"go"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

type fakeWeeks struct {
	weeks  []models.SignificantWeek
	err    error
	symbol string
}

func (f *fakeWeeks) SignificantWeeks(_ context.Context, symbol string, _, _ time.Time) ([]models.SignificantWeek, error) {
	f.symbol = symbol
	return f.weeks, f.err
}

func (f *fakeWeeks) Threshold() float64 { return 2.0 }

type fakeTools struct {
	accs  map[string]*pipeline.Accumulator
	calls []string
	err   error
}

func newFakeTools() *fakeTools {
	return &fakeTools{accs: map[string]*pipeline.Accumulator{}}
}

func (f *fakeTools) CallTool(_ context.Context, sessionID, name string, args map[string]interface{}) (*tools.ToolResult, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return nil, f.err
	}
	switch name {
	case tools.ToolSummarize:
		acc := pipeline.NewAccumulator()
		for _, label := range args["date_ranges"].([]interface{}) {
			acc.Append(models.WeeklySummary{DateRange: label.(string), Summary: "s", Success: true})
		}
		f.accs[sessionID] = acc
		return &tools.ToolResult{Text: "Completed summarization for 1 date range(s).\n\n- x: summarized"}, nil
	case tools.ToolGenerateStory:
		if f.accs[sessionID] == nil {
			return nil, story.ErrNoSummaries
		}
		delete(f.accs, sessionID)
		return &tools.ToolResult{Text: "Narrative.", Story: "Narrative."}, nil
	}
	return nil, tools.ErrUnknownTool
}

func (f *fakeTools) Accumulator(sessionID string) *pipeline.Accumulator {
	return f.accs[sessionID]
}

func TestWeeksHandler(t *testing.T) {
	friday := time.Date(2025, 2, 21, 0, 0, 0, 0, time.UTC)
	weeks := &fakeWeeks{weeks: []models.SignificantWeek{{PriceBar: models.PriceBar{Date: friday, Close: 216.58}, PctChange: -13.6}}}
	h := NewStoryHandler(weeks, newFakeTools(), arbor.NewLogger())

	rec, body := doJSON(t, h.WeeksHandler, http.MethodPost, "/api/weeks", `{"ticker":"NASDAQ:AMZN","start_date":"2025-01-01","end_date":"2025-03-31"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AMZN.US", weeks.symbol)
	assert.Equal(t, "NASDAQ:AMZN", body["ticker"])
	assert.Equal(t, []interface{}{"02/17/2025 to 02/21/2025"}, body["date_ranges"])

	rec, _ = doJSON(t, h.WeeksHandler, http.MethodPost, "/api/weeks", `{"ticker":"AMZN","start_date":"2025-03-31","end_date":"2025-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, h.WeeksHandler, http.MethodPost, "/api/weeks", `{"ticker":"AMZN"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	weeks.err = prices.ErrNoData
	rec, _ = doJSON(t, h.WeeksHandler, http.MethodPost, "/api/weeks", `{"ticker":"AMZN","start_date":"2025-01-01","end_date":"2025-03-31"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummariesAndStory(t *testing.T) {
	ft := newFakeTools()
	h := NewStoryHandler(&fakeWeeks{}, ft, arbor.NewLogger())

	rec, body := doJSON(t, h.SummariesHandler, http.MethodPost, "/api/summaries",
		`{"session_id":"s1","company":"Amazon","date_ranges":["02/17/2025 to 02/21/2025","03/03/2025 to 03/07/2025"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Completed summarization for 1 date range(s).", body["message"])
	assert.Len(t, body["summaries"], 2)

	rec, body = doJSON(t, h.SummariesHandler, http.MethodGet, "/api/summaries?session_id=s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["summaries"], 2)

	rec, body = doJSON(t, h.SummariesHandler, http.MethodDelete, "/api/summaries", `{"session_id":"s1","date_range":"03/03/2025 to 03/07/2025"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["summaries"], 1)

	rec, _ = doJSON(t, h.SummariesHandler, http.MethodDelete, "/api/summaries", `{"session_id":"s1","date_range":"03/03/2025 to 03/07/2025"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = doJSON(t, h.StoryHandler, http.MethodPost, "/api/story", `{"session_id":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Narrative.", body["story"])

	rec, _ = doJSON(t, h.StoryHandler, http.MethodPost, "/api/story", `{"session_id":"s1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummariesHandler_Validation(t *testing.T) {
	ft := newFakeTools()
	h := NewStoryHandler(&fakeWeeks{}, ft, arbor.NewLogger())

	rec, _ := doJSON(t, h.SummariesHandler, http.MethodPost, "/api/summaries", `{"company":"Amazon","date_ranges":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, h.SummariesHandler, http.MethodPost, "/api/summaries", `{"company":"Amazon","date_ranges":["last week"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ft.calls)

	ft.err = pipeline.ErrRunInProgress
	rec, _ = doJSON(t, h.SummariesHandler, http.MethodPost, "/api/summaries", `{"company":"Amazon","date_ranges":["02/17/2025 to 02/21/2025"]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = doJSON(t, h.SummariesHandler, http.MethodPut, "/api/summaries", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type fakeLedger struct{ usage models.Usage }

func (f *fakeLedger) Totals() models.Usage { return f.usage }
func (f *fakeLedger) Reset()               { f.usage = models.Usage{} }

func TestUsageHandler(t *testing.T) {
	ledger := &fakeLedger{usage: models.Usage{InputTokens: 120, OutputTokens: 30}}
	h := NewUsageHandler(ledger, arbor.NewLogger())

	rec, body := doJSON(t, h.GetUsageHandler, http.MethodGet, "/api/usage", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(150), body["total_tokens"])

	rec, body = doJSON(t, h.ResetUsageHandler, http.MethodPost, "/api/usage/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(150), body["previous"].(map[string]interface{})["total_tokens"])
	assert.Equal(t, models.Usage{}, ledger.usage)

	rec, _ = doJSON(t, h.ResetUsageHandler, http.MethodGet, "/api/usage/reset", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

type fakeStatus struct{}

func (fakeStatus) GetStatus() map[string]interface{} {
	return map[string]interface{}{"state": "running", "runs": 2}
}

type fakeSubscribers int

func (f fakeSubscribers) SubscriberCount() int { return int(f) }

func TestStatusHandler(t *testing.T) {
	h := NewStatusHandler(fakeStatus{}, fakeSubscribers(3), arbor.NewLogger())

	rec, body := doJSON(t, h.GetStatusHandler, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", body["state"])
	assert.Equal(t, float64(3), body["subscribers"])

	h = NewStatusHandler(fakeStatus{}, nil, arbor.NewLogger())
	_, body = doJSON(t, h.GetStatusHandler, http.MethodGet, "/api/status", "")
	assert.NotContains(t, body, "subscribers")

	rec, _ = doJSON(t, h.GetStatusHandler, http.MethodPost, "/api/status", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPIHandler(t *testing.T) {
	h := NewAPIHandler(arbor.NewLogger())

	rec, body := doJSON(t, h.HealthHandler, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, body = doJSON(t, h.VersionHandler, http.MethodGet, "/api/version", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["version"])
}
