// Package status tracks what the summarization pipeline is doing right now.
package status

import (
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/models"
)

// AppState represents the application state
type AppState string

const (
	StateIdle    AppState = "idle"
	StateRunning AppState = "running"
)

// RangeStatus is the latest pipeline state of one date range
type RangeStatus struct {
	DateRange string               `json:"date_range"`
	State     models.PipelineState `json:"state"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Service records the progress of the latest pipeline run
type Service struct {
	mu        sync.RWMutex
	state     AppState
	runID     string
	company   string
	ranges    []RangeStatus
	index     map[string]int
	runs      int
	lastError string
	logger    arbor.ILogger
	now       func() time.Time
}

// NewService creates a new status service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		state:  StateIdle,
		index:  make(map[string]int),
		logger: logger,
		now:    time.Now,
	}
}

// RunStarted resets progress for a new run with every range PENDING
func (s *Service) RunStarted(company string, ranges []models.DateRange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.state = StateRunning
	s.company = company
	s.lastError = ""
	s.runs++
	s.runID = common.NewRunID()
	s.ranges = make([]RangeStatus, len(ranges))
	s.index = make(map[string]int, len(ranges))
	for i, r := range ranges {
		label := r.Label()
		s.ranges[i] = RangeStatus{DateRange: label, State: models.StatePending, UpdatedAt: now}
		s.index[label] = i
	}
}

// Observe records a range transition. It matches pipeline.StateObserver.
func (s *Service) Observe(dateRange string, state models.PipelineState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if i, ok := s.index[dateRange]; ok {
		s.ranges[i].State = state
		s.ranges[i].UpdatedAt = now
		return
	}
	s.index[dateRange] = len(s.ranges)
	s.ranges = append(s.ranges, RangeStatus{DateRange: dateRange, State: state, UpdatedAt: now})
}

// RunFinished marks the run complete. A non-nil err is kept for reporting.
func (s *Service) RunFinished(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateIdle
	if err != nil {
		s.lastError = err.Error()
	}
	s.logger.Debug().Str("run_id", s.runID).Str("company", s.company).Msg("Pipeline run finished")
}

// GetState returns the current application state (thread-safe)
func (s *Service) GetState() AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// GetStatus returns the state and per-range progress of the latest run
func (s *Service) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ranges := make([]RangeStatus, len(s.ranges))
	copy(ranges, s.ranges)

	status := map[string]interface{}{
		"state":   s.state,
		"runs":    s.runs,
		"run_id":  s.runID,
		"company": s.company,
		"ranges":  ranges,
	}
	if s.lastError != "" {
		status["error"] = s.lastError
	}
	return status
}
