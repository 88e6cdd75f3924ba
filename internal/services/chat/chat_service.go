// Package chat drives the stock-story conversation: it keeps the session history, runs the
// tool-calling agent loop and shapes the reply for the client.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/models"
	"github.com/ternarybob/stockstory/internal/services/ledger"
	"github.com/ternarybob/stockstory/internal/services/session"
)

// ErrEmptyMessage is returned for blank user input
var ErrEmptyMessage = errors.New("message is required")

// DefaultHistoryLimit bounds how many stored turns are replayed to the completion service
const DefaultHistoryLimit = 40

// SessionStore persists conversation turns
type SessionStore interface {
	Append(ctx context.Context, id, role, content string) (*models.Session, error)
	History(ctx context.Context, id string) ([]models.SessionMessage, error)
	Usage(ctx context.Context, id string, estimate func(string) int64) (models.Usage, error)
}

// UsageTotals reports process-wide tool usage
type UsageTotals interface {
	Totals() models.Usage
}

// Reply is the response to one user message
type Reply struct {
	Response     string       `json:"output"`
	Suggestions  []string     `json:"suggestions"`
	InputTokens  int64        `json:"input_tokens"`
	OutputTokens int64        `json:"output_tokens"`
	TotalTokens  int64        `json:"total_tokens_this_request"`
	SessionID    string       `json:"session_id"`
	Conversation models.Usage `json:"conversation_usage"`
	Tools        models.Usage `json:"tool_usage"`
}

// Service answers chat messages for a session
type Service struct {
	agent        *AgentLoop
	sessions     SessionStore
	usage        UsageTotals
	historyLimit int
	logger       arbor.ILogger
}

// NewService creates a chat service
func NewService(agent *AgentLoop, sessions SessionStore, usage UsageTotals, logger arbor.ILogger) *Service {
	return &Service{
		agent:        agent,
		sessions:     sessions,
		usage:        usage,
		historyLimit: DefaultHistoryLimit,
		logger:       logger,
	}
}

// ProcessMessage runs one conversational turn. The user message, the agent's tool traffic and
// the final reply are all appended to the session history.
func (s *Service) ProcessMessage(ctx context.Context, sessionID, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = session.DefaultSessionID
	}

	startTime := time.Now()

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}
	if s.historyLimit > 0 && len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}

	if _, err := s.sessions.Append(ctx, sessionID, models.RoleUser, message); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	result, err := s.agent.Execute(ctx, sessionID, history, message)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("Agent conversation failed")
		return nil, fmt.Errorf("failed to process message: %w", err)
	}

	for _, entry := range result.Transcript {
		if _, err := s.sessions.Append(ctx, sessionID, entry.Role, entry.Content); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to store tool transcript")
		}
	}
	if _, err := s.sessions.Append(ctx, sessionID, models.RoleAssistant, result.Reply); err != nil {
		return nil, fmt.Errorf("failed to store reply: %w", err)
	}

	reply := &Reply{
		Response:     result.Reply,
		Suggestions:  Suggestions(result.Reply),
		InputTokens:  ledger.EstimateTokens(message),
		OutputTokens: ledger.EstimateTokens(result.Reply),
		SessionID:    sessionID,
	}
	reply.TotalTokens = reply.InputTokens + reply.OutputTokens

	if usage, err := s.sessions.Usage(ctx, sessionID, ledger.EstimateTokens); err == nil {
		reply.Conversation = usage
	} else {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to compute conversation usage")
	}
	if s.usage != nil {
		reply.Tools = s.usage.Totals()
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Int("tool_calls", result.ToolCalls).
		Int64("total_tokens", reply.TotalTokens).
		Dur("duration", time.Since(startTime)).
		Msg("Message processed")

	return reply, nil
}
