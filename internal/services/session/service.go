// Package session keeps per-session conversation history for the process lifetime.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
)

// DefaultSessionID is used when a caller does not supply one
const DefaultSessionID = "default"

// Service appends role-tagged turns to sessions. A session is created on its first message
// and never expires.
type Service struct {
	storage interfaces.SessionStorage
	logger  arbor.ILogger
	mu      sync.Mutex
	now     func() time.Time
}

// NewService creates a session service over the given storage
func NewService(storage interfaces.SessionStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

func normalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultSessionID
	}
	return id
}

// Append adds a message to the session, creating the session if needed
func (s *Service) Append(ctx context.Context, id, role, content string) (*models.Session, error) {
	id = normalizeID(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	session, err := s.storage.GetSession(ctx, id)
	if errors.Is(err, interfaces.ErrSessionNotFound) {
		session = &models.Session{ID: id, CreatedAt: now}
		s.logger.Debug().Str("session_id", id).Msg("Creating session")
	} else if err != nil {
		return nil, err
	}

	session.Messages = append(session.Messages, models.SessionMessage{
		Role:      role,
		Content:   content,
		CreatedAt: now,
	})
	session.UpdatedAt = now

	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to append to session %s: %w", id, err)
	}
	return session, nil
}

// History returns the ordered messages of a session, or an empty slice for unknown sessions
func (s *Service) History(ctx context.Context, id string) ([]models.SessionMessage, error) {
	session, err := s.storage.GetSession(ctx, normalizeID(id))
	if errors.Is(err, interfaces.ErrSessionNotFound) {
		return []models.SessionMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	return session.Messages, nil
}

// Get returns the stored session
func (s *Service) Get(ctx context.Context, id string) (*models.Session, error) {
	return s.storage.GetSession(ctx, normalizeID(id))
}

// List returns every session known to this process
func (s *Service) List(ctx context.Context) ([]*models.Session, error) {
	return s.storage.ListSessions(ctx)
}

// Usage estimates conversation token totals from stored user and assistant turns
func (s *Service) Usage(ctx context.Context, id string, estimate func(string) int64) (models.Usage, error) {
	history, err := s.History(ctx, id)
	if err != nil {
		return models.Usage{}, err
	}
	var usage models.Usage
	for _, msg := range history {
		switch msg.Role {
		case models.RoleUser:
			usage.InputTokens += estimate(msg.Content)
		case models.RoleAssistant:
			usage.OutputTokens += estimate(msg.Content)
		}
	}
	return usage, nil
}
