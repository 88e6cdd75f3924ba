package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/stockstory/internal/models"
)

// ErrSessionNotFound is returned when a session ID has no stored history
var ErrSessionNotFound = errors.New("session not found")

// SessionStorage persists sessions for the process lifetime
type SessionStorage interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	ListSessions(ctx context.Context) ([]*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	Close() error
}
