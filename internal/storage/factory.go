package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/storage/badger"
)

// Manager owns the storage backends
type Manager struct {
	db       *badger.BadgerDB
	sessions interfaces.SessionStorage
}

// NewManager opens the badger-backed session store
func NewManager(logger arbor.ILogger, config *common.Config) (*Manager, error) {
	db, err := badger.NewBadgerDB(logger, &config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &Manager{
		db:       db,
		sessions: badger.NewSessionStorage(db, logger),
	}, nil
}

// SessionStorage returns the session store
func (m *Manager) SessionStorage() interfaces.SessionStorage {
	return m.sessions
}

// Close closes the underlying database
func (m *Manager) Close() error {
	return m.db.Close()
}
