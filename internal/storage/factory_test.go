package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/interfaces"
)

func TestManager_InMemory(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.InMemory = true

	m, err := NewManager(arbor.NewLogger(), cfg)
	require.NoError(t, err)
	defer m.Close()

	_, err = m.SessionStorage().GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrSessionNotFound)
}
