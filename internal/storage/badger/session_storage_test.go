package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/interfaces"
	"github.com/ternarybob/stockstory/internal/models"
)

func newTestStorage(t *testing.T) interfaces.SessionStorage {
	t.Helper()
	db, err := NewBadgerDB(arbor.NewLogger(), &common.StorageConfig{InMemory: true})
	require.NoError(t, err)
	storage := NewSessionStorage(db, arbor.NewLogger())
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestSessionStorage_SaveAndGet(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	session := &models.Session{
		ID: "sess-1",
		Messages: []models.SessionMessage{
			{Role: models.RoleUser, Content: "Analyze Tesla", CreatedAt: now},
			{Role: models.RoleAssistant, Content: "Which date range?", CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, storage.SaveSession(ctx, session))

	got, err := storage.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "Analyze Tesla", got.Messages[0].Content)
	assert.Equal(t, models.RoleAssistant, got.Messages[1].Role)
}

func TestSessionStorage_NotFound(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrSessionNotFound)
}

func TestSessionStorage_ListOrderedByCreation(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, storage.SaveSession(ctx, &models.Session{ID: "b", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, storage.SaveSession(ctx, &models.Session{ID: "a", CreatedAt: base}))

	sessions, err := storage.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "a", sessions[0].ID)
	assert.Equal(t, "b", sessions[1].ID)
}

func TestSessionStorage_DeleteAndValidation(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.SaveSession(ctx, &models.Session{ID: "gone"}))
	require.NoError(t, storage.DeleteSession(ctx, "gone"))
	require.NoError(t, storage.DeleteSession(ctx, "never-existed"))

	_, err := storage.GetSession(ctx, "gone")
	assert.ErrorIs(t, err, interfaces.ErrSessionNotFound)

	assert.Error(t, storage.SaveSession(ctx, &models.Session{}))
}
