package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/models"
	"github.com/ternarybob/stockstory/internal/services/ledger"
	"github.com/ternarybob/stockstory/internal/storage/badger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := arbor.NewLogger()
	db, err := badger.NewBadgerDB(logger, &common.StorageConfig{InMemory: true})
	require.NoError(t, err)
	storage := badger.NewSessionStorage(db, logger)
	t.Cleanup(func() { _ = storage.Close() })
	return NewService(storage, logger)
}

func TestAppend_CreatesAndOrders(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Append(ctx, "s1", models.RoleUser, "first")
	require.NoError(t, err)
	_, err = svc.Append(ctx, "s1", models.RoleAssistant, "second")
	require.NoError(t, err)
	_, err = svc.Append(ctx, "s2", models.RoleUser, "other session")
	require.NoError(t, err)

	history, err := svc.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[1].Content)

	sessions, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestAppend_BlankIDUsesDefault(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Append(ctx, "  ", models.RoleUser, "hello")
	require.NoError(t, err)

	history, err := svc.History(ctx, DefaultSessionID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestHistory_UnknownSessionIsEmpty(t *testing.T) {
	svc := newTestService(t)

	history, err := svc.History(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestUsage_SplitsByRole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, _ = svc.Append(ctx, "s", models.RoleUser, "12345678")
	_, _ = svc.Append(ctx, "s", models.RoleAssistant, "1234")
	_, _ = svc.Append(ctx, "s", models.RoleTool, "ignored tool output")

	usage, err := svc.Usage(ctx, "s", ledger.EstimateTokens)
	require.NoError(t, err)
	assert.Equal(t, int64(2), usage.InputTokens)
	assert.Equal(t, int64(1), usage.OutputTokens)
}
