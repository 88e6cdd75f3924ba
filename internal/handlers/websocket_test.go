package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/models"
)

func startHub(t *testing.T, interval time.Duration) (*SummaryHub, string) {
	t.Helper()
	hub := NewSummaryHub(&common.WebSocketConfig{PingInterval: common.Dur(interval)}, arbor.NewLogger())
	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(server.Close)
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSummaryHub_PublishFansOut(t *testing.T) {
	hub, url := startHub(t, time.Minute)

	subscribers := []*websocket.Conn{dial(t, url), dial(t, url), dial(t, url)}
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 3 }, 2*time.Second, 10*time.Millisecond)

	summary := models.WeeklySummary{
		DateRange: "02/17/2025 to 02/21/2025",
		Summary:   "🔗 **Referenced URLs:**\n• https://www.wsj.com/a\n\nShares **fell** on weak guidance.",
		Success:   true,
	}
	require.NoError(t, hub.Publish(context.Background(), summary))

	for i, conn := range subscribers {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg WSMessage
		require.NoError(t, conn.ReadJSON(&msg), "subscriber %d", i)
		assert.Equal(t, "summary", msg.Type)
		assert.Equal(t, summary.DateRange, msg.DateRange)
		assert.Equal(t, summary.Summary, msg.Summary)
		assert.Contains(t, msg.HTML, "<strong>fell</strong>")
	}
}

func TestSummaryHub_FailedSummarySendsMessage(t *testing.T) {
	hub, url := startHub(t, time.Minute)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), models.WeeklySummary{
		DateRange: "03/03/2025 to 03/07/2025",
		Message:   "no articles to summarize",
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "no articles to summarize", msg.Summary)
}

func TestSummaryHub_NoSubscribers(t *testing.T) {
	hub, _ := startHub(t, time.Minute)
	assert.NoError(t, hub.Publish(context.Background(), models.WeeklySummary{DateRange: "x", Summary: "y"}))
}

func TestSummaryHub_DisconnectEvicts(t *testing.T) {
	hub, url := startHub(t, time.Minute)
	first := dial(t, url)
	dial(t, url)
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	first.Close()
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestSummaryHub_IdlePing(t *testing.T) {
	_, url := startHub(t, 50*time.Millisecond)
	conn := dial(t, url)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "ping", msg.Type)
}

func TestMarkdownRenderer(t *testing.T) {
	r := NewMarkdownRenderer()

	out := r.Render("Shares **rose** after [earnings](https://example.com/q4).")
	assert.Contains(t, out, "<strong>rose</strong>")
	assert.Contains(t, out, `rel="nofollow`)

	out = r.Render("<script>alert(1)</script>Plain text")
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, "Plain text")

	assert.Equal(t, "", r.Render("   "))
}
