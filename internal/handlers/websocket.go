package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockstory/internal/common"
	"github.com/ternarybob/stockstory/internal/models"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the frame sent to summary subscribers
type WSMessage struct {
	Type      string `json:"type"`
	DateRange string `json:"date_range,omitempty"`
	Summary   string `json:"summary,omitempty"`
	HTML      string `json:"html,omitempty"`
}

// SummaryHub streams weekly summaries to connected clients as they are produced.
// Delivery is at-most-once: a subscriber whose send fails is dropped and not retried.
type SummaryHub struct {
	logger       arbor.ILogger
	renderer     *MarkdownRenderer
	pingInterval time.Duration

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex // per-connection write lock
}

// NewSummaryHub creates a hub. An idle connection is pinged every config.PingInterval.
func NewSummaryHub(config *common.WebSocketConfig, logger arbor.ILogger) *SummaryHub {
	interval := 60 * time.Second
	if config != nil && config.PingInterval.Duration > 0 {
		interval = config.PingInterval.Duration
	}
	return &SummaryHub{
		logger:       logger,
		renderer:     NewMarkdownRenderer(),
		pingInterval: interval,
		clients:      make(map[*websocket.Conn]*sync.Mutex),
	}
}

// HandleWebSocket handles GET /ws/summary
func (h *SummaryHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug().Msgf("Summary subscriber connected (total: %d)", count)

	defer h.evict(conn)

	received := make(chan struct{}, 1)
	closed := make(chan struct{})
	common.SafeGo(h.logger, "summaryHubReader", func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Warn().Err(err).Msg("WebSocket error")
				}
				return
			}
			select {
			case received <- struct{}{}:
			default:
			}
		}
	})

	idle := time.NewTimer(h.pingInterval)
	defer idle.Stop()

	for {
		select {
		case <-closed:
			return
		case <-received:
			resetTimer(idle, h.pingInterval)
		case <-idle.C:
			if err := h.send(conn, WSMessage{Type: "ping"}); err != nil {
				h.logger.Debug().Err(err).Msg("Ping failed, dropping subscriber")
				return
			}
			idle.Reset(h.pingInterval)
		}
	}
}

// Publish sends a summary to every subscriber. Subscribers that fail are evicted and
// their errors joined into the result.
func (h *SummaryHub) Publish(ctx context.Context, summary models.WeeklySummary) error {
	text := summary.Summary
	if text == "" {
		text = summary.Message
	}
	msg := WSMessage{
		Type:      "summary",
		DateRange: summary.DateRange,
		Summary:   text,
		HTML:      h.renderer.Render(text),
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	var errs []error
	for _, conn := range conns {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := h.send(conn, msg); err != nil {
			h.evict(conn)
			errs = append(errs, fmt.Errorf("subscriber %s: %w", conn.RemoteAddr(), err))
		}
	}

	h.logger.Debug().
		Str("date_range", summary.DateRange).
		Int("subscribers", len(conns)).
		Int("failed", len(errs)).
		Msg("Summary broadcast")

	return errors.Join(errs...)
}

// SubscriberCount returns the number of connected subscribers
func (h *SummaryHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *SummaryHub) send(conn *websocket.Conn, msg WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	lock, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return errors.New("subscriber disconnected")
	}

	lock.Lock()
	defer lock.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *SummaryHub) evict(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	remaining := len(h.clients)
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.logger.Debug().Msgf("Summary subscriber disconnected (remaining: %d)", remaining)
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
