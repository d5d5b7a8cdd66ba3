package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // monitor runs on a closed network segment
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// MetricsMessage is the payload pushed to websocket subscribers on
// every published snapshot.
type MetricsMessage struct {
	Type     string                 `json:"type"`
	Snapshot domain.MetricsSnapshot `json:"snapshot"`
	Quality  domain.QualityReport   `json:"quality"`
}

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(v interface{}, deadline time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(deadline))
	return c.conn.WriteJSON(v)
}

func (c *wsClient) ping(deadline time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(deadline))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Hub pushes metric snapshots to connected websocket clients. It
// implements ports.SnapshotPublisher; broadcasts are rate-limited so a
// fast tick cadence cannot flood slow viewers.
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}

	limiter      *rate.Limiter
	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration

	logger *zap.SugaredLogger
}

// NewHub creates a hub broadcasting at most pushPerSecond snapshots.
func NewHub(pushPerSecond float64, pushBurst int, pingInterval, pongTimeout time.Duration, logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:      make(map[*wsClient]struct{}),
		limiter:      rate.NewLimiter(rate.Limit(pushPerSecond), pushBurst),
		pingInterval: pingInterval,
		pongTimeout:  pongTimeout,
		writeTimeout: 10 * time.Second,
		logger:       logger,
	}
}

// HandleWebSocket upgrades the request and services the connection
// until the peer goes away.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	client := &wsClient{conn: conn}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Infow("websocket client connected", "remote", conn.RemoteAddr().String(), "clients", count)

	defer func() {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
		conn.Close()
		h.logger.Infow("websocket client disconnected", "remote", conn.RemoteAddr().String())
	}()

	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		return nil
	})

	// Reader goroutine: subscribers send nothing meaningful, but the
	// read pump is what notices a closed peer.
	errorChan := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				errorChan <- err
				return
			}
			conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		}
	}()

	pingTicker := time.NewTicker(h.pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-pingTicker.C:
			if err := client.ping(h.writeTimeout); err != nil {
				h.logger.Debugw("websocket ping failed", "error", err)
				return
			}
		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debugw("websocket read failed", "error", err)
			}
			return
		}
	}
}

// Publish implements ports.SnapshotPublisher. Broadcasts over the rate
// limit are silently skipped; the next allowed push carries fresher
// data anyway.
func (h *Hub) Publish(_ context.Context, snapshot domain.MetricsSnapshot, quality domain.QualityReport) error {
	if !h.limiter.Allow() {
		return nil
	}

	msg := MetricsMessage{Type: "metrics", Snapshot: snapshot, Quality: quality}

	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		if err := client.writeJSON(msg, h.writeTimeout); err != nil {
			h.logger.Debugw("websocket push failed", "error", err)
		}
	}
	return nil
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
