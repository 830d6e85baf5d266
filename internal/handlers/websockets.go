package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"distillation_monitor/internal/logger"
	"distillation_monitor/internal/metrics"
	"distillation_monitor/internal/models"
	"distillation_monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms
	clientBuffer     = 64
)

// Envelope types.
const (
	envelopeStatus = "status"
	envelopeSample = "sample"
)

// wsEnvelope is the frame written to stream clients.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`

	// Samples this client lost to a full queue; status frames only.
	DroppedFrames uint64 `json:"dropped_frames,omitempty"`
}

// Hub fans produced samples out to the connected stream clients. It is a
// transmission sink: a slow client loses samples instead of stalling the
// transmission.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	metrics *metrics.Metrics
	log     *logger.Logger
}

var _ service.Sink = (*Hub)(nil)

type wsClient struct {
	send    chan []byte
	dropped atomic.Uint64
}

// NewHub returns an empty hub.
func NewHub(m *metrics.Metrics, log *logger.Logger) *Hub {
	return &Hub{clients: make(map[*wsClient]struct{}), metrics: m, log: log}
}

// Notify broadcasts s to every client without blocking.
func (h *Hub) Notify(_ context.Context, s models.Sample) error {
	msg, err := json.Marshal(wsEnvelope{Type: envelopeSample, Data: s})
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		select {
		case cl.send <- msg:
		default:
			n := cl.dropped.Add(1)
			h.metrics.WSDrop()
			if h.log != nil {
				h.log.Warnw("ws_sample_dropped", "session_id", s.SessionID, "seq", s.Seq, "client_dropped", n)
			}
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(size int) *wsClient {
	cl := &wsClient{send: make(chan []byte, size)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	h.metrics.WSOpened()
	return cl
}

func (h *Hub) unregister(cl *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[cl]
	delete(h.clients, cl)
	h.mu.Unlock()
	if ok {
		h.metrics.WSClosed()
	}
}

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Sample stream
// @Description  Pushes every produced sample and a periodic status frame. Accepts ?interval=2s or ?interval_ms=2000 for the status period.
// @Tags         stream
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	client := h.hub.register(clientBuffer)
	defer h.hub.unregister(client)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	if err := h.sendStatus(conn, client); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case msg := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.sendStatus(conn, client); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	interval := defaultInterval

	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return interval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// sendStatus writes the current transmission snapshot and the client's
// dropped-frame count with a write deadline.
func (h *Handler) sendStatus(conn *websocket.Conn, cl *wsClient) error {
	st := h.services.Transmission.Status()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: envelopeStatus, Data: st, DroppedFrames: cl.dropped.Load()})
}
