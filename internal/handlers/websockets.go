package handlers

import (
	"net/http"
	"strconv"
	"time"

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
)

// Viewer message types.
const (
	wsTypeState  = "state"
	wsTypeReload = "reload"
)

// Envelope used for viewer WebSocket messages.
type wsEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Upgrader for HTTP -> WebSocket. The console serves operators on the local network.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConnect streams the dashboard to a viewer: a snapshot on connect, one
// after every change and a heartbeat snapshot every interval. A board reset
// is announced with a "reload" message before the fresh snapshot.
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

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	changes, unsubscribe := h.services.Changes.Subscribe()
	defer unsubscribe()
	reloads := h.services.Changes.Reloads()

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	// Send initial state immediately.
	if err := h.sendState(conn); err != nil {
		h.logStreamEnd("ws_write_failed_initial", err)
		return
	}

	for {
		var err error
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err = conn.WriteMessage(websocket.PingMessage, nil)
		case <-changes:
			// A reset bumps the reload count; viewers drop local state before the fresh snapshot.
			if r := h.services.Changes.Reloads(); r != reloads {
				reloads = r
				err = h.write(conn, wsEnvelope{Type: wsTypeReload})
			}
			if err == nil {
				err = h.sendState(conn)
			}
		case <-ticker.C:
			err = h.sendState(conn)
		}
		if err != nil {
			h.logStreamEnd("ws_write_failed", err)
			return
		}
	}
}

func (h *Handler) logStreamEnd(key string, err error) {
	if h.log != nil {
		h.log.Infow(key, "err", err)
	}
}

// Helper: parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
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

// Helper: startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.logStreamEnd("ws_read_closed", err)
			return
		}
	}
}

// Helper: sendState writes the current dashboard snapshot.
func (h *Handler) sendState(conn *websocket.Conn) error {
	return h.write(conn, wsEnvelope{Type: wsTypeState, Data: h.services.Monitoring.Snapshot()})
}

func (h *Handler) write(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
