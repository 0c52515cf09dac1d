// Package channel owns the websocket link to the board: dialing, the
// get_config handshake, in-order delivery of inbound frames, best-effort
// sends and the reconnect loop.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sensor_console/internal/clock"
	"sensor_console/internal/logger"
	"sensor_console/internal/metrics"
	"sensor_console/internal/models"
)

// Link timing and frame size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 14 // 16 KB; config snapshots are the largest frames
	handshakeTimeout = 5 * time.Second
)

// ErrNotConnected is returned by Send while the link is down. The message is dropped.
var ErrNotConnected = errors.New("channel not open")

// Receiver consumes inbound frames. Dispatch is never called concurrently.
type Receiver interface {
	Dispatch(raw []byte)
}

// Observer is told about link transitions.
type Observer interface {
	OnOpen()
	OnClose(err error)
}

// Options configures a Manager. Zero values select defaults.
type Options struct {
	Endpoint  string
	Reconnect ReconnectPolicy
	Clock     clock.Clock
	Dialer    *websocket.Dialer
	Observer  Observer
	Metrics   *metrics.Metrics
}

// Manager keeps one websocket open to the board for the lifetime of Run.
type Manager struct {
	endpoint  string
	reconnect ReconnectPolicy
	clock     clock.Clock
	dialer    *websocket.Dialer
	observer  Observer
	metrics   *metrics.Metrics
	log       *logger.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewManager builds a Manager.
func NewManager(opts Options, log *logger.Logger) *Manager {
	m := &Manager{
		endpoint:  opts.Endpoint,
		reconnect: opts.Reconnect,
		clock:     opts.Clock,
		dialer:    opts.Dialer,
		observer:  opts.Observer,
		metrics:   opts.Metrics,
		log:       log.Named("channel"),
	}
	if m.reconnect == nil {
		m.reconnect = FixedInterval{Interval: DefaultReconnectInterval}
	}
	if m.clock == nil {
		m.clock = clock.Real{}
	}
	if m.dialer == nil {
		m.dialer = &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	}
	return m
}

// SetObserver replaces the link observer. Call before Run.
func (m *Manager) SetObserver(o Observer) {
	m.observer = o
}

// Connected reports whether the link is currently open.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// Run connects and keeps reconnecting until ctx is cancelled. Each close,
// whatever its cause, schedules exactly one new attempt after the policy delay.
func (m *Manager) Run(ctx context.Context, recv Receiver) error {
	for attempt := 1; ; attempt++ {
		err := m.session(ctx, recv)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		delay := m.reconnect.Delay(attempt)
		m.log.Infow("ws_closed_retrying", "err", err, "endpoint", m.endpoint, "retry_in", delay)
		m.metrics.Reconnect()
		if err := clock.Sleep(ctx, m.clock, delay); err != nil {
			return err
		}
	}
}

// Send writes env if the link is open. It never queues or retries.
func (m *Manager) Send(env models.Envelope) error {
	conn := m.current()
	if conn == nil {
		m.log.Warnw("ws_not_ready_dropping", "page", env.Page)
		m.metrics.Dropped(env.Page)
		return ErrNotConnected
	}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		m.log.Warnw("ws_write_failed", "page", env.Page, "err", err)
		m.metrics.Dropped(env.Page)
		return err
	}
	m.metrics.Sent(env.Page)
	return nil
}

func (m *Manager) current() *websocket.Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn
}

// session runs one connection from dial to close.
func (m *Manager) session(ctx context.Context, recv Receiver) error {
	m.log.Infow("ws_connecting", "endpoint", m.endpoint)
	conn, _, err := m.dialer.DialContext(ctx, m.endpoint, nil)
	if err != nil {
		m.log.Warnw("ws_dial_failed", "endpoint", m.endpoint, "err", err)
		return err
	}

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()
	m.log.Infow("ws_opened", "endpoint", m.endpoint)

	if m.observer != nil {
		m.observer.OnOpen()
	}
	// Handshake: seed every local mirror from the board.
	_ = m.Send(models.Envelope{Page: models.PageGetConfig})

	done := make(chan struct{})
	defer close(done)
	go m.keepAlive(ctx, conn, done)

	err = m.readLoop(conn, recv)

	m.mu.Lock()
	m.conn = nil
	m.mu.Unlock()
	_ = conn.Close()

	if m.observer != nil {
		m.observer.OnClose(err)
	}
	return err
}

// readLoop delivers frames to recv in arrival order until the connection fails.
func (m *Manager) readLoop(conn *websocket.Conn, recv Receiver) error {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		recv.Dispatch(data)
	}
}

// keepAlive pings the board and closes the connection when ctx is cancelled,
// which unblocks readLoop.
func (m *Manager) keepAlive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.Close()
			return
		case <-ping.C:
			m.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			m.writeMu.Unlock()
			if err != nil {
				m.log.Infow("ws_ping_failed", "err", err)
				_ = conn.Close()
				return
			}
		}
	}
}
