package channel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sensor_console/internal/logger"
	"sensor_console/internal/models"
)

type chanReceiver struct {
	ch chan string
}

func (r *chanReceiver) Dispatch(raw []byte) { r.ch <- string(raw) }

type countingObserver struct {
	opens  atomic.Int32
	closes atomic.Int32
}

func (o *countingObserver) OnOpen()        { o.opens.Add(1) }
func (o *countingObserver) OnClose(error) { o.closes.Add(1) }

// boardStub accepts websocket connections and hands each one to serve.
func boardStub(t *testing.T, serve func(conn *websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}))
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func readPage(conn *websocket.Conn) string {
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env struct {
		Page string `json:"page"`
	}
	if err := conn.ReadJSON(&env); err != nil {
		return ""
	}
	return env.Page
}

func TestManager_HandshakeAndInOrderDelivery(t *testing.T) {
	pages := make(chan string, 4)
	srv, endpoint := boardStub(t, func(conn *websocket.Conn) {
		pages <- readPage(conn)
		for _, msg := range []string{`{"page":"sensor","temp":1}`, `{"page":"sensor","temp":2}`, `{"page":"sensor","temp":3}`} {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(msg))
		}
		// hold the connection until the client goes away
		_, _, _ = conn.ReadMessage()
	})
	defer srv.Close()

	recv := &chanReceiver{ch: make(chan string, 8)}
	m := NewManager(Options{Endpoint: endpoint, Reconnect: FixedInterval{Interval: 10 * time.Millisecond}}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx, recv) }()

	select {
	case p := <-pages:
		if p != models.PageGetConfig {
			t.Fatalf("first outbound page = %q, want get_config", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("board never received the handshake")
	}

	for i := 1; i <= 3; i++ {
		select {
		case raw := <-recv.ch:
			var msg struct{ Temp int }
			_ = json.Unmarshal([]byte(raw), &msg)
			if msg.Temp != i {
				t.Fatalf("message %d out of order: %s", i, raw)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

func TestManager_ReconnectsAfterClose(t *testing.T) {
	var conns atomic.Int32
	srv, endpoint := boardStub(t, func(conn *websocket.Conn) {
		conns.Add(1)
		readPage(conn)
		// drop the link right after the handshake
	})
	defer srv.Close()

	obs := &countingObserver{}
	m := NewManager(Options{
		Endpoint:  endpoint,
		Reconnect: FixedInterval{Interval: 10 * time.Millisecond},
		Observer:  obs,
	}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, &chanReceiver{ch: make(chan string, 1)}) }()

	deadline := time.Now().Add(3 * time.Second)
	for conns.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}
	if conns.Load() < 3 {
		t.Fatalf("expected at least 3 connections, got %d", conns.Load())
	}
	if obs.opens.Load() < 3 || obs.closes.Load() < 2 {
		t.Fatalf("observer saw opens=%d closes=%d", obs.opens.Load(), obs.closes.Load())
	}
}

func TestManager_RetriesWhenBoardUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	srv.Close()

	m := NewManager(Options{Endpoint: endpoint, Reconnect: FixedInterval{Interval: 5 * time.Millisecond}}, logger.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := m.Run(ctx, &chanReceiver{ch: make(chan string, 1)}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run returned %v, want deadline exceeded", err)
	}
}

func TestManager_SendDroppedWhenNotOpen(t *testing.T) {
	m := NewManager(Options{Endpoint: "ws://127.0.0.1:1/ws"}, logger.Nop())
	if m.Connected() {
		t.Fatalf("new manager should not be connected")
	}
	err := m.Send(models.Envelope{Page: models.PageThreshold, Value: models.DefaultThresholds()})
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestManager_SendWhileOpen(t *testing.T) {
	var mu sync.Mutex
	var got []string
	seen := make(chan struct{}, 4)
	srv, endpoint := boardStub(t, func(conn *websocket.Conn) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			mu.Lock()
			got = append(got, string(data))
			mu.Unlock()
			seen <- struct{}{}
		}
	})
	defer srv.Close()

	obsOpen := make(chan struct{}, 1)
	m := NewManager(Options{Endpoint: endpoint}, logger.Nop())
	m.SetObserver(observerFunc(func() { obsOpen <- struct{}{} }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx, &chanReceiver{ch: make(chan string, 1)}) }()

	<-obsOpen
	<-seen // get_config
	if err := m.Send(models.Envelope{Page: models.PageResetFactory}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case <-seen:
	case <-time.After(2 * time.Second):
		t.Fatalf("board never received the command")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[1] != `{"page":"reset_factory"}` {
		t.Fatalf("unexpected frames: %v", got)
	}
}

type observerFunc func()

func (f observerFunc) OnOpen()       { f() }
func (observerFunc) OnClose(error) {}
