package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"sensor_console/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", 1 * time.Second},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20s", 1 * time.Second},
		{"interval_ms_too_large", "/ws?interval_ms=20000", 1 * time.Second},
		{"interval_invalid_string", "/ws?interval=bogus", 1 * time.Second},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", 1 * time.Second},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialViewer(t *testing.T, s *service.Service, query string) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func TestWebSocket_StateStream_InitialAndPeriodic(t *testing.T) {
	s, _, _, mon, _ := newTestService()
	mon.setSnapshot(service.DashboardSnapshot{Revision: 3, Connected: true})

	conn := dialViewer(t, s, "interval_ms=20")

	env := readEnvelope(t, conn)
	if env.Type != "state" || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var st service.DashboardSnapshot
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if st.Revision != 3 || !st.Connected {
		t.Fatalf("unexpected state: %+v", st)
	}

	// Heartbeat tick
	if env := readEnvelope(t, conn); env.Type != "state" {
		t.Fatalf("expected type=state, got %+v", env)
	}
}

func TestWebSocket_PushesOnChangeAndAnnouncesReload(t *testing.T) {
	s, _, _, mon, _ := newTestService()
	feed := s.Changes.(*service.ChangeFeed)

	// Long heartbeat so only change-driven pushes arrive.
	conn := dialViewer(t, s, "interval=10s")
	if env := readEnvelope(t, conn); env.Type != "state" {
		t.Fatalf("initial: %+v", env)
	}

	// The handler subscribes before the initial write, so this change is seen.
	mon.setSnapshot(service.DashboardSnapshot{Revision: 1})
	feed.Changed(service.SectionSensor)
	env := readEnvelope(t, conn)
	var st service.DashboardSnapshot
	_ = json.Unmarshal(env.Data, &st)
	if env.Type != "state" || st.Revision != 1 {
		t.Fatalf("change push: %+v", env)
	}

	feed.Changed(service.SectionReload)
	if env := readEnvelope(t, conn); env.Type != "reload" {
		t.Fatalf("expected reload, got %+v", env)
	}
	if env := readEnvelope(t, conn); env.Type != "state" {
		t.Fatalf("expected state after reload, got %+v", env)
	}
}
