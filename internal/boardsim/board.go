// Package boardsim emulates the sensor board's websocket endpoint so the
// console can be run and tested without hardware.
package boardsim

import (
	"context"
	"encoding/json"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sensor_console/internal/logger"
	"sensor_console/internal/models"
)

// ----------- Simulation constants -----------
const (
	AmbientTempC   = 27.0 // °C the reading drifts around
	AmbientHumiPct = 55.0 // %RH the reading drifts around
	TempStepC      = 0.4  // max °C change per tick
	HumiStepPct    = 1.5  // max %RH change per tick
	PullToAmbient  = 0.1  // fraction of the distance to ambient recovered per tick
	AnomalyRate    = 0.1  // probability that a tick is a true anomaly
	minLedMs       = 10
	maxLedMs       = 10000
)

const writeWait = 5 * time.Second

type device struct {
	name string
	gpio int
	on   bool
}

// state is the firmware's mutable configuration plus the simulated environment.
type state struct {
	thresholds models.ThresholdSet
	led        models.LedPattern
	colors     models.ColorSet
	settings   models.NetworkSettings
	devices    []device

	temp, humi float64
	correct    int
	total      int
}

func defaultState() state {
	return state{
		thresholds: models.DefaultThresholds(),
		led: models.LedPattern{
			ColdOn: 1000, ColdOff: 1000,
			NormalOn: 200, NormalOff: 800,
			HotOn: 150, HotOff: 150,
		},
		colors: models.ColorSet{Dry: "#0000FF", OK: "#00FF00", Humid: "#FF0000"},
		devices: []device{
			{name: "LED1", gpio: 48},
			{name: "LED2", gpio: 45},
		},
		temp: AmbientTempC,
		humi: AmbientHumiPct,
	}
}

// Board is a simulated board serving any number of websocket clients.
type Board struct {
	mu  sync.Mutex
	st  state
	rng *rand.Rand

	clientsMu sync.Mutex
	clients   map[*client]struct{}

	upgrader websocket.Upgrader
	log      *logger.Logger
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewBoard returns a board in its factory state. seed makes the readings reproducible.
func NewBoard(seed uint64, log *logger.Logger) *Board {
	return &Board{
		st:      defaultState(),
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log.Named("boardsim"),
	}
}

// ServeHTTP upgrades to a websocket and handles commands until the client leaves.
func (b *Board) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	c := &client{conn: conn}
	b.clientsMu.Lock()
	b.clients[c] = struct{}{}
	b.clientsMu.Unlock()
	b.log.Infow("client_connected", "remote", r.RemoteAddr)

	defer func() {
		b.drop(c)
		b.log.Infow("client_disconnected", "remote", r.RemoteAddr)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		for _, reply := range b.Handle(data) {
			b.broadcast(reply)
		}
	}
}

// Clients returns the number of connected clients.
func (b *Board) Clients() int {
	b.clientsMu.Lock()
	defer b.clientsMu.Unlock()
	return len(b.clients)
}

// Handle applies one command and returns the frames the firmware would answer
// with. Malformed commands are ignored.
func (b *Board) Handle(raw []byte) [][]byte {
	var msg struct {
		Page  string          `json:"page"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		b.log.Warnw("command_parse_failed", "err", err)
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch msg.Page {
	case models.PageGetConfig:
		return frames(b.configLocked())

	case models.PageDevice:
		var cmd models.DeviceCommand
		if json.Unmarshal(msg.Value, &cmd) != nil {
			return nil
		}
		for i := range b.st.devices {
			if b.st.devices[i].name == cmd.Name {
				b.st.devices[i].on = models.IsOnStatus(cmd.Status)
			}
		}
		b.log.Infow("device_set", "name", cmd.Name, "gpio", cmd.GPIO, "status", cmd.Status)
		// The firmware does not echo device commands.
		return nil

	case models.PageSetting:
		var s models.NetworkSettings
		if json.Unmarshal(msg.Value, &s) != nil {
			return nil
		}
		b.st.settings = s
		return frames(models.Envelope{Page: models.PageSettingSaved})

	case models.PageThreshold:
		var p models.ThresholdsPatch
		if json.Unmarshal(msg.Value, &p) != nil {
			return nil
		}
		b.st.thresholds = repairThresholds(b.st.thresholds, p)
		return frames(models.Envelope{Page: models.PageThresholdSaved})

	case models.PageLedPattern:
		var p models.LedPatternPatch
		if json.Unmarshal(msg.Value, &p) != nil {
			return nil
		}
		l := &b.st.led
		l.ColdOn = clampMs(p.ColdOn, l.ColdOn)
		l.ColdOff = clampMs(p.ColdOff, l.ColdOff)
		l.NormalOn = clampMs(p.NormalOn, l.NormalOn)
		l.NormalOff = clampMs(p.NormalOff, l.NormalOff)
		l.HotOn = clampMs(p.HotOn, l.HotOn)
		l.HotOff = clampMs(p.HotOff, l.HotOff)
		return frames(models.Envelope{Page: models.PageLedPatternSaved})

	case models.PageNeoColor:
		var c models.ColorSet
		if json.Unmarshal(msg.Value, &c) != nil {
			return nil
		}
		setColor(&b.st.colors.Dry, c.Dry)
		setColor(&b.st.colors.OK, c.OK)
		setColor(&b.st.colors.Humid, c.Humid)
		return frames(models.Envelope{Page: models.PageNeoColorSaved})

	case models.PageResetFactory:
		b.st = defaultState()
		b.log.Infow("factory_reset")
		return frames(models.Envelope{Page: models.PageResetDone})

	default:
		return nil
	}
}

// Run ticks at the given interval until ctx is canceled, broadcasting a
// sensor reading and an anomaly score each tick.
func (b *Board) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, f := range b.Step() {
				b.broadcast(f)
			}
		}
	}
}

// Step advances the simulated environment by one tick and returns the
// sensor and tinyml frames.
func (b *Board) Step() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.st.temp = b.drift(b.st.temp, AmbientTempC, TempStepC)
	b.st.humi = clamp(b.drift(b.st.humi, AmbientHumiPct, HumiStepPct), 0, 100)

	gtAnom := b.rng.Float64() < AnomalyRate
	score := b.rng.Float64() * 0.3
	if gtAnom {
		score = 0.6 + b.rng.Float64()*0.6
	}
	predAnom := score > 0.5
	b.st.total++
	if predAnom == gtAnom {
		b.st.correct++
	}
	acc := 100 * float64(b.st.correct) / float64(b.st.total)

	return frames(
		map[string]any{"page": models.PageSensor, "temp": round1(b.st.temp), "humi": round1(b.st.humi)},
		map[string]any{
			"page":  models.PageTinyML,
			"score": score,
			"pred":  anomTag(predAnom),
			"gt":    anomTag(gtAnom),
			"acc":   acc,
		},
	)
}

// DeviceOn reports the simulated output state of a device.
func (b *Board) DeviceOn(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.st.devices {
		if d.name == name {
			return d.on
		}
	}
	return false
}

// SetDevice changes an output as if toggled on the board itself.
func (b *Board) SetDevice(name string, on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.st.devices {
		if b.st.devices[i].name == name {
			b.st.devices[i].on = on
		}
	}
}

// Thresholds returns the board's current thresholds.
func (b *Board) Thresholds() models.ThresholdSet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st.thresholds
}

func (b *Board) configLocked() models.Envelope {
	devs := make([]map[string]any, 0, len(b.st.devices))
	for _, d := range b.st.devices {
		devs = append(devs, map[string]any{
			"name":   d.name,
			"gpio":   d.gpio,
			"status": models.StatusFromBool(d.on),
		})
	}
	return models.Envelope{Page: models.PageConfig, Value: map[string]any{
		"thresholds": b.st.thresholds,
		"ledPattern": b.st.led,
		"neoColors":  b.st.colors,
		"devices":    devs,
		"settings":   b.st.settings,
	}}
}

func (b *Board) broadcast(frame []byte) {
	b.clientsMu.Lock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.clientsMu.Unlock()

	for _, c := range clients {
		c.writeMu.Lock()
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := c.conn.WriteMessage(websocket.TextMessage, frame)
		c.writeMu.Unlock()
		if err != nil {
			b.log.Infow("ws_write_failed", "err", err)
			b.drop(c)
		}
	}
}

func (b *Board) drop(c *client) {
	b.clientsMu.Lock()
	_, ok := b.clients[c]
	delete(b.clients, c)
	b.clientsMu.Unlock()
	if ok {
		_ = c.conn.Close()
	}
}

// drift takes a bounded random step pulled toward the ambient value.
func (b *Board) drift(v, ambient, step float64) float64 {
	v += (ambient - v) * PullToAmbient
	return v + (b.rng.Float64()*2-1)*step
}

// repairThresholds mirrors the firmware: humidity is clamped to 0..100 and an
// inverted range is rebuilt around its midpoint.
func repairThresholds(cur models.ThresholdSet, p models.ThresholdsPatch) models.ThresholdSet {
	t := cur
	if p.TempCold != nil {
		t.TempCold = *p.TempCold
	}
	if p.TempHot != nil {
		t.TempHot = *p.TempHot
	}
	if p.HumiDry != nil {
		t.HumiDry = *p.HumiDry
	}
	if p.HumiHumid != nil {
		t.HumiHumid = *p.HumiHumid
	}
	t.HumiDry = clamp(t.HumiDry, 0, 100)
	t.HumiHumid = clamp(t.HumiHumid, 0, 100)

	if t.TempCold > t.TempHot {
		mid := (t.TempCold + t.TempHot) / 2
		t.TempCold, t.TempHot = mid-0.5, mid+0.5
	}
	if t.HumiDry > t.HumiHumid {
		mid := (t.HumiDry + t.HumiHumid) / 2
		t.HumiDry = math.Max(mid-1, 0)
		t.HumiHumid = math.Min(mid+1, 100)
	}
	return t
}

func clampMs(v *int, cur int) int {
	if v == nil {
		return cur
	}
	return int(clamp(float64(*v), minLedMs, maxLedMs))
}

// setColor keeps the old color unless hex is a valid "#RRGGBB".
func setColor(dst *string, hex string) {
	if len(hex) != 7 || hex[0] != '#' {
		return
	}
	if strings.Trim(strings.ToLower(hex[1:]), "0123456789abcdef") != "" {
		return
	}
	*dst = strings.ToUpper(hex)
}

func frames(values ...any) [][]byte {
	out := make([][]byte, 0, len(values))
	for _, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			continue
		}
		out = append(out, b)
	}
	return out
}

// helpers
func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func anomTag(anom bool) string {
	if anom {
		return models.AnomalyTag
	}
	return "OK"
}
