package service

import (
	"io"
	"sync/atomic"

	"sensor_console/internal/history"
	"sensor_console/internal/logger"
	"sensor_console/internal/metrics"
	"sensor_console/internal/models"
	"sensor_console/internal/router"
)

const resetNotice = "Factory reset done. The board is restarting..."

// DashboardSnapshot is everything a viewer needs to draw the console.
type DashboardSnapshot struct {
	Revision      uint64                        `json:"revision"`
	Connected     bool                          `json:"connected"`
	Devices       []DeviceView                  `json:"devices"`
	Sensor        SensorView                    `json:"sensor"`
	History       history.Snapshot              `json:"history"`
	ChartRenderer string                        `json:"chart_renderer"`
	TinyML        TinyMLView                    `json:"tinyml"`
	Thresholds    models.ThresholdSet           `json:"thresholds"`
	LedPattern    models.LedPattern             `json:"led_pattern"`
	Colors        models.ColorSet               `json:"neo_colors"`
	Settings      models.NetworkSettings        `json:"settings"`
	Status        map[router.Form]StatusMessage `json:"status"`
	Notice        string                        `json:"notice,omitempty"`
}

// Dashboard is the inbound side of the console: it reacts to board messages
// and link transitions, and assembles snapshots for viewers.
type Dashboard struct {
	devices *DeviceRegistry
	config  *ConfigStore
	feed    *LiveFeed
	status  *StatusBoard
	journal *EventLogService
	changes *ChangeFeed
	metrics *metrics.Metrics
	log     *logger.Logger

	chartKind string
	connected atomic.Bool
}

var _ router.Handlers = (*Dashboard)(nil)

func (d *Dashboard) OnSensor(r models.SensorReading) { d.feed.OnSensor(r) }

func (d *Dashboard) OnTinyML(a models.AnomalyScore) { d.feed.OnTinyML(a) }

func (d *Dashboard) OnConfig(cfg models.BoardConfig) { d.config.ApplyFullConfig(cfg) }

func (d *Dashboard) OnDevice(st models.DeviceStatus) { d.devices.ReconcileOne(st.Name, st.Status) }

// OnSaved shows the success message of the acknowledged form.
func (d *Dashboard) OnSaved(form router.Form) {
	d.status.Ack(form)
	d.journal.Record(models.EventAck, "board saved "+string(form), map[string]any{"form": string(form)})
}

// OnResetDone raises the restart notice and reloads every mirror.
func (d *Dashboard) OnResetDone() {
	d.status.SetNotice(resetNotice)
	d.journal.Record(models.EventReset, "factory reset done", nil)
	d.Reload()
}

// Reload returns every mirror to its start-up state and tells viewers to reload.
// The notice and the link state survive.
func (d *Dashboard) Reload() {
	d.devices.Reset()
	d.config.Reset()
	d.feed.Reset()
	d.status.Reset()
	d.log.Infow("dashboard_reloaded")
	d.changes.Changed(SectionReload)
}

// OnOpen implements channel.Observer.
func (d *Dashboard) OnOpen() {
	d.connected.Store(true)
	d.metrics.LinkUp(true)
	d.journal.Record(models.EventConnect, "board connected", nil)
	d.changes.Changed(SectionLink)
}

// OnClose implements channel.Observer.
func (d *Dashboard) OnClose(err error) {
	d.connected.Store(false)
	d.metrics.LinkUp(false)
	var meta map[string]any
	if err != nil {
		meta = map[string]any{"error": err.Error()}
	}
	d.journal.Record(models.EventDisconnect, "board disconnected", meta)
	d.changes.Changed(SectionLink)
}

// Connected reports the board link state.
func (d *Dashboard) Connected() bool { return d.connected.Load() }

// Snapshot assembles the current dashboard. Sections are read one at a time,
// so a snapshot taken during an update may mix old and new sections; the
// revision tells a viewer to fetch again.
func (d *Dashboard) Snapshot() DashboardSnapshot {
	rev := d.changes.Revision()
	return DashboardSnapshot{
		Revision:      rev,
		Connected:     d.Connected(),
		Devices:       d.devices.View(),
		Sensor:        d.feed.Sensor(),
		History:       d.feed.History(),
		ChartRenderer: d.chartKind,
		TinyML:        d.feed.TinyML(),
		Thresholds:    d.config.Thresholds(),
		LedPattern:    d.config.LedPattern(),
		Colors:        d.config.Colors(),
		Settings:      d.config.Settings(),
		Status:        d.status.Messages(),
		Notice:        d.status.Notice(),
	}
}

func (d *Dashboard) WriteChart(w io.Writer) error { return d.feed.WriteChart(w) }

func (d *Dashboard) ResizeChart(width, height int) error { return d.feed.ResizeChart(width, height) }

func (d *Dashboard) DismissNotice() { d.status.DismissNotice() }
