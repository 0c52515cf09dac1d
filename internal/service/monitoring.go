package service

import (
	"fmt"
	"io"
	"sync"

	"sensor_console/internal/chart"
	"sensor_console/internal/clock"
	"sensor_console/internal/history"
	"sensor_console/internal/logger"
	"sensor_console/internal/models"
)

// DefaultMaxBars bounds the anomaly bar strip.
const DefaultMaxBars = 50

const (
	labelFormat = "15:04:05"
	minBarPct   = 5.0
)

// Level is the environment classification of a reading.
type Level string

const (
	LevelNormal  Level = "normal"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
	LevelOffline Level = "offline"
)

var levelLabel = map[Level]string{
	LevelNormal:  "NORMAL",
	LevelWarning: "WARNING",
	LevelDanger:  "DANGER",
	LevelOffline: "DISCONNECTED",
}

var levelColor = map[Level]string{
	LevelNormal:  "#2ecc71",
	LevelWarning: "#f39c12",
	LevelDanger:  "#e74c3c",
	LevelOffline: "#95a5a6",
}

// Label is the text shown for the level.
func (l Level) Label() string { return levelLabel[l] }

// Color is the "#rrggbb" color of the level.
func (l Level) Color() string { return levelColor[l] }

// Classify evaluates danger before warning. Bounds are exclusive.
func Classify(temp, humi float64, t models.ThresholdSet) Level {
	switch {
	case temp > t.TempHot || humi > t.HumiHumid:
		return LevelDanger
	case temp < t.TempCold || humi < t.HumiDry:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// SensorView is the rendered environment card.
type SensorView struct {
	TempText   string `json:"temp_text"`
	HumiText   string `json:"humi_text"`
	Level      Level  `json:"level"`
	LevelText  string `json:"level_text"`
	LevelColor string `json:"level_color"`
	Samples    int    `json:"samples"`
}

// AnomalyBar is one column of the anomaly strip.
type AnomalyBar struct {
	HeightPct float64 `json:"height_pct"`
	PredAnom  bool    `json:"pred_anom"`
	GTAnom    bool    `json:"gt_anom"`
}

// TinyMLView is the rendered anomaly card.
type TinyMLView struct {
	ScoreText string       `json:"score_text"`
	PredText  string       `json:"pred_text"`
	GTText    string       `json:"gt_text"`
	AccText   string       `json:"acc_text"`
	Bars      []AnomalyBar `json:"bars"`
}

// ThresholdSource supplies the live thresholds for classification.
type ThresholdSource interface {
	Thresholds() models.ThresholdSet
}

// LiveFeed owns the sensor card, the rolling history with its chart and the
// anomaly strip.
type LiveFeed struct {
	mu      sync.Mutex
	sensor  SensorView
	tiny    TinyMLView
	maxBars int

	history    *history.Buffer
	renderer   chart.Renderer
	thresholds ThresholdSource
	clock      clock.Clock
	notifier   Notifier
	log        *logger.Logger
}

// NewLiveFeed wires the feed to its history buffer and chart.
func NewLiveFeed(buf *history.Buffer, r chart.Renderer, th ThresholdSource, maxBars int, c clock.Clock, n Notifier, log *logger.Logger) *LiveFeed {
	if maxBars <= 0 {
		maxBars = DefaultMaxBars
	}
	if c == nil {
		c = clock.Real{}
	}
	f := &LiveFeed{
		maxBars:    maxBars,
		history:    buf,
		renderer:   r,
		thresholds: th,
		clock:      c,
		notifier:   n,
		log:        log.Named("livefeed"),
	}
	f.resetLocked()
	return f
}

// OnSensor updates the card and, for a complete reading, appends to the chart.
func (f *LiveFeed) OnSensor(r models.SensorReading) {
	f.mu.Lock()
	if r.Temp != nil {
		f.sensor.TempText = fmt.Sprintf("%.1f", *r.Temp)
	}
	if r.Humi != nil {
		f.sensor.HumiText = fmt.Sprintf("%.0f", *r.Humi)
	}
	if r.Temp == nil || r.Humi == nil {
		f.setLevelLocked(LevelOffline)
		f.mu.Unlock()
		f.notifier.Changed(SectionSensor)
		return
	}
	f.setLevelLocked(Classify(*r.Temp, *r.Humi, f.thresholds.Thresholds()))
	f.history.Push(f.clock.Now().Format(labelFormat), *r.Temp, *r.Humi)
	f.sensor.Samples = f.history.Len()
	snap := f.history.Snapshot()
	f.mu.Unlock()

	if err := f.renderer.Update(snap); err != nil {
		f.log.Errorw("chart_update_failed", "renderer", f.renderer.Kind(), "err", err)
	}
	f.notifier.Changed(SectionSensor)
	f.notifier.Changed(SectionChart)
}

// OnTinyML updates the anomaly card. A bar is added only for a numeric score.
func (f *LiveFeed) OnTinyML(a models.AnomalyScore) {
	f.mu.Lock()
	if a.Score != nil {
		score := *a.Score
		f.tiny.ScoreText = fmt.Sprintf("%.3f", score)
		f.tiny.Bars = append(f.tiny.Bars, AnomalyBar{
			HeightPct: barHeight(score),
			PredAnom:  a.Pred == models.AnomalyTag,
			GTAnom:    a.GT == models.AnomalyTag,
		})
		if over := len(f.tiny.Bars) - f.maxBars; over > 0 {
			f.tiny.Bars = append([]AnomalyBar(nil), f.tiny.Bars[over:]...)
		}
	}
	f.tiny.PredText = anomalyText(a.Pred)
	f.tiny.GTText = anomalyText(a.GT)
	if a.Acc != nil {
		f.tiny.AccText = fmt.Sprintf("%.1f", *a.Acc)
	}
	f.mu.Unlock()
	f.notifier.Changed(SectionTinyML)
}

// Sensor returns the current environment card.
func (f *LiveFeed) Sensor() SensorView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sensor
}

// TinyML returns the current anomaly card.
func (f *LiveFeed) TinyML() TinyMLView {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.tiny
	v.Bars = append([]AnomalyBar(nil), f.tiny.Bars...)
	return v
}

// History returns the chart samples oldest first.
func (f *LiveFeed) History() history.Snapshot {
	return f.history.Snapshot()
}

// WriteChart encodes the latest chart frame as PNG.
func (f *LiveFeed) WriteChart(w io.Writer) error {
	return f.renderer.WritePNG(w)
}

// ResizeChart resizes the chart and redraws it.
func (f *LiveFeed) ResizeChart(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("chart size %dx%d: must be positive", width, height)
	}
	if err := f.renderer.Resize(width, height); err != nil {
		return err
	}
	f.notifier.Changed(SectionChart)
	return nil
}

// Reset empties the cards, the history and the chart.
func (f *LiveFeed) Reset() {
	f.mu.Lock()
	f.resetLocked()
	f.mu.Unlock()
	if err := f.renderer.Update(history.Snapshot{}); err != nil {
		f.log.Errorw("chart_reset_failed", "err", err)
	}
	f.notifier.Changed(SectionSensor)
	f.notifier.Changed(SectionTinyML)
}

func (f *LiveFeed) resetLocked() {
	f.history.Reset()
	f.sensor = SensorView{TempText: "--", HumiText: "--"}
	f.setLevelLocked(LevelOffline)
	f.tiny = TinyMLView{ScoreText: "--", PredText: "--", GTText: "--", AccText: "--"}
}

func (f *LiveFeed) setLevelLocked(l Level) {
	f.sensor.Level = l
	f.sensor.LevelText = l.Label()
	f.sensor.LevelColor = l.Color()
}

func barHeight(score float64) float64 {
	h := score
	if h > 1 {
		h = 1
	}
	h *= 100
	if h < minBarPct {
		h = minBarPct
	}
	return h
}

func anomalyText(tag string) string {
	if tag == models.AnomalyTag {
		return "anomaly"
	}
	return "normal"
}
