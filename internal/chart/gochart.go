package chart

import (
	"bytes"
	"io"
	"math"
	"sync"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"sensor_console/internal/history"
)

const (
	tempSeriesName = "Temperature (°C)"
	humiSeriesName = "Humidity (%)"
	maxXTicks      = 6
)

var (
	tempStroke = drawing.ColorFromHex("f39c12")
	humiStroke = drawing.ColorFromHex("3498db")
	gridStroke = drawing.ColorFromHex("f0f0f0")
)

// GoChart delegates drawing to github.com/wcharczuk/go-chart. Each Update is a
// synchronous append-and-redraw; there is no animation.
type GoChart struct {
	mu     sync.Mutex
	width  int
	height int
	last   history.Snapshot
	frame  []byte
}

// NewGoChart returns the primary renderer.
func NewGoChart(width, height int) *GoChart {
	return &GoChart{width: width, height: height}
}

// Kind implements Renderer.
func (g *GoChart) Kind() string { return KindGoChart }

// Update implements Renderer.
func (g *GoChart) Update(s history.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = s
	return g.redrawLocked()
}

// Resize implements Renderer.
func (g *GoChart) Resize(width, height int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.width, g.height = width, height
	return g.redrawLocked()
}

// WritePNG implements Renderer.
func (g *GoChart) WritePNG(w io.Writer) error {
	g.mu.Lock()
	frame := g.frame
	g.mu.Unlock()
	if frame == nil {
		return ErrNoFrame
	}
	_, err := w.Write(frame)
	return err
}

func (g *GoChart) redrawLocked() error {
	// go-chart needs a non-degenerate x range.
	if g.last.Len() < 2 {
		g.frame = nil
		return nil
	}
	if g.width <= 0 || g.height <= 0 {
		return nil
	}
	ch := g.build(g.last)
	var buf bytes.Buffer
	if err := ch.Render(gochart.PNG, &buf); err != nil {
		return err
	}
	g.frame = buf.Bytes()
	return nil
}

func (g *GoChart) build(s history.Snapshot) gochart.Chart {
	xs := make([]float64, s.Len())
	for i := range xs {
		xs[i] = float64(i)
	}

	ch := gochart.Chart{
		Width:  g.width,
		Height: g.height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 28, Left: 12, Right: 12, Bottom: 12},
		},
		XAxis: gochart.XAxis{
			Ticks: xTicks(s.Labels),
			Style: gochart.Style{FontSize: 8},
		},
		YAxis: gochart.YAxis{
			Range: yRange(s),
			Style: gochart.Style{FontSize: 8},
			GridMajorStyle: gochart.Style{
				StrokeColor: gridStroke,
				StrokeWidth: 1,
			},
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    tempSeriesName,
				XValues: xs,
				YValues: s.Temp,
				Style: gochart.Style{
					StrokeColor: tempStroke,
					FillColor:   tempStroke.WithAlpha(26),
					StrokeWidth: 2,
				},
			},
			gochart.ContinuousSeries{
				Name:    humiSeriesName,
				XValues: xs,
				YValues: s.Humi,
				Style: gochart.Style{
					StrokeColor: humiStroke,
					FillColor:   humiStroke.WithAlpha(26),
					StrokeWidth: 2,
				},
			},
		},
	}
	ch.Elements = []gochart.Renderable{gochart.LegendThin(&ch)}
	return ch
}

// xTicks spreads at most maxXTicks labels across the window.
func xTicks(labels []string) []gochart.Tick {
	n := len(labels)
	if n == 0 {
		return nil
	}
	step := int(math.Ceil(float64(n) / maxXTicks))
	if step < 1 {
		step = 1
	}
	ticks := make([]gochart.Tick, 0, maxXTicks+1)
	for i := 0; i < n; i += step {
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: labels[i]})
	}
	return ticks
}

// yRange includes zero and every value, with 10% headroom on the sides that
// extend past it. Sub-zero readings pull the floor down.
func yRange(s history.Snapshot) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, vals := range [][]float64{s.Temp, s.Humi} {
		for _, v := range vals {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi > 0 {
		hi = math.Ceil(hi * 1.1)
	}
	if lo < 0 {
		lo = math.Floor(lo * 1.1)
	}
	if lo == hi {
		hi = 1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}
