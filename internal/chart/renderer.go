// Package chart draws the rolling temperature/humidity history.
//
// Two strategies exist: a delegate to go-chart and a hand-drawn canvas used
// when the charting library cannot be used. The strategy is picked once by New.
package chart

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"sensor_console/internal/history"
)

// Renderer kinds accepted by New (chart.renderer in the config).
const (
	KindGoChart = "gochart"
	KindCanvas  = "canvas"
)

// Default canvas size used until the surface reports its layout.
const (
	DefaultWidth  = 640
	DefaultHeight = 320
)

// ErrNoFrame is returned by WritePNG before anything has been drawn.
var ErrNoFrame = errors.New("chart: nothing drawn yet")

// Renderer turns history snapshots into an image.
type Renderer interface {
	// Kind names the strategy in use.
	Kind() string
	// Update redraws the whole chart from s.
	Update(s history.Snapshot) error
	// Resize resynchronizes the drawing area and redraws the last snapshot.
	Resize(width, height int) error
	// WritePNG writes the current frame.
	WritePNG(w io.Writer) error
}

// New selects the rendering strategy. An empty kind selects go-chart.
func New(kind string, width, height int) (Renderer, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindGoChart:
		return NewGoChart(width, height), nil
	case KindCanvas:
		return NewCanvas(width, height), nil
	default:
		return nil, fmt.Errorf("unknown chart renderer %q", kind)
	}
}
