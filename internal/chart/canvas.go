package chart

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"sensor_console/internal/history"
)

// Plot margins in pixels.
const (
	marginLeft   = 40
	marginRight  = 10
	marginTop    = 10
	marginBottom = 24

	gridLevels  = 5
	lineWidth   = 2
	paddingFrac = 0.1
)

var (
	canvasBackground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	canvasGrid       = color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	canvasAxisText   = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
	canvasTemp       = color.RGBA{R: 0xf3, G: 0x9c, B: 0x12, A: 0xff}
	canvasHumi       = color.RGBA{R: 0x34, G: 0x98, B: 0xdb, A: 0xff}
)

// Canvas draws the chart by hand onto an RGBA image. Every Update is a full redraw.
type Canvas struct {
	mu     sync.Mutex
	width  int
	height int
	last   history.Snapshot
	frame  *image.RGBA
	lo, hi float64
}

// NewCanvas returns the fallback renderer.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{width: width, height: height}
}

// Kind implements Renderer.
func (c *Canvas) Kind() string { return KindCanvas }

// Update implements Renderer.
func (c *Canvas) Update(s history.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = s
	c.drawLocked()
	return nil
}

// Resize implements Renderer. The frame is redrawn at the new size immediately.
func (c *Canvas) Resize(width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = width, height
	c.drawLocked()
	return nil
}

// WritePNG implements Renderer.
func (c *Canvas) WritePNG(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frame == nil {
		return ErrNoFrame
	}
	return png.Encode(w, c.frame)
}

// Range returns the padded value range used by the last draw.
func (c *Canvas) Range() (lo, hi float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lo, c.hi
}

// Size returns the current drawing area.
func (c *Canvas) Size() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Frame returns the last drawn image, or nil.
func (c *Canvas) Frame() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Scale returns the shared value range of both series, padded by 10% and
// widened by ±1 when every value is equal.
func Scale(temp, humi []float64) (lo, hi float64, ok bool) {
	if len(temp)+len(humi) == 0 {
		return 0, 0, false
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, vals := range [][]float64{temp, humi} {
		for _, v := range vals {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	pad := (hi - lo) * paddingFrac
	lo -= pad
	hi += pad
	if lo == hi {
		lo--
		hi++
	}
	return lo, hi, true
}

func (c *Canvas) drawLocked() {
	if c.last.Len() == 0 {
		c.frame = nil
		return
	}
	if c.width <= 0 || c.height <= 0 {
		return
	}
	lo, hi, ok := Scale(c.last.Temp, c.last.Humi)
	if !ok {
		return
	}
	c.lo, c.hi = lo, hi

	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(canvasBackground), image.Point{}, draw.Src)

	plotW := float64(c.width - marginLeft - marginRight)
	plotH := float64(c.height - marginTop - marginBottom)

	for i := 0; i < gridLevels; i++ {
		y := marginTop + plotH/float64(gridLevels-1)*float64(i)
		hline(img, marginLeft, c.width-marginRight, int(math.Round(y)), canvasGrid)
		val := hi - (hi-lo)/float64(gridLevels-1)*float64(i)
		drawTextRight(img, strconv.Itoa(int(math.Round(val))), marginLeft-5, int(math.Round(y))+3, canvasAxisText)
	}

	mapY := func(v float64) float64 {
		return marginTop + plotH*(1-(v-lo)/(hi-lo))
	}
	n := c.last.Len()
	stepX := plotW
	if n > 1 {
		stepX = plotW / float64(n-1)
	}
	polyline(img, c.last.Temp, stepX, mapY, canvasTemp)
	polyline(img, c.last.Humi, stepX, mapY, canvasHumi)

	c.frame = img
}

func polyline(img *image.RGBA, values []float64, stepX float64, mapY func(float64) float64, col color.Color) {
	if len(values) == 0 {
		return
	}
	px, py := marginLeft, int(math.Round(mapY(values[0])))
	if len(values) == 1 {
		thickPoint(img, px, py, col)
		return
	}
	for i := 1; i < len(values); i++ {
		x := int(math.Round(marginLeft + stepX*float64(i)))
		y := int(math.Round(mapY(values[i])))
		line(img, px, py, x, y, col)
		px, py = x, y
	}
}

// line draws a segment with Bresenham's algorithm.
func line(img *image.RGBA, x0, y0, x1, y1 int, col color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		thickPoint(img, x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func thickPoint(img *image.RGBA, x, y int, col color.Color) {
	for oy := 0; oy < lineWidth; oy++ {
		for ox := 0; ox < lineWidth; ox++ {
			img.Set(x+ox, y+oy, col)
		}
	}
}

func hline(img *image.RGBA, x0, x1, y int, col color.Color) {
	for x := x0; x <= x1; x++ {
		img.Set(x, y, col)
	}
}

func drawTextRight(img *image.RGBA, s string, right, baseline int, col color.Color) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Ceil()
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(right-w, baseline),
	}
	d.DrawString(s)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
