// Package board implements the drawing surface: a fixed-size pixel buffer
// plus the tool state and stroke session that turn pointer input into pixels.
package board

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const (
	Width  = 800
	Height = 600

	MinBrushSize     = 1
	MaxBrushSize     = 50
	DefaultBrushSize = 5
)

var (
	// ErrInvalidColor is returned for colour strings that are not #rgb or #rrggbb.
	ErrInvalidColor = errors.New("invalid color")
	// ErrUndecodableImage wraps every overlay payload that is not a known image format.
	ErrUndecodableImage = errors.New("undecodable image")
	// ErrUnmounted is returned by operations that report errors when the
	// surface has no pixel buffer.
	ErrUnmounted = errors.New("drawing surface not mounted")
)

var (
	White = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Black = color.RGBA{A: 0xff}
)

// Point is a canvas-local position in pixels.
type Point struct {
	X, Y float64
}

// Tool is the user-controlled drawing state. Only the current values are
// kept.
type Tool struct {
	Color     color.RGBA
	BrushSize int
	Erase     bool
}

// stroke is the session opened by BeginStroke. Colour and width are sampled
// once when it starts.
type stroke struct {
	active bool
	last   Point
	color  color.RGBA
	width  float64
}

// Controller owns the pixel buffer and translates stroke, clear and overlay
// operations into drawing calls against it.
//
// A nil or zero Controller behaves like a surface that has not been mounted
// yet: stroke operations are silently ignored.
type Controller struct {
	mu         sync.Mutex
	img        *image.RGBA
	dc         *gg.Context
	background color.RGBA
	tool       Tool
	stroke     stroke
	log        *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithBackground sets the colour used by Clear and by erase strokes. The
// colour is made fully opaque.
func WithBackground(c color.Color) Option {
	return func(ctl *Controller) {
		n := color.NRGBAModel.Convert(c).(color.NRGBA)
		n.A = 0xff
		ctl.background = color.RGBAModel.Convert(n).(color.RGBA)
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(ctl *Controller) {
		if l != nil {
			ctl.log = l
		}
	}
}

// New mounts a Width×Height surface filled with the background colour.
func New(opts ...Option) *Controller {
	c := &Controller{
		background: White,
		tool:       Tool{Color: Black, BrushSize: DefaultBrushSize},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.img = image.NewRGBA(image.Rect(0, 0, Width, Height))
	c.dc = gg.NewContextForRGBA(c.img)
	c.dc.SetLineCap(gg.LineCapRound)
	c.dc.SetLineJoin(gg.LineJoinRound)
	c.fill()
	return c
}

// acquire locks c and reports whether the surface is mounted. The caller
// unlocks only when acquire returns true.
func (c *Controller) acquire() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	if c.img == nil {
		c.mu.Unlock()
		return false
	}
	return true
}

func (c *Controller) fill() {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(c.background), image.Point{}, draw.Src)
}

// BeginStroke opens a stroke session at (x, y) with the current tool state.
// Points outside the surface are ignored. Nothing is drawn until the stroke
// is extended.
func (c *Controller) BeginStroke(x, y float64) {
	if !c.acquire() {
		return
	}
	defer c.mu.Unlock()

	if x < 0 || y < 0 || x >= Width || y >= Height {
		return
	}
	col := c.tool.Color
	if c.tool.Erase {
		col = c.background
	}
	c.stroke = stroke{
		active: true,
		last:   Point{X: x, Y: y},
		color:  col,
		width:  float64(c.tool.BrushSize),
	}
	c.log.Debug("begin stroke",
		zap.Float64("x", x),
		zap.Float64("y", y),
		zap.Int("size", c.tool.BrushSize),
		zap.Bool("erase", c.tool.Erase))
}

// ExtendStroke draws a segment from the last point of the active stroke to
// (x, y). It does nothing when no stroke is active or when x or y is NaN or
// infinite.
func (c *Controller) ExtendStroke(x, y float64) {
	if !c.acquire() {
		return
	}
	defer c.mu.Unlock()

	if !c.stroke.active {
		return
	}
	if !finite(x) || !finite(y) {
		return
	}
	p := Point{X: x, Y: y}
	s := c.stroke
	c.stroke.last = p

	// The rasteriser works in 26.6 fixed point, so far-away endpoints are
	// pulled in along the segment before stroking.
	a, b, ok := clipSegment(s.last, p, strokeLimit)
	if !ok {
		return
	}
	c.dc.SetColor(s.color)
	if a == b {
		// A zero-length segment still gets its round caps.
		c.dc.DrawCircle(a.X, a.Y, s.width/2)
		c.dc.Fill()
	} else {
		c.dc.SetLineWidth(s.width)
		c.dc.MoveTo(a.X, a.Y)
		c.dc.LineTo(b.X, b.Y)
		c.dc.Stroke()
	}
}

// strokeLimit is the region segments are clipped to. It is much larger than
// the surface plus the widest brush, so clipping never changes a pixel.
var strokeLimit = image.Rect(-4*Width, -4*Height, 5*Width, 5*Height)

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// clipSegment clips a→b to r (Liang–Barsky). It reports false when no part
// of the segment lies inside r.
func clipSegment(a, b Point, r image.Rectangle) (Point, Point, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	if !finite(dx) || !finite(dy) {
		return a, b, false
	}
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, a.X - float64(r.Min.X)},
		{dx, float64(r.Max.X) - a.X},
		{-dy, a.Y - float64(r.Min.Y)},
		{dy, float64(r.Max.Y) - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return a, b, false
			}
			t0 = max(t0, t)
		} else {
			if t < t0 {
				return a, b, false
			}
			t1 = min(t1, t)
		}
	}
	ca, cb := a, b
	if t0 > 0 {
		ca = Point{X: a.X + t0*dx, Y: a.Y + t0*dy}
	}
	if t1 < 1 {
		cb = Point{X: a.X + t1*dx, Y: a.Y + t1*dy}
	}
	return ca, cb, true
}

// EndStroke closes the stroke session. It is idempotent.
func (c *Controller) EndStroke() {
	if !c.acquire() {
		return
	}
	defer c.mu.Unlock()

	if c.stroke.active {
		c.log.Debug("end stroke")
	}
	c.stroke.active = false
}

// Drawing reports whether a stroke session is active.
func (c *Controller) Drawing() bool {
	if !c.acquire() {
		return false
	}
	defer c.mu.Unlock()
	return c.stroke.active
}

// Clear resets every pixel to the background colour. An active stroke stays
// active and continues from its last point.
func (c *Controller) Clear() {
	if !c.acquire() {
		return
	}
	defer c.mu.Unlock()
	c.fill()
	c.log.Debug("clear")
}

// SetColor sets the colour for the next stroke.
func (c *Controller) SetColor(col color.Color) {
	if !c.acquire() {
		return
	}
	defer c.mu.Unlock()
	c.tool.Color = color.RGBAModel.Convert(col).(color.RGBA)
}

// SetColorHex parses s as #rgb or #rrggbb and sets it as the colour for the
// next stroke. The tool state is untouched on error.
func (c *Controller) SetColorHex(s string) error {
	col, err := ParseHex(s)
	if err != nil {
		return err
	}
	c.SetColor(col)
	return nil
}

// SetBrushSize clamps n to [MinBrushSize, MaxBrushSize], applies it to the
// next stroke and returns the applied size.
func (c *Controller) SetBrushSize(n int) int {
	size := ClampBrushSize(n)
	if !c.acquire() {
		return size
	}
	defer c.mu.Unlock()
	if size != n {
		c.log.Debug("brush size clamped", zap.Int("requested", n), zap.Int("applied", size))
	}
	c.tool.BrushSize = size
	return size
}

// ClampBrushSize limits n to the supported brush range.
func ClampBrushSize(n int) int {
	return min(max(n, MinBrushSize), MaxBrushSize)
}

// ToggleEraseMode flips erase mode and returns the new value.
func (c *Controller) ToggleEraseMode() bool {
	if !c.acquire() {
		return false
	}
	defer c.mu.Unlock()
	c.tool.Erase = !c.tool.Erase
	return c.tool.Erase
}

// SetEraseMode sets erase mode for the next stroke.
func (c *Controller) SetEraseMode(on bool) {
	if !c.acquire() {
		return
	}
	defer c.mu.Unlock()
	c.tool.Erase = on
}

// Tool returns the current tool state.
func (c *Controller) Tool() Tool {
	if !c.acquire() {
		return Tool{}
	}
	defer c.mu.Unlock()
	return c.tool
}

// Background returns the colour used by Clear and erase strokes.
func (c *Controller) Background() color.RGBA {
	if !c.acquire() {
		return color.RGBA{}
	}
	defer c.mu.Unlock()
	return c.background
}

// Bounds returns the pixel buffer bounds, or an empty rectangle when the
// surface is not mounted.
func (c *Controller) Bounds() image.Rectangle {
	if !c.acquire() {
		return image.Rectangle{}
	}
	defer c.mu.Unlock()
	return c.img.Bounds()
}

// At returns the pixel at (x, y).
func (c *Controller) At(x, y int) color.RGBA {
	if !c.acquire() {
		return color.RGBA{}
	}
	defer c.mu.Unlock()
	return c.img.RGBAAt(x, y)
}

// Snapshot returns a copy of the pixel buffer.
func (c *Controller) Snapshot() *image.RGBA {
	if !c.acquire() {
		return image.NewRGBA(image.Rectangle{})
	}
	defer c.mu.Unlock()
	dst := image.NewRGBA(c.img.Bounds())
	copy(dst.Pix, c.img.Pix)
	return dst
}

// CopyTo copies the pixel buffer into dst, which must have the surface's
// bounds. It reports whether anything was copied.
func (c *Controller) CopyTo(dst *image.RGBA) bool {
	if dst == nil || !c.acquire() {
		return false
	}
	defer c.mu.Unlock()
	if dst.Bounds() != c.img.Bounds() || dst.Stride != c.img.Stride {
		return false
	}
	copy(dst.Pix, c.img.Pix)
	return true
}

// EncodePNG writes a PNG snapshot of the pixel buffer to w.
func (c *Controller) EncodePNG(w io.Writer) error {
	if c == nil || c.Bounds().Empty() {
		return ErrUnmounted
	}
	return png.Encode(w, c.Snapshot())
}
