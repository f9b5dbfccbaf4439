package ui

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"LocalBoard/internal/board"
	"LocalBoard/internal/export"
)

// BoardWidget shows a drawing surface and feeds it pointer input.
type BoardWidget struct {
	widget.BaseWidget

	board *board.Controller
	img   *canvas.Image
	// frame backs img and is refilled in place on every redraw.
	frame *image.RGBA
	log   *zap.Logger

	// maxUpload caps image files read by OpenImage.
	maxUpload int64

	// OnError is called on the main goroutine when an action fails.
	OnError func(error)
	// OnToolChanged is called after the tool state changed.
	OnToolChanged func(board.Tool)
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

func NewBoardWidget(c *board.Controller, l *zap.Logger) *BoardWidget {
	if l == nil {
		l = zap.NewNop()
	}
	b := &BoardWidget{
		board:     c,
		log:       l,
		maxUpload: 10 << 20,
	}
	b.frame = c.Snapshot()
	b.img = canvas.NewImageFromImage(b.frame)
	b.img.FillMode = canvas.ImageFillStretch
	b.img.ScaleMode = canvas.ImageScalePixels
	b.img.SetMinSize(fyne.NewSize(board.Width, board.Height))
	b.ExtendBaseWidget(b)
	return b
}

func (b *BoardWidget) Board() *board.Controller { return b.board }

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.img)
}

// Redraw copies the surface into the displayed image.
func (b *BoardWidget) Redraw() {
	if !b.board.CopyTo(b.frame) {
		return
	}
	b.img.Refresh()
}

// toPixel maps a widget position to buffer coordinates. The image is
// stretched over the widget, so the mapping follows the current size.
func (b *BoardWidget) toPixel(p fyne.Position) (float64, float64) {
	size := b.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return float64(p.X), float64(p.Y)
	}
	return float64(p.X) * board.Width / float64(size.Width),
		float64(p.Y) * board.Height / float64(size.Height)
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.board.BeginStroke(b.toPixel(e.Position))
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.endStroke()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.extendStroke(e.Position)
}

func (b *BoardWidget) DragEnd() {
	b.endStroke()
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	b.extendStroke(e.Position)
}

func (b *BoardWidget) MouseOut() {
	b.endStroke()
}

func (b *BoardWidget) extendStroke(p fyne.Position) {
	if !b.board.Drawing() {
		return
	}
	b.board.ExtendStroke(b.toPixel(p))
	b.Redraw()
}

func (b *BoardWidget) endStroke() {
	if !b.board.Drawing() {
		return
	}
	b.board.EndStroke()
	b.Redraw()
}

func (b *BoardWidget) Clear() {
	b.board.Clear()
	b.Redraw()
}

func (b *BoardWidget) SetColor(c color.Color) {
	b.board.SetColor(c)
	b.toolChanged()
}

func (b *BoardWidget) SetBrushSize(n int) int {
	n = b.board.SetBrushSize(n)
	b.toolChanged()
	return n
}

func (b *BoardWidget) ToggleEraseMode() bool {
	on := b.board.ToggleEraseMode()
	b.toolChanged()
	return on
}

func (b *BoardWidget) toolChanged() {
	if b.OnToolChanged != nil {
		b.OnToolChanged(b.board.Tool())
	}
}

// OpenImage reads and decodes an image file in the background and then
// overlays it on the main goroutine. The reader is closed when done.
func (b *BoardWidget) OpenImage(rc io.ReadCloser) {
	go func() {
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, b.maxUpload+1))
		if err == nil && int64(len(data)) > b.maxUpload {
			err = fmt.Errorf("image larger than %d bytes", b.maxUpload)
		}
		if err != nil {
			b.log.Info("open image", zap.Error(err))
			fyne.Do(func() { b.fail(err) })
			return
		}
		img, err := board.DecodeImage(data)
		fyne.Do(func() {
			if err != nil {
				b.log.Info("overlay rejected", zap.Int("bytes", len(data)), zap.Error(err))
				b.fail(err)
				return
			}
			b.board.Overlay(img)
			b.Redraw()
		})
	}()
}

// ExportPDF writes the current surface as a PDF and closes w.
func (b *BoardWidget) ExportPDF(w io.WriteCloser) error {
	err := export.PDF(w, b.board.Snapshot())
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		b.log.Warn("export pdf", zap.Error(err))
	}
	return err
}

func (b *BoardWidget) fail(err error) {
	if b.OnError != nil {
		b.OnError(err)
	}
}
