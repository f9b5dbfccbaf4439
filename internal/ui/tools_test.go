package ui

import (
	"image/color"
	"testing"

	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"

	"LocalBoard/internal/board"
)

func newTestToolbar(t *testing.T) (*toolbar, *board.Controller) {
	t.Helper()
	w, c := newTestWidget(t)
	win := test.NewWindow(widget.NewLabel(""))
	t.Cleanup(win.Close)
	return newToolbar(w, win), c
}

func TestToolbarEraseToggleLabel(t *testing.T) {
	tb, c := newTestToolbar(t)
	assert.Equal(t, "Erase", tb.erase.Text)

	test.Tap(tb.erase)
	assert.True(t, c.Tool().Erase)
	assert.Equal(t, "Draw", tb.erase.Text)

	test.Tap(tb.erase)
	assert.False(t, c.Tool().Erase)
	assert.Equal(t, "Erase", tb.erase.Text)
}

func TestToolbarBrushSize(t *testing.T) {
	tb, c := newTestToolbar(t)
	assert.Equal(t, float64(board.DefaultBrushSize), tb.size.Value)

	tb.setBrushSize(12)
	assert.Equal(t, 12, c.Tool().BrushSize)
	assert.Equal(t, "12", tb.sizeVal.Text)

	tb.setBrushSize(80)
	assert.Equal(t, board.MaxBrushSize, c.Tool().BrushSize)
	assert.Equal(t, float64(board.MaxBrushSize), tb.size.Value)
}

func TestToolbarPaletteSetsColor(t *testing.T) {
	tb, c := newTestToolbar(t)
	swatch := newColorSwatch(color.NRGBA{B: 255, A: 255}, tb.setColor)
	test.Tap(swatch)
	assert.Equal(t, color.RGBA{B: 0xff, A: 0xff}, c.Tool().Color)
	assert.Equal(t, color.RGBA{B: 0xff, A: 0xff}, tb.current.Color)
}

func TestToolbarClear(t *testing.T) {
	tb, c := newTestToolbar(t)
	tb.board.SetBrushSize(10)
	tb.board.MouseDown(mouse(100, 100, desktop.MouseButtonPrimary))
	tb.board.Dragged(drag(200, 100))
	tb.board.MouseUp(mouse(200, 100, desktop.MouseButtonPrimary))
	assert.NotEqual(t, board.White, c.At(150, 100))

	test.Tap(tb.clear)
	assert.Equal(t, board.White, c.At(150, 100))
}

func TestToolbarContent(t *testing.T) {
	tb, _ := newTestToolbar(t)
	assert.NotNil(t, tb.content())
}
