package ui

import (
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"LocalBoard/internal/board"
)

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func(color.Color)

	rect *canvas.Rectangle
}

func newColorSwatch(c color.Color, tapped func(color.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	s.rect = canvas.NewRectangle(s.Color)
	s.rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(s.rect, border))
}

func (s *colorSwatch) SetColor(c color.Color) {
	s.Color = c
	if s.rect != nil {
		s.rect.FillColor = c
		s.rect.Refresh()
	}
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

var palette = []color.Color{
	board.Black,
	color.NRGBA{R: 255, A: 255},         // Red
	color.NRGBA{G: 255, A: 255},         // Green
	color.NRGBA{B: 255, A: 255},         // Blue
	color.NRGBA{R: 255, G: 255, A: 255}, // Yellow
}

// toolbar keeps the controls that mirror the tool state.
type toolbar struct {
	board *BoardWidget
	win   fyne.Window

	current *colorSwatch
	size    *widget.Slider
	sizeVal *widget.Label
	erase   *widget.Button
	clear   *widget.Button
}

func newToolbar(b *BoardWidget, win fyne.Window) *toolbar {
	t := &toolbar{board: b, win: win}

	t.current = newColorSwatch(board.Black, func(color.Color) { t.pickColor() })

	t.size = widget.NewSlider(board.MinBrushSize, board.MaxBrushSize)
	t.size.Step = 1
	t.size.SetValue(float64(b.Board().Tool().BrushSize))
	t.size.OnChanged = t.setBrushSize
	t.sizeVal = widget.NewLabel("")

	t.erase = widget.NewButton("", t.toggleErase)
	t.clear = widget.NewButtonWithIcon("Clear", theme.DeleteIcon(), b.Clear)

	b.OnToolChanged = t.sync
	t.sync(b.Board().Tool())
	return t
}

// sync updates every control from the tool state.
func (t *toolbar) sync(tool board.Tool) {
	t.current.SetColor(tool.Color)
	if int(t.size.Value) != tool.BrushSize {
		t.size.Value = float64(tool.BrushSize)
		t.size.Refresh()
	}
	t.sizeVal.SetText(strconv.Itoa(tool.BrushSize))
	if tool.Erase {
		t.erase.SetText("Draw")
		t.erase.SetIcon(theme.DocumentCreateIcon())
	} else {
		t.erase.SetText("Erase")
		t.erase.SetIcon(theme.ContentClearIcon())
	}
}

func (t *toolbar) setColor(c color.Color) {
	t.board.SetColor(c)
}

func (t *toolbar) setBrushSize(v float64) {
	t.board.SetBrushSize(int(v))
}

func (t *toolbar) toggleErase() {
	t.board.ToggleEraseMode()
}

func (t *toolbar) pickColor() {
	picker := dialog.NewColorPicker("Color", "Brush color", t.setColor, t.win)
	picker.Advanced = true
	picker.SetColor(t.board.Board().Tool().Color)
	picker.Show()
}

func (t *toolbar) openImage() {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, t.win)
			return
		}
		if rc == nil {
			return
		}
		t.board.OpenImage(rc)
	}, t.win)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}))
	d.Show()
}

func (t *toolbar) exportPDF() {
	d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, t.win)
			return
		}
		if wc == nil {
			return
		}
		if err := t.board.ExportPDF(wc); err != nil {
			dialog.ShowError(err, t.win)
		}
	}, t.win)
	d.SetFileName("board.pdf")
	d.Show()
}

func (t *toolbar) content() fyne.CanvasObject {
	onColorTapped := func(c color.Color) { t.setColor(c) }
	colorBox := container.NewHBox()
	for _, c := range palette {
		colorBox.Add(newColorSwatch(c, onColorTapped))
	}

	files := widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), t.openImage),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), t.exportPDF),
	)

	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), t.size)

	return container.NewHBox(
		widget.NewLabel("Color:"),
		t.current,
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		t.sizeVal,
		widget.NewSeparator(),
		t.erase,
		t.clear,
		layout.NewSpacer(),
		files,
	)
}

// NewToolbar builds the controls for b. Dialogs open on win.
func NewToolbar(b *BoardWidget, win fyne.Window) fyne.CanvasObject {
	return newToolbar(b, win).content()
}
