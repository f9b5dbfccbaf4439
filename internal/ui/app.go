package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"LocalBoard/internal/board"
	"LocalBoard/internal/config"
)

const appID = "io.localboard.desktop"

// RunApp shows the desktop window and blocks until it is closed.
func RunApp(cfg config.Config, l *zap.Logger) {
	myApp := app.NewWithID(appID)
	myWindow := myApp.NewWindow("LocalBoard")

	b := NewBoardWidget(board.New(
		board.WithBackground(cfg.BackgroundColor()),
		board.WithLogger(l.Named("board")),
	), l)
	b.maxUpload = cfg.MaxUpload

	status := widget.NewLabel("Ready")
	b.OnError = func(err error) {
		status.SetText(err.Error())
		dialog.ShowError(err, myWindow)
	}

	toolbar := NewToolbar(b, myWindow)
	content := container.NewBorder(toolbar, status, nil, nil, container.NewCenter(b))

	myWindow.SetContent(content)
	myWindow.Resize(fyne.NewSize(board.Width+40, board.Height+120))
	l.Info("desktop window open")
	myWindow.ShowAndRun()
}
