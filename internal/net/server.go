package net

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"image"
	"io"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"LocalBoard/internal/board"
	"LocalBoard/internal/config"
	"LocalBoard/internal/export"
)

//go:embed static
var static embed.FS

// Server is the browser host: it serves the drawing page and gives every
// websocket connection its own drawing surface.
type Server struct {
	cfg      config.Config
	log      *zap.Logger
	sessions *SessionManager
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

func NewServer(cfg config.Config, l *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		log:      l,
		sessions: NewSessionManager(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 64 << 10,
		},
		mux: http.NewServeMux(),
	}

	page, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	s.mux.Handle("GET /", http.FileServerFS(page))
	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /snapshot.png", s.handleSnapshot(export.PNG, "image/png"))
	s.mux.HandleFunc("GET /snapshot.pdf", s.handleSnapshot(export.PDF, "application/pdf"))
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		// Session contexts derive from ctx so they end on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("shutdown", zap.Error(err))
		}
	}()

	s.log.Info("listening", zap.String("addr", ln.Addr().String()))
	if err := hs.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.log.Info("upgrade failed", zap.Error(err))
		return
	}

	b := board.New(
		board.WithBackground(s.cfg.BackgroundColor()),
		board.WithLogger(s.log.Named("board")),
	)
	sess := newSession(conn, b, s.cfg.FrameInterval.Duration, s.log)
	s.sessions.Add(sess)
	defer s.sessions.Remove(sess)

	if err := sess.run(r.Context(), s.cfg.MaxUpload); err != nil {
		sess.log.Warn("session ended", zap.Error(err))
	}
}

func (s *Server) handleSnapshot(render func(w io.Writer, img image.Image) error, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Get(r.URL.Query().Get("session"))
		if !ok {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}
		var buf bytes.Buffer
		if err := render(&buf, sess.Board.Snapshot()); err != nil {
			sess.log.Error("snapshot", zap.String("type", contentType), zap.Error(err))
			http.Error(w, "snapshot failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())
	}
}
