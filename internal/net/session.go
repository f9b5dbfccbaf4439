package net

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"LocalBoard/internal/board"
	"LocalBoard/internal/state"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// message is a JSON control message sent to the browser.
type message struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
	Message string `json:"message,omitempty"`
	Color   string `json:"color,omitempty"`
	Size    int    `json:"size,omitempty"`
	Erase   bool   `json:"erase,omitempty"`
	// MaxUpload is the largest image frame the session accepts.
	MaxUpload int64 `json:"max_upload,omitempty"`
}

// Session is one browser tab: a websocket connection driving its own
// drawing surface.
type Session struct {
	ID    string
	Board *board.Controller

	seq   *state.Sequencer
	conn  *websocket.Conn
	log   *zap.Logger
	every time.Duration

	out   chan message
	dirty atomic.Bool
	// applied is the sequence number of the last op reflected in the buffer.
	applied  atomic.Uint64
	overlays sync.WaitGroup
}

func newSession(conn *websocket.Conn, b *board.Controller, every time.Duration, l *zap.Logger) *Session {
	seq := state.NewSequencer()
	return &Session{
		ID:    seq.Session(),
		Board: b,
		seq:   seq,
		conn:  conn,
		log:   l.With(zap.String("session", seq.Session())),
		every: every,
		out:   make(chan message, 16),
	}
}

// run pumps the connection until either side stops. It closes the
// connection before returning.
func (s *Session) run(ctx context.Context, maxUpload int64) error {
	g, ctx := errgroup.WithContext(ctx)
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	s.send(ctx, message{Type: "hello", Session: s.ID, MaxUpload: maxUpload})
	s.sendTool(ctx)
	s.dirty.Store(true)

	g.Go(func() error { return s.readPump(ctx, maxUpload) })
	g.Go(func() error { return s.writePump(ctx) })
	err := g.Wait()
	s.overlays.Wait()
	if errors.Is(err, errClosed) {
		return nil
	}
	return err
}

// errClosed stops the errgroup when the peer goes away.
var errClosed = errors.New("session closed")

// maxOpSize caps a JSON op frame. Ops are a few dozen bytes.
const maxOpSize = 4 << 10

func (s *Session) readPump(ctx context.Context, maxUpload int64) error {
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, r, err := s.conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Info("read failed", zap.Error(err))
			}
			return errClosed
		}
		switch mt {
		case websocket.TextMessage:
			data, err := readFrame(r, maxOpSize)
			if errors.Is(err, errFrameTooLarge) {
				s.reportError(ctx, fmt.Errorf("op larger than %d bytes", maxOpSize))
				continue
			}
			if err != nil {
				return errClosed
			}
			op, err := state.ParseOp(data)
			if err != nil {
				s.reportError(ctx, err)
				continue
			}
			s.apply(ctx, op)
		case websocket.BinaryMessage:
			data, err := readFrame(r, maxUpload)
			if errors.Is(err, errFrameTooLarge) {
				s.log.Info("overlay rejected", zap.Int64("limit", maxUpload))
				s.reportError(ctx, fmt.Errorf("%w: larger than %d bytes", board.ErrUndecodableImage, maxUpload))
				continue
			}
			if err != nil {
				return errClosed
			}
			op := state.Op{Type: state.OpImage, Data: data}
			s.seq.Stamp(&op)
			s.overlays.Add(1)
			go s.overlay(ctx, op)
		}
	}
}

var errFrameTooLarge = errors.New("frame too large")

// readFrame reads at most limit bytes of a frame. A longer frame is drained
// so the connection stays usable, and errFrameTooLarge is returned.
func readFrame(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return nil, err
		}
		return nil, errFrameTooLarge
	}
	return data, nil
}

func (s *Session) apply(ctx context.Context, op state.Op) {
	s.seq.Stamp(&op)
	eff, err := state.Apply(s.Board, op)
	if err != nil {
		s.reportError(ctx, err)
	}
	s.markApplied(op.Seq)
	if eff.Has(state.EffectPixels) {
		s.dirty.Store(true)
	}
	if eff.Has(state.EffectTool) {
		s.sendTool(ctx)
	}
}

// overlay decodes an upload off the read loop and applies it whenever it is
// ready. Strokes and clears that land in the meantime may be painted over.
func (s *Session) overlay(ctx context.Context, op state.Op) {
	defer s.overlays.Done()
	img, err := board.DecodeImage(op.Data)
	if err != nil {
		s.log.Info("overlay rejected", zap.Int("bytes", len(op.Data)), zap.Error(err))
		s.reportError(ctx, err)
		return
	}
	s.Board.Overlay(img)
	s.markApplied(op.Seq)
	s.dirty.Store(true)
}

func (s *Session) markApplied(seq uint64) {
	for {
		cur := s.applied.Load()
		if seq <= cur || s.applied.CompareAndSwap(cur, seq) {
			return
		}
	}
}

func (s *Session) writePump(ctx context.Context) error {
	frames := time.NewTicker(s.every)
	defer frames.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-s.out:
			data, err := json.Marshal(m)
			if err != nil {
				return err
			}
			if err := s.write(websocket.TextMessage, data); err != nil {
				return errClosed
			}
		case <-frames.C:
			if !s.dirty.Swap(false) {
				continue
			}
			if err := s.write(websocket.BinaryMessage, s.frame()); err != nil {
				return errClosed
			}
		case <-ping.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return errClosed
			}
		}
	}
}

// frame is the last applied sequence number, big endian, followed by a PNG
// of the buffer.
func (s *Session) frame() []byte {
	var buf bytes.Buffer
	var hdr [8]byte
	binary.BigEndian.PutUint64(hdr[:], s.applied.Load())
	buf.Write(hdr[:])
	if err := s.Board.EncodePNG(&buf); err != nil {
		s.log.Error("encode frame", zap.Error(err))
	}
	return buf.Bytes()
}

func (s *Session) write(mt int, data []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(mt, data)
}

func (s *Session) send(ctx context.Context, m message) {
	select {
	case s.out <- m:
	case <-ctx.Done():
	}
}

func (s *Session) sendTool(ctx context.Context) {
	t := s.Board.Tool()
	s.send(ctx, message{
		Type:  "tool",
		Color: board.Hex(t.Color),
		Size:  t.BrushSize,
		Erase: t.Erase,
	})
}

func (s *Session) reportError(ctx context.Context, err error) {
	s.send(ctx, message{Type: "error", Message: err.Error()})
}

// SessionManager tracks the live browser sessions by id.
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
	}
}

func (sm *SessionManager) Add(s *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[s.ID] = s
	s.log.Info("session opened", zap.String("remote", s.conn.RemoteAddr().String()))
}

func (sm *SessionManager) Remove(s *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, s.ID)
	s.log.Info("session closed")
}

func (sm *SessionManager) Get(id string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[id]
	return s, ok
}

func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
