package state

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Sequencer names a session and numbers the ops applied to it, so frames can
// be tagged with the last op they reflect.
type Sequencer struct {
	session string
	seq     atomic.Uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{session: uuid.NewString()}
}

func (s *Sequencer) Session() string {
	return s.session
}

// Stamp assigns the next sequence number to op and returns it.
func (s *Sequencer) Stamp(op *Op) uint64 {
	op.Seq = s.seq.Add(1)
	return op.Seq
}

// Last returns the most recently stamped sequence number.
func (s *Sequencer) Last() uint64 {
	return s.seq.Load()
}
