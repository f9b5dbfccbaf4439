package state

import (
	"encoding/json"
	"errors"
	"fmt"
)

// OpType names a host input event.
type OpType string

const (
	OpPointerDown  OpType = "pointerdown"
	OpPointerMove  OpType = "pointermove"
	OpPointerUp    OpType = "pointerup"
	OpPointerLeave OpType = "pointerleave"
	OpColor        OpType = "color"
	OpBrush        OpType = "brush"
	OpErase        OpType = "erase"
	OpClear        OpType = "clear"
	OpImage        OpType = "image"
)

var ErrUnknownOp = errors.New("unknown op")

// Op is one input event from a host UI in canvas-local coordinates.
// Image payloads travel out of band and are carried in Data.
type Op struct {
	Type  OpType  `json:"type"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Value string  `json:"value,omitempty"` // colour picker value
	Size  int     `json:"size,omitempty"`  // brush size
	Seq   uint64  `json:"seq,omitempty"`
	Data  []byte  `json:"-"`
}

// ParseOp decodes a JSON op.
func ParseOp(data []byte) (Op, error) {
	var op Op
	if err := json.Unmarshal(data, &op); err != nil {
		return Op{}, fmt.Errorf("decode op: %w", err)
	}
	switch op.Type {
	case OpPointerDown, OpPointerMove, OpPointerUp, OpPointerLeave,
		OpColor, OpBrush, OpErase, OpClear:
		return op, nil
	case OpImage:
		return Op{}, fmt.Errorf("%w: image payloads are sent as binary", ErrUnknownOp)
	}
	return Op{}, fmt.Errorf("%w: %q", ErrUnknownOp, op.Type)
}
