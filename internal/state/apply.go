package state

import (
	"fmt"

	"LocalBoard/internal/board"
)

// Effect reports what an applied op changed.
type Effect uint8

const (
	EffectPixels Effect = 1 << iota
	EffectTool
)

func (e Effect) Has(f Effect) bool { return e&f != 0 }

// Apply drives c with op. Errors leave the controller unchanged.
func Apply(c *board.Controller, op Op) (Effect, error) {
	switch op.Type {
	case OpPointerDown:
		c.BeginStroke(op.X, op.Y)
		return 0, nil
	case OpPointerMove:
		if !c.Drawing() {
			return 0, nil
		}
		c.ExtendStroke(op.X, op.Y)
		return EffectPixels, nil
	case OpPointerUp, OpPointerLeave:
		c.EndStroke()
		return 0, nil
	case OpColor:
		if err := c.SetColorHex(op.Value); err != nil {
			return 0, err
		}
		return EffectTool, nil
	case OpBrush:
		c.SetBrushSize(op.Size)
		return EffectTool, nil
	case OpErase:
		c.ToggleEraseMode()
		return EffectTool, nil
	case OpClear:
		c.Clear()
		return EffectPixels, nil
	case OpImage:
		if err := c.OverlayImage(op.Data); err != nil {
			return 0, err
		}
		return EffectPixels, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOp, op.Type)
}
