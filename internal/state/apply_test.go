package state

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LocalBoard/internal/board"
)

func TestParseOp(t *testing.T) {
	op, err := ParseOp([]byte(`{"type":"pointermove","x":12.5,"y":3}`))
	require.NoError(t, err)
	assert.Equal(t, Op{Type: OpPointerMove, X: 12.5, Y: 3}, op)

	op, err = ParseOp([]byte(`{"type":"color","value":"#ff0000"}`))
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", op.Value)

	_, err = ParseOp([]byte(`{"type":"teleport"}`))
	assert.ErrorIs(t, err, ErrUnknownOp)

	_, err = ParseOp([]byte(`{"type":"image"}`))
	assert.ErrorIs(t, err, ErrUnknownOp)

	_, err = ParseOp([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestApplyStrokeSequence(t *testing.T) {
	c := board.New()
	red := color.RGBA{R: 0xff, A: 0xff}

	steps := []struct {
		op   Op
		want Effect
	}{
		{Op{Type: OpColor, Value: "#ff0000"}, EffectTool},
		{Op{Type: OpBrush, Size: 5}, EffectTool},
		{Op{Type: OpPointerMove, X: 1, Y: 1}, 0},
		{Op{Type: OpPointerDown, X: 10, Y: 10}, 0},
		{Op{Type: OpPointerMove, X: 50, Y: 10}, EffectPixels},
		{Op{Type: OpPointerUp}, 0},
		{Op{Type: OpPointerMove, X: 90, Y: 90}, 0},
	}
	for _, s := range steps {
		eff, err := Apply(c, s.op)
		require.NoError(t, err, s.op.Type)
		assert.Equal(t, s.want, eff, s.op.Type)
	}
	got := c.At(30, 10)
	assert.Equal(t, red.R, got.R)
	assert.Less(t, got.G, uint8(3))
	assert.Equal(t, board.White, c.At(90, 90))
}

func TestApplyLeaveEndsStroke(t *testing.T) {
	c := board.New()
	_, _ = Apply(c, Op{Type: OpPointerDown, X: 10, Y: 10})
	require.True(t, c.Drawing())
	_, err := Apply(c, Op{Type: OpPointerLeave, X: 900, Y: 10})
	require.NoError(t, err)
	assert.False(t, c.Drawing())
}

func TestApplyToolOps(t *testing.T) {
	c := board.New()

	eff, err := Apply(c, Op{Type: OpBrush, Size: 51})
	require.NoError(t, err)
	assert.True(t, eff.Has(EffectTool))
	assert.Equal(t, board.MaxBrushSize, c.Tool().BrushSize)

	_, err = Apply(c, Op{Type: OpErase})
	require.NoError(t, err)
	assert.True(t, c.Tool().Erase)

	_, err = Apply(c, Op{Type: OpColor, Value: "blue"})
	assert.ErrorIs(t, err, board.ErrInvalidColor)
	assert.Equal(t, board.Black, c.Tool().Color)
}

func TestApplyClearAndImage(t *testing.T) {
	c := board.New()
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.SetRGBA(1, 1, color.RGBA{G: 0xff, A: 0xff})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	eff, err := Apply(c, Op{Type: OpImage, Data: buf.Bytes()})
	require.NoError(t, err)
	assert.True(t, eff.Has(EffectPixels))
	assert.Equal(t, color.RGBA{G: 0xff, A: 0xff}, c.At(1, 1))

	eff, err = Apply(c, Op{Type: OpImage, Data: []byte("junk")})
	assert.ErrorIs(t, err, board.ErrUndecodableImage)
	assert.Zero(t, eff)

	eff, err = Apply(c, Op{Type: OpClear})
	require.NoError(t, err)
	assert.True(t, eff.Has(EffectPixels))
	assert.Equal(t, board.White, c.At(1, 1))
}

func TestApplyUnknown(t *testing.T) {
	_, err := Apply(board.New(), Op{Type: "zoom"})
	assert.ErrorIs(t, err, ErrUnknownOp)
}

func TestSequencer(t *testing.T) {
	a, b := NewSequencer(), NewSequencer()
	assert.NotEqual(t, a.Session(), b.Session())
	assert.Len(t, a.Session(), 36)

	var op Op
	assert.Equal(t, uint64(1), a.Stamp(&op))
	assert.Equal(t, uint64(2), a.Stamp(&op))
	assert.Equal(t, uint64(2), op.Seq)
	assert.Equal(t, uint64(2), a.Last())
	assert.Zero(t, b.Last())
}
