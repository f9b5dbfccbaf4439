package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestContextRoundTrip(t *testing.T) {
	l := zaptest.NewLogger(t)
	ctx := NewContext(context.Background(), l)
	assert.Same(t, l, L(ctx))
}

func TestFallsBackToGlobal(t *testing.T) {
	assert.Same(t, zap.L(), L(context.Background()))
	assert.Same(t, zap.L(), L(NewContext(context.Background(), nil)))
}
