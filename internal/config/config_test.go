package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LocalBoard/internal/board"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "localboard.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())

	port, err := cfg.Port()
	require.NoError(t, err)
	assert.Equal(t, 8888, port)
	assert.Equal(t, board.White, cfg.BackgroundColor())
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
addr = "127.0.0.1:9000"
advertise = true
background = "#102030"
frame_interval = "50ms"
max_upload = 1024
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.True(t, cfg.Advertise)
	assert.Equal(t, 50*time.Millisecond, cfg.FrameInterval.Duration)
	assert.Equal(t, int64(1024), cfg.MaxUpload)
	assert.Equal(t, uint8(0x10), cfg.BackgroundColor().R)
	assert.False(t, cfg.Desktop)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, `zoom = 2`))
	assert.ErrorContains(t, err, "unknown keys")
}

func TestLoadBadDuration(t *testing.T) {
	_, err := Load(writeFile(t, `frame_interval = "soon"`))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Background = "white"
	cfg.FrameInterval = Duration{}
	cfg.MaxUpload = 0
	cfg.Addr = "nowhere"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, board.ErrInvalidColor)
	assert.ErrorContains(t, err, "frame_interval")
	assert.ErrorContains(t, err, "max_upload")
	assert.ErrorContains(t, err, "nowhere")

	// The desktop host has no listen address.
	cfg = Default()
	cfg.Desktop = true
	cfg.Addr = ""
	assert.NoError(t, cfg.Validate())
}
