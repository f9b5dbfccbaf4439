// Package config holds host settings: defaults, an optional TOML file, and
// command-line overrides applied by main.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"net"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"LocalBoard/internal/board"
)

// Duration is a time.Duration written as a Go duration string ("33ms").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	// Addr is the listen address of the browser host.
	Addr string `toml:"addr"`
	// Advertise announces the browser host over mDNS.
	Advertise bool `toml:"advertise"`
	// Background is the canvas colour used by clear and erase, as #rrggbb.
	Background string `toml:"background"`
	// FrameInterval bounds how often a browser session is sent a new frame.
	FrameInterval Duration `toml:"frame_interval"`
	// MaxUpload caps the size of an uploaded image in bytes.
	MaxUpload int64 `toml:"max_upload"`
	// Desktop runs the fyne window instead of the browser host.
	Desktop bool `toml:"desktop"`
}

func Default() Config {
	return Config{
		Addr:          ":8888",
		Background:    "#ffffff",
		FrameInterval: Duration{33 * time.Millisecond},
		MaxUpload:     10 << 20,
	}
}

// Load returns the defaults overlaid with the TOML file at path. An empty
// path returns the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return Config{}, fmt.Errorf("read config %s: unknown keys %v", path, keys)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if _, err := board.ParseHex(c.Background); err != nil {
		errs = append(errs, fmt.Errorf("background: %w", err))
	}
	if c.FrameInterval.Duration <= 0 {
		errs = append(errs, errors.New("frame_interval must be positive"))
	}
	if c.MaxUpload <= 0 {
		errs = append(errs, errors.New("max_upload must be positive"))
	}
	if !c.Desktop {
		if _, err := c.Port(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Port returns the numeric port of Addr.
func (c Config) Port() (int, error) {
	_, p, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return 0, fmt.Errorf("addr %q: %w", c.Addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil || port < 0 || port > 65535 {
		return 0, fmt.Errorf("addr %q: bad port", c.Addr)
	}
	return port, nil
}

// BackgroundColor returns Background parsed, falling back to white.
func (c Config) BackgroundColor() color.RGBA {
	col, err := board.ParseHex(c.Background)
	if err != nil {
		return board.White
	}
	return col
}
