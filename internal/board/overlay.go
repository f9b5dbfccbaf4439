package board

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxOverlaySide bounds each dimension an uploaded image may declare. Only
// the top-left Width×Height pixels are ever shown.
const MaxOverlaySide = 8192

// DecodeImage decodes an uploaded image payload. It does not touch any
// surface and is safe to call off the event path. The header is checked
// before any pixels are allocated.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUndecodableImage)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodableImage, err)
	}
	if cfg.Width > MaxOverlaySide || cfg.Height > MaxOverlaySide {
		return nil, fmt.Errorf("%w: %s image is %dx%d, limit is %dx%d",
			ErrUndecodableImage, format, cfg.Width, cfg.Height, MaxOverlaySide, MaxOverlaySide)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodableImage, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty %s image", ErrUndecodableImage, format)
	}
	return img, nil
}

// Overlay draws img with its top-left corner at (0, 0) at its natural size.
// Pixels that fall outside the surface are dropped.
func (c *Controller) Overlay(img image.Image) {
	if img == nil || !c.acquire() {
		return
	}
	defer c.mu.Unlock()

	b := img.Bounds()
	draw.Draw(c.img, b.Sub(b.Min), img, b.Min, draw.Over)
	c.log.Debug("overlay", zap.Int("width", b.Dx()), zap.Int("height", b.Dy()))
}

// OverlayImage decodes data and overlays it at (0, 0). A payload that is not
// an image returns an error wrapping ErrUndecodableImage and leaves the
// surface untouched.
func (c *Controller) OverlayImage(data []byte) error {
	if c == nil || c.Bounds().Empty() {
		return ErrUnmounted
	}
	img, err := DecodeImage(data)
	if err != nil {
		c.log.Info("overlay rejected", zap.Int("bytes", len(data)), zap.Error(err))
		return err
	}
	c.Overlay(img)
	return nil
}
