// Package raster builds still-image composites and normalizes source images
// into a baseline JPEG that any decoder can read.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	// Extra decoders for sources image.Decode does not cover by default.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/maauso/gridcomposer/internal/layout"
)

const (
	// DefaultQuality is the JPEG quality of composite output.
	DefaultQuality = 90
	// NormalizeQuality is the JPEG quality used when converting sources.
	NormalizeQuality = 95
)

// Static errors for raster operations.
var (
	// ErrSlotOutOfRange is returned when a tile index has no slot in the layout.
	ErrSlotOutOfRange = errors.New("slot index out of range")
	// ErrInvalidCanvas is returned when the canvas size is not positive.
	ErrInvalidCanvas = errors.New("invalid canvas: width and height must be positive")
)

// Background is the fill colour for canvas regions no tile covers.
var Background = color.White

// Compositor pastes cover-fitted tiles onto a white canvas.
type Compositor struct {
	quality int
}

// NewCompositor creates a Compositor. Quality values outside 1..100 use DefaultQuality.
func NewCompositor(quality int) *Compositor {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Compositor{quality: quality}
}

// Compose renders the images in tiles (slot index to image path) into the
// layout's slots and writes a JPEG to output. Slots without a tile stay white.
// On any failure the partially written output is removed.
func (c *Compositor) Compose(lt layout.Type, width, height int, tiles map[int]string, output string) (err error) {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidCanvas, width, height)
	}
	slots, err := layout.Geometry(lt, width, height)
	if err != nil {
		return err
	}

	for idx := range tiles {
		if idx < 0 || idx >= len(slots) {
			return fmt.Errorf("%w: %d", ErrSlotOutOfRange, idx)
		}
	}

	canvas := imaging.New(width, height, Background)
	for idx := range slots {
		path, ok := tiles[idx]
		if !ok {
			continue
		}
		slot := slots[idx]
		tile, err := coverTile(path, slot.Width, slot.Height)
		if err != nil {
			return fmt.Errorf("slot %d: %w", idx, err)
		}
		canvas = imaging.Paste(canvas, tile, image.Pt(slot.X, slot.Y))
	}

	defer func() {
		if err != nil {
			_ = os.Remove(output)
		}
	}()
	if err := imaging.Save(canvas, output, imaging.JPEGQuality(c.quality)); err != nil {
		return fmt.Errorf("encode composite: %w", err)
	}
	return nil
}

// coverTile resizes the image at path to exactly w x h, preserving aspect
// ratio and cropping the centred overflow.
func coverTile(path string, w, h int) (image.Image, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidCanvas, w, h)
	}
	return imaging.Fill(src, w, h, imaging.Center, imaging.Lanczos), nil
}

// IsBaselineJPEG reports whether path already carries a JPEG extension.
func IsBaselineJPEG(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

// NormalizeToJPEG decodes src in any registered format and re-encodes it as
// a JPEG at dst. Transparent regions are flattened onto white.
func NormalizeToJPEG(src, dst string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(src), err)
	}

	b := img.Bounds()
	flat := imaging.New(b.Dx(), b.Dy(), Background)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	if err := imaging.Save(flat, dst, imaging.JPEGQuality(NormalizeQuality)); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("encode %s: %w", filepath.Base(dst), err)
	}
	return nil
}
