// Package thumbnail renders fixed-size JPEG previews of archived images.
package thumbnail

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	// Image format decoders
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support

	"hoard-go/internal/hoard"
)

// Generator produces thumbnails that fit a size×size box, keeping aspect
// ratio. Images smaller than the box are not enlarged.
type Generator struct {
	size    int
	quality int
}

// NewGenerator returns a Generator for the given box edge and JPEG quality.
func NewGenerator(size, quality int) *Generator {
	return &Generator{size: size, quality: quality}
}

// Generate decodes src and writes a JPEG thumbnail to dst, creating
// parent directories. Transparent areas are flattened onto white.
func (g *Generator) Generate(src, dst string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decoding %s: %w", src, err)
	}

	thumb := imaging.Fit(img, g.size, g.size, imaging.Lanczos)
	bounds := thumb.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	canvas = imaging.Overlay(canvas, thumb, image.Pt(0, 0), 1.0)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating thumbnail directory: %w", err)
	}
	return writeJPEG(dst, canvas, g.quality)
}

// Load decodes a thumbnail written by Generate.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading thumbnail: %w", err)
	}
	return img, nil
}

func writeJPEG(dst string, img image.Image, quality int) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: quality}); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encoding thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

var _ hoard.Thumbnailer = (*Generator)(nil)
