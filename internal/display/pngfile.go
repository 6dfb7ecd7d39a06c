package display

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// PNGFile writes every frame to a PNG file, replacing it atomically so a
// viewer polling the file never reads half a frame.
type PNGFile struct {
	path string
	size image.Point

	// Frames counts successful presents
	Frames int
}

// NewPNGFile creates a sink writing size frames to path.
func NewPNGFile(path string, size image.Point) *PNGFile {
	return &PNGFile{path: path, size: size}
}

// Size returns the frame size.
func (p *PNGFile) Size() image.Point {
	return p.size
}

// Present encodes the frame into a temp file next to path and renames it over path.
func (p *PNGFile) Present(frame *image.RGBA) error {
	if err := checkSize(p, frame); err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	tmp, err := os.CreateTemp(dir, ".frame-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp frame: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(tmp, frame); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", p.path, err)
	}

	p.Frames++
	return nil
}

// Close does nothing; the last frame stays on disk.
func (p *PNGFile) Close() error {
	return nil
}
