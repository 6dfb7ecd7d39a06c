package display

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/unklstewy/ads-panel/pkg/config"
	"github.com/unklstewy/ads-panel/pkg/logging"
)

// TestPNGFilePresent tests that frames are written and replaced.
func TestPNGFilePresent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	sink := NewPNGFile(path, image.Pt(4, 4))

	for _, c := range []color.RGBA{{255, 0, 0, 255}, {0, 255, 0, 255}} {
		frame := image.NewRGBA(image.Rect(0, 0, 4, 4))
		frame.SetRGBA(2, 1, c)
		if err := sink.Present(frame); err != nil {
			t.Fatalf("Present failed: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Expected frame file: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode frame: %v", err)
	}
	if got := color.RGBAModel.Convert(img.At(2, 1)).(color.RGBA); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("Expected latest frame, got %v", got)
	}
	if sink.Frames != 2 {
		t.Errorf("Expected 2 frames, got %d", sink.Frames)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the frame file, found %d entries", len(entries))
	}
}

// TestPNGFileErrors tests size mismatch and an unwritable directory.
func TestPNGFileErrors(t *testing.T) {
	sink := NewPNGFile(filepath.Join(t.TempDir(), "frame.png"), image.Pt(4, 4))
	if err := sink.Present(image.NewRGBA(image.Rect(0, 0, 5, 5))); err == nil {
		t.Error("Expected error for wrong frame size")
	}

	sink = NewPNGFile(filepath.Join(t.TempDir(), "missing", "frame.png"), image.Pt(4, 4))
	if err := sink.Present(image.NewRGBA(image.Rect(0, 0, 4, 4))); err == nil {
		t.Error("Expected error for missing directory")
	}
}

// TestOpen tests driver selection.
func TestOpen(t *testing.T) {
	cfg := config.DefaultConfig().Display
	cfg.Driver = config.DriverPNG
	cfg.OutputPath = filepath.Join(t.TempDir(), "frame.png")

	sink, err := Open(cfg, Options{Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sink.Close()

	if _, ok := sink.(*PNGFile); !ok {
		t.Errorf("Expected *PNGFile, got %T", sink)
	}
	if sink.Size() != image.Pt(240, 240) {
		t.Errorf("Expected 240x240, got %v", sink.Size())
	}

	cfg.Driver = "hdmi"
	if _, err := Open(cfg, Options{}); err == nil {
		t.Error("Expected error for unknown driver")
	}
}
