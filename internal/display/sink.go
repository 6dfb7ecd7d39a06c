// Package display presents composited frames on an output device.
package display

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/unklstewy/ads-panel/pkg/config"
)

// Sink receives finished frames. Present is called once per tick from a
// single goroutine; frames are always exactly Size().
type Sink interface {
	Size() image.Point
	Present(frame *image.RGBA) error
	Close() error
}

// Options carries dependencies that do not belong in the config file.
type Options struct {
	Logger *slog.Logger

	// OnQuit is called when an interactive sink is asked to quit
	// (the terminal sink on q, Esc or Ctrl-C)
	OnQuit func()
}

// Open creates the sink selected by cfg.Driver.
func Open(cfg config.DisplayConfig, opts Options) (Sink, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	switch cfg.Driver {
	case config.DriverST7789:
		return OpenST7789(cfg, opts.Logger)
	case config.DriverTerminal:
		return OpenTerminal(cfg, opts.OnQuit)
	case config.DriverPNG:
		return NewPNGFile(cfg.OutputPath, image.Pt(cfg.Width, cfg.Height)), nil
	default:
		return nil, fmt.Errorf("unknown display driver %q", cfg.Driver)
	}
}

// checkSize rejects frames that do not match the sink.
func checkSize(s Sink, frame *image.RGBA) error {
	if got := frame.Bounds().Size(); got != s.Size() {
		return fmt.Errorf("frame is %v, display expects %v", got, s.Size())
	}
	return nil
}
