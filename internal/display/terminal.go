package display

import (
	"fmt"
	"image"
	"sync"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/image/draw"

	"github.com/unklstewy/ads-panel/pkg/config"
)

// Terminal previews frames in a terminal using half-block characters, two
// pixels per cell. The frame is scaled down to fit the window.
type Terminal struct {
	screen tcell.Screen
	size   image.Point

	onQuit   func()
	closeOne sync.Once
}

// OpenTerminal takes over the controlling terminal. onQuit is called when
// the user presses q, Esc or Ctrl-C; the terminal is in raw mode, so those
// keys do not raise SIGINT.
func OpenTerminal(cfg config.DisplayConfig, onQuit func()) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	return newTerminal(screen, image.Pt(cfg.Width, cfg.Height), onQuit)
}

func newTerminal(screen tcell.Screen, size image.Point, onQuit func()) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault.
		Background(tcell.ColorReset).
		Foreground(tcell.ColorReset))
	screen.HideCursor()
	screen.Clear()

	t := &Terminal{
		screen: screen,
		size:   size,
		onQuit: onQuit,
	}
	go t.pollEvents()
	return t, nil
}

func (t *Terminal) pollEvents() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			t.screen.Sync()
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				if t.onQuit != nil {
					t.onQuit()
				}
			}
		}
	}
}

// Size returns the scene size; scaling to the window happens in Present.
func (t *Terminal) Size() image.Point {
	return t.size
}

// cells returns the cell grid a frame is drawn into, keeping the frame's
// aspect ratio with two pixels per cell vertically.
func cells(frame, window image.Point) image.Point {
	if window.X <= 0 || window.Y <= 0 || frame.X <= 0 || frame.Y <= 0 {
		return image.Point{}
	}
	w := window.X
	h := w * frame.Y / frame.X
	if h > window.Y*2 {
		h = window.Y * 2
		w = h * frame.X / frame.Y
	}
	return image.Pt(w, h/2)
}

// Present draws the frame scaled to the window.
func (t *Terminal) Present(frame *image.RGBA) error {
	if err := checkSize(t, frame); err != nil {
		return err
	}

	ww, wh := t.screen.Size()
	grid := cells(frame.Bounds().Size(), image.Pt(ww, wh))
	if grid.X == 0 || grid.Y == 0 {
		return nil
	}

	small := image.NewRGBA(image.Rect(0, 0, grid.X, grid.Y*2))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), frame, frame.Bounds(), draw.Src, nil)

	for cy := 0; cy < grid.Y; cy++ {
		for cx := 0; cx < grid.X; cx++ {
			top := small.RGBAAt(cx, cy*2)
			bottom := small.RGBAAt(cx, cy*2+1)
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			t.screen.SetContent(cx, cy, '▀', nil, style)
		}
	}
	t.screen.Show()
	return nil
}

// Close restores the terminal.
func (t *Terminal) Close() error {
	t.closeOne.Do(func() {
		t.screen.Fini()
	})
	return nil
}
