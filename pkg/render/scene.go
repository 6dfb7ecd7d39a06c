package render

import (
	"image"

	"golang.org/x/image/draw"
)

// Scene is an ordered set of layers composited back to front.
// It is not safe for concurrent use; the panel drives it from one goroutine.
type Scene struct {
	size   image.Point
	layers []*Layer
}

// NewScene creates an empty scene for a canvas of the given size.
func NewScene(size image.Point) *Scene {
	return &Scene{size: size}
}

// Size returns the canvas size.
func (s *Scene) Size() image.Point {
	return s.size
}

// Add appends l unless it is already in the scene.
func (s *Scene) Add(l *Layer) {
	if l == nil || s.Contains(l) {
		return
	}
	s.layers = append(s.layers, l)
}

// Remove drops l from the scene. Removing an absent layer does nothing.
func (s *Scene) Remove(l *Layer) {
	i := s.index(l)
	if i < 0 {
		return
	}
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
}

// Contains reports whether l is in the scene.
func (s *Scene) Contains(l *Layer) bool {
	return s.index(l) >= 0
}

// Len returns the number of layers.
func (s *Scene) Len() int {
	return len(s.layers)
}

// Layers returns the layers in draw order.
func (s *Scene) Layers() []*Layer {
	out := make([]*Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Swap adds every layer in add, then removes every layer in remove.
// Layers in both lists end up removed.
func (s *Scene) Swap(remove, add []*Layer) {
	for _, l := range add {
		s.Add(l)
	}
	for _, l := range remove {
		s.Remove(l)
	}
}

// Render composites the current layers onto a transparent canvas.
// Each layer is blended source-over at its frame; parts outside the canvas
// are clipped.
func (s *Scene) Render() *image.RGBA {
	canvas := image.NewRGBA(image.Rectangle{Max: s.size})
	for _, l := range s.layers {
		src := l.Render()
		if src == nil {
			continue
		}
		draw.Draw(canvas, l.Frame(), src, src.Bounds().Min, draw.Over)
	}
	return canvas
}

func (s *Scene) index(l *Layer) int {
	for i, existing := range s.layers {
		if existing == l {
			return i
		}
	}
	return -1
}
