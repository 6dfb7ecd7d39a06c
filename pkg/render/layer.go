package render

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Kind identifies what a Layer draws.
type Kind int

const (
	// KindStatic is a fixed bitmap such as the background map
	KindStatic Kind = iota
	// KindGradient is the altitude legend, drawn from a Ramp
	KindGradient
	// KindError is the "no data" banner
	KindError
	// KindSprite is a single aircraft icon
	KindSprite
)

func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindGradient:
		return "gradient"
	case KindError:
		return "error"
	case KindSprite:
		return "sprite"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Layer is a positioned RGBA source in a Scene. Layers are compared by
// pointer, so the same bitmap added twice as two Layers draws twice.
type Layer struct {
	kind Kind

	// frame is the destination rectangle on the canvas; may extend past it
	frame image.Rectangle

	// bitmap is the prepared image for static, error and sprite layers,
	// and the lazily drawn bar for gradient layers
	bitmap *image.RGBA

	ramp                     *Ramp
	minAltitude, maxAltitude float64
}

// NewStaticLayer places img at origin.
func NewStaticLayer(img *image.RGBA, origin image.Point) *Layer {
	return newBitmapLayer(KindStatic, img, origin)
}

// NewErrorLayer places a banner image at origin.
func NewErrorLayer(img *image.RGBA, origin image.Point) *Layer {
	return newBitmapLayer(KindError, img, origin)
}

// NewSpriteLayer places an aircraft icon at origin. The bitmap is shared,
// not copied; callers must not modify it afterwards.
func NewSpriteLayer(img *image.RGBA, origin image.Point) *Layer {
	return newBitmapLayer(KindSprite, img, origin)
}

func newBitmapLayer(kind Kind, img *image.RGBA, origin image.Point) *Layer {
	size := img.Bounds().Size()
	return &Layer{
		kind:   kind,
		frame:  image.Rectangle{Min: origin, Max: origin.Add(size)},
		bitmap: img,
	}
}

// NewGradientLayer creates a horizontal legend bar in frame, coloured by
// ramp from minAltitude at the left edge to maxAltitude at the right.
func NewGradientLayer(ramp *Ramp, frame image.Rectangle, minAltitude, maxAltitude float64) *Layer {
	return &Layer{
		kind:        KindGradient,
		frame:       frame.Canon(),
		ramp:        ramp,
		minAltitude: minAltitude,
		maxAltitude: maxAltitude,
	}
}

// Kind returns the layer variant.
func (l *Layer) Kind() Kind {
	return l.kind
}

// Frame returns the destination rectangle.
func (l *Layer) Frame() image.Rectangle {
	return l.frame
}

// Render returns the layer's pixels with bounds starting at (0, 0) and the
// size of the frame.
func (l *Layer) Render() *image.RGBA {
	switch l.kind {
	case KindGradient:
		if l.bitmap == nil {
			l.bitmap = l.renderGradient()
		}
		return l.bitmap
	case KindStatic, KindError, KindSprite:
		return l.bitmap
	default:
		panic(fmt.Sprintf("render: unknown layer kind %v", l.kind))
	}
}

func (l *Layer) renderGradient() *image.RGBA {
	size := l.frame.Size()
	img := image.NewRGBA(image.Rectangle{Max: size})
	if size.X <= 0 || size.Y <= 0 {
		return img
	}

	span := l.maxAltitude - l.minAltitude
	for x := 0; x < size.X; x++ {
		alt := l.minAltitude
		if size.X > 1 {
			alt += span * float64(x) / float64(size.X-1)
		}
		col := image.NewUniform(l.ramp.Color(alt))
		draw.Draw(img, image.Rect(x, 0, x+1, size.Y), col, image.Point{}, draw.Src)
	}
	return img
}
