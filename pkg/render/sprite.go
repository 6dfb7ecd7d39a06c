package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/unklstewy/ads-panel/pkg/adsb"
	"github.com/unklstewy/ads-panel/pkg/coordinates"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Projection maps a geographic position to a canvas pixel.
type Projection interface {
	Project(lat, lon float64) image.Point
}

// SpriteOptions configures aircraft icons.
type SpriteOptions struct {
	// Size is the square icon size in pixels (default 30)
	Size int

	// IconHeading is where the nose of the source icon points, in degrees
	// clockwise from north
	IconHeading float64

	// CacheSize is the number of tinted, rotated bitmaps kept; 0 disables caching
	CacheSize int
}

type spriteKey struct {
	heading float64
	color   color.RGBA
}

// SpriteSet owns the aircraft layers in a Scene. Every Update replaces all
// of them with fresh layers built from the latest telemetry.
type SpriteSet struct {
	scene      *Scene
	projection Projection
	ramp       *Ramp
	opts       SpriteOptions

	// icon is the source icon scaled to Size×Size
	icon *image.RGBA

	cache  *lru.Cache[spriteKey, *image.RGBA]
	layers []*Layer
}

// NewSpriteSet creates a sprite set drawing into scene.
func NewSpriteSet(scene *Scene, projection Projection, ramp *Ramp, icon image.Image, opts SpriteOptions) (*SpriteSet, error) {
	if opts.Size <= 0 {
		opts.Size = 30
	}

	s := &SpriteSet{
		scene:      scene,
		projection: projection,
		ramp:       ramp,
		opts:       opts,
		icon:       image.NewRGBA(image.Rect(0, 0, opts.Size, opts.Size)),
	}
	draw.BiLinear.Scale(s.icon, s.icon.Bounds(), icon, icon.Bounds(), draw.Src, nil)

	if opts.CacheSize > 0 {
		cache, err := lru.New[spriteKey, *image.RGBA](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create sprite cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

// Update replaces the current sprites with one per aircraft that has a
// position. New layers are added before the old ones are removed, so the
// scene is never rendered without sprites in between. Returns the number
// of sprites now in the scene.
func (s *SpriteSet) Update(aircraft []adsb.Aircraft) int {
	fresh := make([]*Layer, 0, len(aircraft))
	half := float64(s.opts.Size) / 2

	for _, ac := range aircraft {
		if !ac.Valid() {
			continue
		}

		p := s.projection.Project(*ac.Latitude, *ac.Longitude)
		origin := image.Point{
			X: coordinates.Trunc(float64(p.X) - half),
			Y: coordinates.Trunc(float64(p.Y) - half),
		}

		bitmap := s.bitmap(ac.Heading(), s.ramp.Color(ac.AltitudeFt()))
		fresh = append(fresh, NewSpriteLayer(bitmap, origin))
	}

	s.scene.Swap(s.layers, fresh)
	s.layers = fresh
	return len(fresh)
}

// Clear removes every sprite from the scene.
func (s *SpriteSet) Clear() {
	s.scene.Swap(s.layers, nil)
	s.layers = nil
}

// Len returns the number of sprites in the scene.
func (s *SpriteSet) Len() int {
	return len(s.layers)
}

// Layers returns the current sprite layers.
func (s *SpriteSet) Layers() []*Layer {
	out := make([]*Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// bitmap returns the icon rotated to heading and tinted with c.
func (s *SpriteSet) bitmap(heading float64, c color.RGBA) *image.RGBA {
	key := spriteKey{heading: heading, color: c}
	if s.cache != nil {
		if img, ok := s.cache.Get(key); ok {
			return img
		}
	}

	rotated := rotate(s.icon, heading-s.opts.IconHeading)

	// Uniform colour through the icon's alpha keeps its shape and edges
	tinted := image.NewRGBA(rotated.Bounds())
	draw.DrawMask(tinted, tinted.Bounds(), image.NewUniform(c), image.Point{}, rotated, image.Point{}, draw.Src)

	if s.cache != nil {
		s.cache.Add(key, tinted)
	}
	return tinted
}

// rotate turns src clockwise by degrees about its center, keeping its size.
// Corners that leave the square are cut off.
func rotate(src *image.RGBA, degrees float64) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rectangle{Max: b.Size()})

	rad := degrees * coordinates.DegreesToRadians
	sin, cos := math.Sincos(rad)
	cx := float64(b.Dx()) / 2
	cy := float64(b.Dy()) / 2

	// Source to destination; y grows downwards so a positive angle is clockwise
	m := f64.Aff3{
		cos, -sin, cx - cos*(cx+float64(b.Min.X)) + sin*(cy+float64(b.Min.Y)),
		sin, cos, cy - sin*(cx+float64(b.Min.X)) - cos*(cy+float64(b.Min.Y)),
	}
	draw.BiLinear.Transform(dst, m, src, b, draw.Src, nil)
	return dst
}
