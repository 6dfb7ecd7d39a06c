// Package render composes the panel image: a scene of positioned layers
// blended back to front, aircraft sprites built from telemetry, and the
// altitude colour ramp used to tint them.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorStop anchors a hue (degrees) to an altitude (feet).
type ColorStop struct {
	Altitude float64
	Hue      float64
}

// DefaultStops runs from orange near the ground through green to magenta at cruise.
var DefaultStops = []ColorStop{
	{Altitude: 2000, Hue: 20},
	{Altitude: 10000, Hue: 140},
	{Altitude: 40000, Hue: 300},
}

// Ramp maps altitude to colour by linear interpolation of hue between stops.
// Saturation is fixed at 100% and value at 50%.
type Ramp struct {
	stops []ColorStop
}

// NewRamp validates and copies the stop table. Stops must be strictly
// ascending by altitude.
func NewRamp(stops []ColorStop) (*Ramp, error) {
	if len(stops) == 0 {
		return nil, errors.New("color ramp needs at least one stop")
	}
	for i := 1; i < len(stops); i++ {
		if stops[i].Altitude <= stops[i-1].Altitude {
			return nil, fmt.Errorf("color stops not ascending at index %d (%v <= %v)",
				i, stops[i].Altitude, stops[i-1].Altitude)
		}
	}

	r := &Ramp{stops: make([]ColorStop, len(stops))}
	copy(r.stops, stops)
	return r, nil
}

// DefaultRamp returns the ramp for DefaultStops.
func DefaultRamp() *Ramp {
	r, err := NewRamp(DefaultStops)
	if err != nil {
		panic(err)
	}
	return r
}

// Hue returns the hue in [0, 360) for an altitude in feet. Altitudes below
// the first stop or above the last are clamped to the end hues.
func (r *Ramp) Hue(altitude float64) float64 {
	last := len(r.stops) - 1

	i := last
	for i >= 0 && !(altitude > r.stops[i].Altitude) {
		i--
	}

	var hue float64
	switch {
	case i < 0:
		hue = r.stops[0].Hue
	case i == last:
		hue = r.stops[last].Hue
	default:
		lo, hi := r.stops[i], r.stops[i+1]
		hue = lo.Hue + (hi.Hue-lo.Hue)*(altitude-lo.Altitude)/(hi.Altitude-lo.Altitude)
	}

	hue = math.Mod(hue, 360)
	if hue < 0 {
		hue += 360
	}
	return hue
}

// Color returns the opaque colour for an altitude in feet.
func (r *Ramp) Color(altitude float64) color.RGBA {
	return HueColor(r.Hue(altitude))
}

// HueColor converts a hue at full saturation and half value to RGB.
// Channels are truncated, not rounded.
func HueColor(hue float64) color.RGBA {
	c := colorful.Hsv(hue, 1.0, 0.5)
	return color.RGBA{
		R: channel(c.R),
		G: channel(c.G),
		B: channel(c.B),
		A: 0xff,
	}
}

func channel(v float64) uint8 {
	v = math.Max(0, math.Min(1, v))
	return uint8(v * 255)
}
