package coordinates

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/paulmach/orb"
)

// ErrDegenerateCalibration is returned when the two calibration points do not
// span a region on both axes.
var ErrDegenerateCalibration = errors.New("degenerate calibration pair")

// Projector maps latitude/longitude to panel pixels using two calibration
// points placed at opposite corners of the map image. p0 lands on (0, 0) and
// p1 on (width, height).
//
// The projection is a local equirectangular approximation: longitude is
// scaled by the cosine of the mean calibration latitude, which is accurate
// for the few tens of kilometres a panel map covers.
type Projector struct {
	screen image.Point
	p0, p1 orb.Point

	// cosAvgLat is fixed at construction so every projection uses the same scale
	cosAvgLat float64

	p0Global [2]float64
	p1Global [2]float64
}

// NewProjector builds a projector for a screen of the given size.
// Points are orb.Point values, i.e. [lon, lat].
func NewProjector(screen image.Point, p0, p1 orb.Point) (*Projector, error) {
	if screen.X <= 0 || screen.Y <= 0 {
		return nil, fmt.Errorf("invalid screen size %v", screen)
	}

	avgLat := (p0.Lat() + p1.Lat()) / 2
	p := &Projector{
		screen:    screen,
		p0:        p0,
		p1:        p1,
		cosAvgLat: math.Cos(avgLat * DegreesToRadians),
	}
	p.p0Global = p.global(p0.Lat(), p0.Lon())
	p.p1Global = p.global(p1.Lat(), p1.Lon())

	if p.p1Global[0]-p.p0Global[0] == 0 {
		return nil, fmt.Errorf("%w: p0 and p1 share the same x (lon %.6f)", ErrDegenerateCalibration, p0.Lon())
	}
	if p.p1Global[1]-p.p0Global[1] == 0 {
		return nil, fmt.Errorf("%w: p0 and p1 share the same y (lat %.6f)", ErrDegenerateCalibration, p0.Lat())
	}

	return p, nil
}

// global converts lat/lon to flat "global" kilometres.
func (p *Projector) global(lat, lon float64) [2]float64 {
	return [2]float64{
		EarthRadiusKm * lon * p.cosAvgLat,
		EarthRadiusKm * lat,
	}
}

// Fraction returns the position of lat/lon relative to the calibration
// corners: (0, 0) at p0 and (1, 1) at p1.
func (p *Projector) Fraction(lat, lon float64) (fx, fy float64) {
	g := p.global(lat, lon)
	fx = (g[0] - p.p0Global[0]) / (p.p1Global[0] - p.p0Global[0])
	fy = (g[1] - p.p0Global[1]) / (p.p1Global[1] - p.p0Global[1])
	return fx, fy
}

// Project returns the pixel for lat/lon. Positions outside the calibrated
// region yield pixels outside the screen; callers clip.
func (p *Projector) Project(lat, lon float64) image.Point {
	fx, fy := p.Fraction(lat, lon)
	return image.Point{
		X: Trunc(float64(p.screen.X) * fx),
		Y: Trunc(float64(p.screen.Y) * fy),
	}
}

// Screen returns the screen size the projector was calibrated for.
func (p *Projector) Screen() image.Point {
	return p.screen
}

// Bound returns the calibrated region.
func (p *Projector) Bound() orb.Bound {
	return orb.MultiPoint{p.p0, p.p1}.Bound()
}

// Center returns the middle of the calibrated region.
func (p *Projector) Center() Geographic {
	c := p.Bound().Center()
	return Geographic{Latitude: c.Lat(), Longitude: c.Lon()}
}

// CoverageRadiusNM returns the distance from the region center to its
// farthest corner, i.e. the radius a circular query needs to cover the map.
func (p *Projector) CoverageRadiusNM() float64 {
	center := p.Center()
	var radius float64
	for _, corner := range []orb.Point{p.p0, p.p1, {p.p0.Lon(), p.p1.Lat()}, {p.p1.Lon(), p.p0.Lat()}} {
		d := DistanceNauticalMiles(center, Geographic{Latitude: corner.Lat(), Longitude: corner.Lon()})
		if d > radius {
			radius = d
		}
	}
	return radius
}
