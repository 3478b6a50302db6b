package spatial

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// Projector maps geographic coordinates onto a local planar frame in meters
// (x east, y north) centred on an origin, using an equirectangular
// approximation. Distances stay within a fraction of a percent of the
// great-circle distance over a few tens of kilometers.
type Projector struct {
	origin s2.LatLng
	cosLat float64
}

// NewProjector creates a projector centred on (lat, lon) in degrees
func NewProjector(lat, lon float64) *Projector {
	origin := s2.LatLngFromDegrees(lat, lon)
	return &Projector{
		origin: origin,
		cosLat: math.Cos(origin.Lat.Radians()),
	}
}

// NewProjectorFor centres a projector on the mean position of the given points.
// The mean is taken over unit vectors so longitudes straddling the
// antimeridian average to a point near ±180 rather than near 0.
// lats and lons must have the same length.
func NewProjectorFor(lats, lons []float64) *Projector {
	if len(lats) == 0 {
		return NewProjector(0, 0)
	}

	var sum r3.Vector
	for i := range lats {
		sum = sum.Add(s2.PointFromLatLng(s2.LatLngFromDegrees(lats[i], lons[i])).Vector)
	}
	if sum.Norm() < 1e-12 {
		// Points cancel out, any of them is as good an origin as the next.
		return NewProjector(lats[0], lons[0])
	}
	c := s2.LatLngFromPoint(s2.Point{Vector: sum})
	return NewProjector(c.Lat.Degrees(), c.Lng.Degrees())
}

// Origin returns the projection origin
func (p *Projector) Origin() s2.LatLng {
	return p.origin
}

// Project converts degrees to local meters
func (p *Projector) Project(lat, lon float64) r2.Point {
	ll := s2.LatLngFromDegrees(lat, lon)
	dLng := (ll.Lng - p.origin.Lng).Normalized()
	dLat := ll.Lat - p.origin.Lat
	return r2.Point{
		X: dLng.Radians() * p.cosLat * EarthRadiusMeters,
		Y: dLat.Radians() * EarthRadiusMeters,
	}
}

// Distortion returns how far, in meters, the projected distance from the
// origin to (lat, lon) departs from the great-circle distance.
func (p *Projector) Distortion(lat, lon float64) float64 {
	planar := p.Project(lat, lon).Norm()
	great := HaversineDistance(p.origin.Lat.Degrees(), p.origin.Lng.Degrees(), lat, lon)
	return math.Abs(planar - great)
}
