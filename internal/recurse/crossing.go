package recurse

import (
	"math"

	"github.com/golang/geo/r2"
)

// CrossingFraction returns the fraction p in [0,1] along the segment from -> to
// at which it leaves the circle (center, radius). from is expected inside the
// circle and to outside, so p is the farther of the two line/circle
// intersections measured from `from`.
//
// Exit times are interpolated as t(prev) + p*(t(cur)-t(prev)) with from=prev.
// Entrance times call it with from=cur (the inside sample) and to=prev, and
// interpolate backwards: t(cur) - p*(t(cur)-t(prev)).
//
// ok is false when the line does not reach the circle or the segment has zero
// length. The inside/outside classification and the projection disagree in
// that case (a rounding artefact at the boundary), and p falls back to the
// endpoint whose distance to the center is closest to radius: 0 for from, 1
// for to.
func CrossingFraction(center r2.Point, radius float64, from, to r2.Point) (p float64, ok bool) {
	seg := to.Sub(from)
	length := seg.Norm()
	if length == 0 {
		return nearerEndpoint(center, radius, from, to), false
	}

	dir := seg.Mul(1 / length)

	// Signed distance from `from` to the projection of center on the line.
	t := dir.Dot(center.Sub(from))
	closest := from.Add(dir.Mul(t))
	lec := closest.Sub(center).Norm()

	switch {
	case lec < radius:
		dt := math.Sqrt(radius*radius - lec*lec)
		return clamp01((t + dt) / length), true
	case lec == radius:
		// Tangent.
		if closest == from {
			return 0, true
		}
		return 1, true
	}

	return nearerEndpoint(center, radius, from, to), false
}

func nearerEndpoint(center r2.Point, radius float64, from, to r2.Point) float64 {
	dFrom := math.Abs(from.Sub(center).Norm() - radius)
	dTo := math.Abs(to.Sub(center).Norm() - radius)
	if dTo < dFrom {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
