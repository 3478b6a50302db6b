package recurse

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
)

func TestCrossingFraction(t *testing.T) {
	origin := r2.Point{}

	tests := []struct {
		name     string
		radius   float64
		from, to r2.Point
		want     float64
		ok       bool
	}{
		{"center to outside", 1, r2.Point{X: 0, Y: 0}, r2.Point{X: 2, Y: 0}, 0.5, true},
		{"diagonal", 2.5, r2.Point{X: 0, Y: 0}, r2.Point{X: 3, Y: 4}, 0.5, true},
		{"off center chord", 5, r2.Point{X: -3, Y: 3}, r2.Point{X: 8, Y: 3}, 7.0 / 11.0, true},
		{"tangent at from", 1, r2.Point{X: 0, Y: 1}, r2.Point{X: 2, Y: 1}, 0, true},
		{"tangent elsewhere", 1, r2.Point{X: -2, Y: 1}, r2.Point{X: 2, Y: 1}, 1, true},
		{"line misses circle", 1, r2.Point{X: 0, Y: 2}, r2.Point{X: 5, Y: 2}, 0, false},
		{"line misses, to nearer boundary", 1, r2.Point{X: -9, Y: 1.1}, r2.Point{X: 0, Y: 1.1}, 1, false},
		{"zero length", 1, r2.Point{X: 1, Y: 0}, r2.Point{X: 1, Y: 0}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CrossingFraction(origin, tt.radius, tt.from, tt.to)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestCrossingFractionEntranceConvention(t *testing.T) {
	// Outside at t=10, inside at t=11. Reversing the segment yields the
	// fraction measured back from the inside sample.
	center := r2.Point{X: 0, Y: 0}
	outside := r2.Point{X: -4, Y: 0}
	inside := r2.Point{X: 0, Y: 0}

	p, ok := CrossingFraction(center, 1, inside, outside)
	assert.True(t, ok)

	entrance := 11 - p*(11-10)
	assert.InDelta(t, 10.75, entrance, 1e-12)
}
