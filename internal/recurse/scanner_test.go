package recurse

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerFallbackTimestamps(t *testing.T) {
	s := newScanner(0, r2.Point{}, 1, 0, true)

	// Neither segment reaches the circle. Entrance falls back to the prev
	// sample (closer to the boundary), exit to the prev sample as well.
	s.enter(Sample{Pos: r2.Point{X: 0, Y: 1.1}, Time: 3}, Sample{Pos: r2.Point{X: -9, Y: 1.1}, Time: 5})
	assert.True(t, s.inside)
	assert.Equal(t, 3.0, s.entrance)

	s.exit(Sample{Pos: r2.Point{X: -9, Y: 1.1}, Time: 5}, Sample{Pos: r2.Point{X: -9, Y: 5}, Time: 8})
	assert.False(t, s.inside)

	assert.Equal(t, 2, s.fallbacks)
	assert.Equal(t, 1, s.result.Visits)
	assert.Equal(t, 2.0, s.result.ResidenceTime)

	require.Equal(t, 1, s.log.len())
	rec := s.log.at(0)
	assert.Equal(t, 3.0, rec.Entrance)
	assert.Equal(t, 5.0, rec.Exit)
}

func TestComputeCountsCrossingFallbacks(t *testing.T) {
	// Far from the origin the foot of the perpendicular rounds onto the
	// next representable x, so the solver sees the line miss a circle whose
	// boundary samples are classified inside.
	const cx = 1e16
	samples := []Sample{
		{Pos: r2.Point{X: cx + 6, Y: 4}, Time: 0},
		{Pos: r2.Point{X: cx + 4, Y: 0}, Time: 10},
		{Pos: r2.Point{X: cx, Y: 0}, Time: 15},
		{Pos: r2.Point{X: cx - 4, Y: 0}, Time: 20},
		{Pos: r2.Point{X: cx - 6, Y: -4}, Time: 30},
	}
	res := compute(t, samples, []r2.Point{{X: cx}}, Options{Radius: 4, Verbose: true})

	assert.Equal(t, 2, res.CrossingFallbacks)
	assert.Equal(t, 1, res.Locations[0].Visits)
	assert.Equal(t, 10.0, res.Locations[0].ResidenceTime)

	require.Len(t, res.Events, 1)
	assert.Equal(t, 10.0, res.Events[0].Entrance)
	assert.Equal(t, 20.0, res.Events[0].Exit)
}

func TestComputeNoFallbacksOnCleanCrossings(t *testing.T) {
	res := compute(t, line("a", 0, -4, -2, 0, 2, 4), []r2.Point{{}}, Options{Radius: 1})
	assert.Zero(t, res.CrossingFallbacks)
}
