package recurse

import "github.com/golang/geo/r2"

// Sample is one recorded position of the trajectory.
type Sample struct {
	Pos   r2.Point
	Time  float64 // seconds
	Track string
}

// Visit is one (possibly merged) stay inside a location's radius.
type Visit struct {
	Entrance float64
	Exit     float64
}

// Duration returns Exit - Entrance.
func (v Visit) Duration() float64 {
	return v.Exit - v.Entrance
}

// Record is one finalized visit in the event log.
type Record struct {
	LocationIndex int
	VisitIndex    int // 1-based, per location
	Track         string
	Pos           r2.Point
	Visit
	TimeInside float64
	// TimeSinceLastVisit is nil for the first visit of a track.
	TimeSinceLastVisit *float64
}

// LocationResult holds the totals for one query location.
type LocationResult struct {
	Visits        int
	ResidenceTime float64
}

// Result is the output of Compute.
type Result struct {
	Locations []LocationResult
	Radius    float64
	// Events is nil unless Options.Verbose is set.
	Events []Record
	// CrossingFallbacks counts crossings where CrossingFraction had to fall
	// back to an endpoint.
	CrossingFallbacks int
}
