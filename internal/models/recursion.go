package models

import "time"

// RecursionRequest is the body of POST /api/v1/recursions. Trajectory columns
// are parallel arrays; locations default to the trajectory itself.
type RecursionRequest struct {
	X         []float64 `json:"x" binding:"required"`
	Y         []float64 `json:"y" binding:"required"`
	T         []float64 `json:"t" binding:"required"`
	ID        []string  `json:"id"`
	LocX      []float64 `json:"loc_x"`
	LocY      []float64 `json:"loc_y"`
	Radius    float64   `json:"radius" binding:"required"`
	Threshold float64   `json:"threshold"` // in TimeUnits
	TimeUnits string    `json:"timeunits"` // secs, mins, hours, days
	Verbose   bool      `json:"verbose"`
}

// DatasetRecursionRequest is the body of POST /api/v1/datasets/:id/recursions
type DatasetRecursionRequest struct {
	LocX      []float64 `json:"loc_x"`
	LocY      []float64 `json:"loc_y"`
	Radius    float64   `json:"radius" binding:"required"`
	Threshold float64   `json:"threshold"`
	TimeUnits string    `json:"timeunits"`
	Verbose   bool      `json:"verbose"`
}

// RevisitStat is one visit of the event log
type RevisitStat struct {
	ID                 string   `json:"id" db:"track"`
	X                  float64  `json:"x" db:"x"`
	Y                  float64  `json:"y" db:"y"`
	CoordIdx           int      `json:"coordIdx" db:"coord_idx"` // 1-based
	VisitIdx           int      `json:"visitIdx" db:"visit_idx"`
	EntranceTime       float64  `json:"entranceTime" db:"entrance_time"`
	ExitTime           float64  `json:"exitTime" db:"exit_time"`
	TimeInside         float64  `json:"timeInside" db:"time_inside"`
	TimeSinceLastVisit *float64 `json:"timeSinceLastVisit" db:"time_since_last_visit"`
}

// RecursionResponse mirrors the result of a recursion computation
type RecursionResponse struct {
	RunID             string        `json:"run_id,omitempty"`
	Revisits          []int         `json:"revisits"`
	ResidenceTime     []float64     `json:"residenceTime"`
	Radius            float64       `json:"radius"`
	TimeUnits         string        `json:"timeunits"`
	CrossingFallbacks int           `json:"crossing_fallbacks,omitempty"`
	RevisitStats      []RevisitStat `json:"revisitStats"`
}

// RecursionRun is the stored header of a persisted computation
type RecursionRun struct {
	ID                string    `json:"id" db:"id"`
	DatasetID         int64     `json:"dataset_id" db:"dataset_id"`
	Radius            float64   `json:"radius" db:"radius"`
	ThresholdSeconds  float64   `json:"threshold_seconds" db:"threshold_seconds"`
	TimeUnit          string    `json:"time_unit" db:"time_unit"`
	Verbose           bool      `json:"verbose" db:"verbose"`
	LocationCount     int       `json:"location_count" db:"location_count"`
	EventCount        int       `json:"event_count" db:"event_count"`
	CrossingFallbacks int       `json:"crossing_fallbacks" db:"crossing_fallbacks"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// RecursionLocation is the stored per-location result of a run
type RecursionLocation struct {
	LocationIdx   int     `json:"location_idx" db:"location_idx"` // 0-based
	X             float64 `json:"x" db:"x"`
	Y             float64 `json:"y" db:"y"`
	Visits        int     `json:"visits" db:"visits"`
	ResidenceTime float64 `json:"residence_time" db:"residence_time"`
}

// RecursionRunDetail bundles a run with its results
type RecursionRunDetail struct {
	Run       *RecursionRun       `json:"run"`
	Locations []RecursionLocation `json:"locations"`
	Summary   *RunSummary         `json:"summary"`
	Events    []RevisitStat       `json:"events,omitempty"`
}

// RunSummary aggregates the per-location results of a run
type RunSummary struct {
	Locations         int     `json:"locations"`
	VisitedLocations  int     `json:"visited_locations"`
	TotalVisits       int     `json:"total_visits"`
	MeanVisits        float64 `json:"mean_visits"`
	StdVisits         float64 `json:"std_visits"`
	MaxVisits         int     `json:"max_visits"`
	MeanResidenceTime float64 `json:"mean_residence_time"`
	StdResidenceTime  float64 `json:"std_residence_time"`
	MaxResidenceTime  float64 `json:"max_residence_time"`
}
