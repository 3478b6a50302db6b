package models

import "time"

// Dataset is a stored trajectory together with its metadata
type Dataset struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	CRS        string    `json:"crs" db:"crs"` // planar, lonlat
	PointCount int       `json:"point_count" db:"point_count"`
	TrackCount int       `json:"track_count" db:"track_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// CRS constants
const (
	CRSPlanar = "planar" // x/y already in a metric projection
	CRSLonLat = "lonlat" // x = longitude, y = latitude in degrees
)

// TrajectoryPoint is one stored sample of a dataset
type TrajectoryPoint struct {
	ID        int64   `json:"id" db:"id"`
	DatasetID int64   `json:"dataset_id" db:"dataset_id"`
	Seq       int     `json:"seq" db:"seq"` // position in the original ordering
	X         float64 `json:"x" db:"x"`
	Y         float64 `json:"y" db:"y"`
	T         float64 `json:"t" db:"t"` // seconds since epoch
	Track     string  `json:"track" db:"track"`
	TrackID   int     `json:"track_id" db:"track_id"` // dense id, first-seen order from 1
}

// CreateDatasetRequest is the body of POST /api/v1/datasets
type CreateDatasetRequest struct {
	Name string    `json:"name" binding:"required"`
	CRS  string    `json:"crs"`
	X    []float64 `json:"x" binding:"required"`
	Y    []float64 `json:"y" binding:"required"`
	T    []float64 `json:"t" binding:"required"`
	ID   []string  `json:"id"` // track labels, optional
}
