package service

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/jengzang/recursions-backend-go/internal/models"
	"github.com/jengzang/recursions-backend-go/internal/recurse"
	"github.com/jengzang/recursions-backend-go/internal/repository"
)

// TrajectoryService handles business logic for stored trajectories
type TrajectoryService struct {
	trajRepo  *repository.TrajectoryRepository
	maxPoints int
}

// NewTrajectoryService creates a new trajectory service. maxPoints <= 0
// disables the size limit.
func NewTrajectoryService(trajRepo *repository.TrajectoryRepository, maxPoints int) *TrajectoryService {
	return &TrajectoryService{
		trajRepo:  trajRepo,
		maxPoints: maxPoints,
	}
}

// Upload validates and stores a trajectory
func (s *TrajectoryService) Upload(ctx context.Context, req models.CreateDatasetRequest) (*models.Dataset, error) {
	if req.CRS == "" {
		req.CRS = models.CRSPlanar
	}
	if req.CRS != models.CRSPlanar && req.CRS != models.CRSLonLat {
		return nil, fmt.Errorf("%w: unknown crs %q", ErrInvalidInput, req.CRS)
	}
	if err := validateTrajectory(req.X, req.Y, req.T, req.ID, s.maxPoints); err != nil {
		return nil, err
	}
	if req.CRS == models.CRSLonLat {
		if err := validateLonLat(req.X, req.Y); err != nil {
			return nil, err
		}
	}

	labels := trackLabelsOrDefault(req.ID, len(req.X))
	ids := recurse.TrackIDs(labels)

	points := make([]models.TrajectoryPoint, len(req.X))
	tracks := 0
	for i := range points {
		points[i] = models.TrajectoryPoint{
			X:       req.X[i],
			Y:       req.Y[i],
			T:       req.T[i],
			Track:   labels[i],
			TrackID: ids[i],
		}
		if ids[i] > tracks {
			tracks = ids[i]
		}
	}

	ds := &models.Dataset{
		Name:       req.Name,
		CRS:        req.CRS,
		PointCount: len(points),
		TrackCount: tracks,
	}
	if err := s.trajRepo.CreateDataset(ctx, ds, points); err != nil {
		return nil, fmt.Errorf("failed to store dataset: %w", err)
	}

	log.Printf("Stored dataset %d (%s): %d points, %d tracks", ds.ID, ds.Name, ds.PointCount, ds.TrackCount)
	return ds, nil
}

// GetDataset retrieves a dataset by ID
func (s *TrajectoryService) GetDataset(ctx context.Context, id int64) (*models.Dataset, error) {
	return s.trajRepo.GetDataset(ctx, id)
}

// ListDatasets retrieves datasets with pagination
func (s *TrajectoryService) ListDatasets(ctx context.Context, limit, offset int) ([]models.Dataset, error) {
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.trajRepo.ListDatasets(ctx, limit, offset)
}

func validateTrajectory(x, y, t []float64, ids []string, maxPoints int) error {
	n := len(x)
	if n == 0 {
		return fmt.Errorf("%w: trajectory is empty", ErrInvalidInput)
	}
	if len(y) != n || len(t) != n {
		return fmt.Errorf("%w: x, y and t must have the same length", ErrInvalidInput)
	}
	if len(ids) != 0 && len(ids) != n {
		return fmt.Errorf("%w: id must be empty or have one label per point", ErrInvalidInput)
	}
	if maxPoints > 0 && n > maxPoints {
		return fmt.Errorf("%w: trajectory has %d points, limit is %d", ErrInvalidInput, n, maxPoints)
	}
	for i := 0; i < n; i++ {
		if !finite(x[i]) || !finite(y[i]) || !finite(t[i]) {
			return fmt.Errorf("%w: point %d is not finite", ErrInvalidInput, i)
		}
	}
	return nil
}

func validateLonLat(lon, lat []float64) error {
	for i := range lon {
		if math.Abs(lon[i]) > 180 || math.Abs(lat[i]) > 90 {
			return fmt.Errorf("%w: point %d is outside lon/lat range", ErrInvalidInput, i)
		}
	}
	return nil
}

func trackLabelsOrDefault(ids []string, n int) []string {
	if len(ids) == n {
		return ids
	}
	return make([]string, n)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
