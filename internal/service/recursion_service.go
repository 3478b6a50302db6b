package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/golang/geo/r2"
	"github.com/google/uuid"

	"github.com/jengzang/recursions-backend-go/internal/metrics"
	"github.com/jengzang/recursions-backend-go/internal/models"
	"github.com/jengzang/recursions-backend-go/internal/recurse"
	"github.com/jengzang/recursions-backend-go/internal/repository"
	"github.com/jengzang/recursions-backend-go/internal/spatial"
)

// Computation modes, used as metric labels
const (
	ModeInline  = "inline"
	ModeDataset = "dataset"
	ModeTask    = "task"
)

// RecursionService runs recursion analyses on inline or stored trajectories
type RecursionService struct {
	trajRepo  *repository.TrajectoryRepository
	recRepo   *repository.RecursionRepository
	metrics   *metrics.Collector
	workers   int
	maxPoints int

	// mode labels stored-dataset runs in metrics
	mode string
}

// NewRecursionService creates a new recursion service
func NewRecursionService(
	trajRepo *repository.TrajectoryRepository,
	recRepo *repository.RecursionRepository,
	collector *metrics.Collector,
	workers int,
	maxPoints int,
) *RecursionService {
	return &RecursionService{
		trajRepo:  trajRepo,
		recRepo:   recRepo,
		metrics:   collector,
		workers:   workers,
		maxPoints: maxPoints,
		mode:      ModeDataset,
	}
}

// ForTasks returns a copy whose stored-dataset runs are reported as task runs
func (s *RecursionService) ForTasks() *RecursionService {
	c := *s
	c.mode = ModeTask
	return &c
}

// params are the analysis parameters shared by all entry points
type params struct {
	radius    float64
	threshold float64 // seconds
	unit      recurse.TimeUnit
	verbose   bool
}

// parseParams converts the threshold from the request's time unit into
// seconds. Unknown units are treated as seconds.
func parseParams(radius, threshold float64, timeUnits string, verbose bool) (params, error) {
	unit := recurse.ParseTimeUnit(timeUnits)
	if !(radius > 0) || math.IsInf(radius, 1) {
		return params{}, fmt.Errorf("%w: radius must be positive", ErrInvalidInput)
	}
	if threshold < 0 || !finite(threshold) {
		return params{}, fmt.Errorf("%w: threshold must not be negative", ErrInvalidInput)
	}
	return params{
		radius:    radius,
		threshold: threshold * unit.Seconds(),
		unit:      unit,
		verbose:   verbose,
	}, nil
}

func locationsFrom(locX, locY []float64) ([]r2.Point, error) {
	if len(locX) != len(locY) {
		return nil, fmt.Errorf("%w: loc_x and loc_y must have the same length", ErrInvalidInput)
	}
	locs := make([]r2.Point, len(locX))
	for i := range locX {
		if !finite(locX[i]) || !finite(locY[i]) {
			return nil, fmt.Errorf("%w: location %d is not finite", ErrInvalidInput, i)
		}
		locs[i] = r2.Point{X: locX[i], Y: locY[i]}
	}
	return locs, nil
}

// Compute runs a recursion analysis over an inline trajectory. Locations
// default to the trajectory positions.
func (s *RecursionService) Compute(ctx context.Context, req models.RecursionRequest) (*models.RecursionResponse, error) {
	if err := validateTrajectory(req.X, req.Y, req.T, req.ID, s.maxPoints); err != nil {
		return nil, err
	}
	p, err := parseParams(req.Radius, req.Threshold, req.TimeUnits, req.Verbose)
	if err != nil {
		return nil, err
	}
	locs, err := locationsFrom(req.LocX, req.LocY)
	if err != nil {
		return nil, err
	}

	labels := trackLabelsOrDefault(req.ID, len(req.X))
	samples := make([]recurse.Sample, len(req.X))
	for i := range samples {
		samples[i] = recurse.Sample{
			Pos:   r2.Point{X: req.X[i], Y: req.Y[i]},
			Time:  req.T[i],
			Track: labels[i],
		}
	}
	if len(locs) == 0 {
		locs = recurse.AtTrajectory(samples)
	}

	res, err := s.run(ctx, ModeInline, samples, locs, p, nil)
	if err != nil {
		return nil, err
	}

	return BuildResponse(res, locs, p.unit), nil
}

// ComputeForDataset runs a recursion analysis over a stored dataset and
// persists the run. Datasets stored as lon/lat are projected to local meters
// first, so radius is always in meters for them; reported locations keep the
// dataset's coordinates.
func (s *RecursionService) ComputeForDataset(ctx context.Context, datasetID int64, req models.DatasetRecursionRequest, progress func(done, total int)) (*models.RecursionResponse, error) {
	p, err := parseParams(req.Radius, req.Threshold, req.TimeUnits, req.Verbose)
	if err != nil {
		return nil, err
	}
	reportLocs, err := locationsFrom(req.LocX, req.LocY)
	if err != nil {
		return nil, err
	}

	ds, err := s.trajRepo.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	points, err := s.trajRepo.LoadPoints(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: dataset %d has no points", ErrInvalidInput, datasetID)
	}

	samples := make([]recurse.Sample, len(points))
	for i, pt := range points {
		samples[i] = recurse.Sample{Pos: r2.Point{X: pt.X, Y: pt.Y}, Time: pt.T, Track: pt.Track}
	}
	if len(reportLocs) == 0 {
		reportLocs = recurse.AtTrajectory(samples)
	}

	scanLocs := reportLocs
	if ds.CRS == models.CRSLonLat {
		lats := make([]float64, len(points))
		lons := make([]float64, len(points))
		for i, pt := range points {
			lons[i], lats[i] = pt.X, pt.Y
		}
		proj := spatial.NewProjectorFor(lats, lons)

		var distortion float64
		for i := range samples {
			samples[i].Pos = proj.Project(points[i].Y, points[i].X)
			distortion = math.Max(distortion, proj.Distortion(points[i].Y, points[i].X))
		}
		origin := proj.Origin()
		log.Printf("[RecursionService] Projected dataset %d around (%.5f, %.5f), max distortion %.2fm",
			datasetID, origin.Lat.Degrees(), origin.Lng.Degrees(), distortion)
		scanLocs = make([]r2.Point, len(reportLocs))
		for i, loc := range reportLocs {
			scanLocs[i] = proj.Project(loc.Y, loc.X)
		}
	}

	res, err := s.run(ctx, s.mode, samples, scanLocs, p, progress)
	if err != nil {
		return nil, err
	}

	resp := BuildResponse(res, reportLocs, p.unit)
	resp.RunID = uuid.NewString()

	run := &models.RecursionRun{
		ID:                resp.RunID,
		DatasetID:         datasetID,
		Radius:            p.radius,
		ThresholdSeconds:  p.threshold,
		TimeUnit:          p.unit.String(),
		Verbose:           p.verbose,
		LocationCount:     len(reportLocs),
		EventCount:        len(resp.RevisitStats),
		CrossingFallbacks: res.CrossingFallbacks,
	}
	locations := make([]models.RecursionLocation, len(reportLocs))
	for i, loc := range reportLocs {
		locations[i] = models.RecursionLocation{
			LocationIdx:   i,
			X:             loc.X,
			Y:             loc.Y,
			Visits:        resp.Revisits[i],
			ResidenceTime: resp.ResidenceTime[i],
		}
	}
	if err := s.recRepo.SaveRun(ctx, run, locations, resp.RevisitStats); err != nil {
		return nil, fmt.Errorf("failed to save recursion run: %w", err)
	}

	log.Printf("[RecursionService] Stored run %s for dataset %d (%d locations, %d events)",
		run.ID, datasetID, run.LocationCount, run.EventCount)
	return resp, nil
}

// GetRun retrieves a stored run with its per-location results and, when
// requested, its event log
func (s *RecursionService) GetRun(ctx context.Context, id string, withEvents bool) (*models.RecursionRunDetail, error) {
	run, err := s.recRepo.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	locations, err := s.recRepo.GetLocations(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.RecursionRunDetail{
		Run:       run,
		Locations: locations,
		Summary:   SummarizeLocations(locations),
	}
	if withEvents {
		if detail.Events, err = s.recRepo.GetEvents(ctx, id); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

func (s *RecursionService) run(ctx context.Context, mode string, samples []recurse.Sample, locs []r2.Point, p params, progress func(done, total int)) (*recurse.Result, error) {
	start := time.Now()
	res, err := recurse.Compute(ctx, samples, locs, recurse.Options{
		Radius:     p.radius,
		Threshold:  p.threshold,
		Unit:       p.unit,
		Verbose:    p.verbose,
		Workers:    s.workers,
		OnLocation: progress,
	})
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.ObserveRun(mode, elapsed, 0, 0, err)
		if errors.Is(err, recurse.ErrEmptyTrajectory) || errors.Is(err, recurse.ErrInvalidRadius) || errors.Is(err, recurse.ErrInvalidThreshold) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("recursion computation failed: %w", err)
	}

	s.metrics.ObserveRun(mode, elapsed, len(locs), res.CrossingFallbacks, nil)
	if res.CrossingFallbacks > 0 {
		log.Printf("[RecursionService] Warning: %d boundary crossings fell back to segment endpoints", res.CrossingFallbacks)
	}

	return res, nil
}

// BuildResponse converts a computation result into the response model.
// Event rows report the coordinates in locs.
func BuildResponse(res *recurse.Result, locs []r2.Point, unit recurse.TimeUnit) *models.RecursionResponse {
	resp := &models.RecursionResponse{
		Revisits:          make([]int, len(res.Locations)),
		ResidenceTime:     make([]float64, len(res.Locations)),
		Radius:            res.Radius,
		TimeUnits:         unit.String(),
		CrossingFallbacks: res.CrossingFallbacks,
	}
	for i, loc := range res.Locations {
		resp.Revisits[i] = loc.Visits
		resp.ResidenceTime[i] = loc.ResidenceTime
	}

	if res.Events != nil {
		resp.RevisitStats = make([]models.RevisitStat, len(res.Events))
		for i, ev := range res.Events {
			loc := locs[ev.LocationIndex]
			resp.RevisitStats[i] = models.RevisitStat{
				ID:                 ev.Track,
				X:                  loc.X,
				Y:                  loc.Y,
				CoordIdx:           ev.LocationIndex + 1,
				VisitIdx:           ev.VisitIndex,
				EntranceTime:       ev.Entrance,
				ExitTime:           ev.Exit,
				TimeInside:         ev.TimeInside,
				TimeSinceLastVisit: ev.TimeSinceLastVisit,
			}
		}
	}

	return resp
}
