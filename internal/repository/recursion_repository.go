package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jengzang/recursions-backend-go/internal/database"
	"github.com/jengzang/recursions-backend-go/internal/models"
)

// RecursionRepository persists recursion runs and their results
type RecursionRepository struct {
	db *sql.DB
}

// NewRecursionRepository creates a new recursion repository
func NewRecursionRepository(db *sql.DB) *RecursionRepository {
	return &RecursionRepository{db: db}
}

// SaveRun stores a run header, its per-location results and its event log
// in a single transaction
func (r *RecursionRepository) SaveRun(ctx context.Context, run *models.RecursionRun, locations []models.RecursionLocation, events []models.RevisitStat) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		var datasetID interface{}
		if run.DatasetID > 0 {
			datasetID = run.DatasetID
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO recursion_runs (id, dataset_id, radius, threshold_seconds, time_unit,
				verbose, location_count, event_count, crossing_fallbacks)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, datasetID, run.Radius, run.ThresholdSeconds, run.TimeUnit,
			run.Verbose, run.LocationCount, run.EventCount, run.CrossingFallbacks)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		locStmt, err := tx.PrepareContext(ctx, `INSERT INTO recursion_locations
			(run_id, location_idx, x, y, visits, residence_time) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer locStmt.Close()

		for _, loc := range locations {
			if _, err := locStmt.ExecContext(ctx, run.ID, loc.LocationIdx, loc.X, loc.Y, loc.Visits, loc.ResidenceTime); err != nil {
				return fmt.Errorf("failed to insert location %d: %w", loc.LocationIdx, err)
			}
		}

		evStmt, err := tx.PrepareContext(ctx, `INSERT INTO recursion_events
			(run_id, coord_idx, visit_idx, track, x, y, entrance_time, exit_time,
			 time_inside, time_since_last_visit)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer evStmt.Close()

		for _, ev := range events {
			var since sql.NullFloat64
			if ev.TimeSinceLastVisit != nil {
				since = sql.NullFloat64{Float64: *ev.TimeSinceLastVisit, Valid: true}
			}
			if _, err := evStmt.ExecContext(ctx, run.ID, ev.CoordIdx, ev.VisitIdx, ev.ID, ev.X, ev.Y,
				ev.EntranceTime, ev.ExitTime, ev.TimeInside, since); err != nil {
				return fmt.Errorf("failed to insert event: %w", err)
			}
		}

		return nil
	})
}

// GetRun retrieves a run header by ID
func (r *RecursionRepository) GetRun(ctx context.Context, id string) (*models.RecursionRun, error) {
	query := `SELECT id, dataset_id, radius, threshold_seconds, time_unit, verbose,
		location_count, event_count, crossing_fallbacks, created_at
		FROM recursion_runs WHERE id = ?`

	var run models.RecursionRun
	var datasetID sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &datasetID, &run.Radius, &run.ThresholdSeconds, &run.TimeUnit, &run.Verbose,
		&run.LocationCount, &run.EventCount, &run.CrossingFallbacks, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recursion run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recursion run: %w", err)
	}
	run.DatasetID = datasetID.Int64

	return &run, nil
}

// GetLocations retrieves the per-location results of a run
func (r *RecursionRepository) GetLocations(ctx context.Context, runID string) ([]models.RecursionLocation, error) {
	query := `SELECT location_idx, x, y, visits, residence_time
		FROM recursion_locations WHERE run_id = ? ORDER BY location_idx`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	locations := []models.RecursionLocation{}
	for rows.Next() {
		var loc models.RecursionLocation
		if err := rows.Scan(&loc.LocationIdx, &loc.X, &loc.Y, &loc.Visits, &loc.ResidenceTime); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}

	return locations, rows.Err()
}

// GetEvents retrieves the event log of a run in location, visit order
func (r *RecursionRepository) GetEvents(ctx context.Context, runID string) ([]models.RevisitStat, error) {
	query := `SELECT track, x, y, coord_idx, visit_idx, entrance_time, exit_time,
		time_inside, time_since_last_visit
		FROM recursion_events WHERE run_id = ? ORDER BY coord_idx, visit_idx`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.RevisitStat{}
	for rows.Next() {
		var ev models.RevisitStat
		var since sql.NullFloat64
		if err := rows.Scan(&ev.ID, &ev.X, &ev.Y, &ev.CoordIdx, &ev.VisitIdx,
			&ev.EntranceTime, &ev.ExitTime, &ev.TimeInside, &since); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if since.Valid {
			v := since.Float64
			ev.TimeSinceLastVisit = &v
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}
