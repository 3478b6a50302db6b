package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jengzang/recursions-backend-go/internal/database"
	"github.com/jengzang/recursions-backend-go/internal/models"
)

// TrajectoryRepository handles database operations for datasets and their points
type TrajectoryRepository struct {
	db *sql.DB
}

// NewTrajectoryRepository creates a new trajectory repository
func NewTrajectoryRepository(db *sql.DB) *TrajectoryRepository {
	return &TrajectoryRepository{db: db}
}

// CreateDataset stores a dataset and all of its points in one transaction.
// Points are stored with Seq set to their index in points.
func (r *TrajectoryRepository) CreateDataset(ctx context.Context, ds *models.Dataset, points []models.TrajectoryPoint) error {
	var id int64
	err := database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO datasets (name, crs, point_count, track_count) VALUES (?, ?, ?, ?)`,
			ds.Name, ds.CRS, ds.PointCount, ds.TrackCount)
		if err != nil {
			return fmt.Errorf("failed to insert dataset: %w", err)
		}

		if id, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO trajectory_points
			(dataset_id, seq, x, y, t, track, track_id) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i := range points {
			p := &points[i]
			p.DatasetID = id
			p.Seq = i
			if _, err := stmt.ExecContext(ctx, id, p.Seq, p.X, p.Y, p.T, p.Track, p.TrackID); err != nil {
				return fmt.Errorf("failed to insert point %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	ds.ID = id
	return nil
}

// GetDataset retrieves a dataset by ID
func (r *TrajectoryRepository) GetDataset(ctx context.Context, id int64) (*models.Dataset, error) {
	query := `SELECT id, name, crs, point_count, track_count, created_at FROM datasets WHERE id = ?`

	var ds models.Dataset
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ds.ID, &ds.Name, &ds.CRS, &ds.PointCount, &ds.TrackCount, &ds.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	return &ds, nil
}

// ListDatasets retrieves datasets, newest first
func (r *TrajectoryRepository) ListDatasets(ctx context.Context, limit, offset int) ([]models.Dataset, error) {
	query := `SELECT id, name, crs, point_count, track_count, created_at
		FROM datasets ORDER BY id DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	datasets := []models.Dataset{}
	for rows.Next() {
		var ds models.Dataset
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.CRS, &ds.PointCount, &ds.TrackCount, &ds.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}

	return datasets, rows.Err()
}

// LoadPoints retrieves all points of a dataset in their original order
func (r *TrajectoryRepository) LoadPoints(ctx context.Context, datasetID int64) ([]models.TrajectoryPoint, error) {
	query := `SELECT id, dataset_id, seq, x, y, t, track, track_id
		FROM trajectory_points WHERE dataset_id = ? ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	var points []models.TrajectoryPoint
	for rows.Next() {
		var p models.TrajectoryPoint
		if err := rows.Scan(&p.ID, &p.DatasetID, &p.Seq, &p.X, &p.Y, &p.T, &p.Track, &p.TrackID); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}
