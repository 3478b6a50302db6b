package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/recursions-backend-go/internal/database"
	"github.com/jengzang/recursions-backend-go/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "repo.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrationManager(db).RunMigrations())
	return db
}

func TestTrajectoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTrajectoryRepository(newTestDB(t))

	ds := &models.Dataset{Name: "goat-1", CRS: models.CRSPlanar, PointCount: 3, TrackCount: 2}
	points := []models.TrajectoryPoint{
		{X: 1, Y: 2, T: 10, Track: "a", TrackID: 1},
		{X: 3, Y: 4, T: 20, Track: "a", TrackID: 1},
		{X: 5, Y: 6, T: 5, Track: "b", TrackID: 2},
	}
	require.NoError(t, repo.CreateDataset(ctx, ds, points))
	require.NotZero(t, ds.ID)

	got, err := repo.GetDataset(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, "goat-1", got.Name)
	assert.Equal(t, 3, got.PointCount)

	loaded, err := repo.LoadPoints(ctx, ds.ID)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	// Stored order wins over timestamps.
	assert.Equal(t, 5.0, loaded[2].T)
	assert.Equal(t, "b", loaded[2].Track)
	assert.Equal(t, 2, loaded[2].Seq)

	list, err := repo.ListDatasets(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.GetDataset(ctx, ds.ID+1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecursionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRecursionRepository(newTestDB(t))

	since := 42.5
	run := &models.RecursionRun{
		ID:            "run-1",
		Radius:        10,
		TimeUnit:      "hours",
		Verbose:       true,
		LocationCount: 2,
		EventCount:    2,
	}
	locations := []models.RecursionLocation{
		{LocationIdx: 0, X: 1, Y: 1, Visits: 2, ResidenceTime: 3.5},
		{LocationIdx: 1, X: 9, Y: 9},
	}
	events := []models.RevisitStat{
		{ID: "a", X: 1, Y: 1, CoordIdx: 1, VisitIdx: 1, EntranceTime: 0, ExitTime: 1, TimeInside: 1},
		{ID: "a", X: 1, Y: 1, CoordIdx: 1, VisitIdx: 2, EntranceTime: 5, ExitTime: 7.5, TimeInside: 2.5, TimeSinceLastVisit: &since},
	}
	require.NoError(t, repo.SaveRun(ctx, run, locations, events))

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.DatasetID)
	assert.True(t, got.Verbose)
	assert.Equal(t, "hours", got.TimeUnit)

	locs, err := repo.GetLocations(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, locations, locs)

	evs, err := repo.GetEvents(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Nil(t, evs[0].TimeSinceLastVisit)
	require.NotNil(t, evs[1].TimeSinceLastVisit)
	assert.Equal(t, since, *evs[1].TimeSinceLastVisit)

	_, err = repo.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalysisTaskRepository(t *testing.T) {
	repo := NewAnalysisTaskRepository(newTestDB(t))

	task := &models.AnalysisTask{SkillName: "recursion", Status: models.TaskStatusPending, ParamsJSON: `{}`}
	require.NoError(t, repo.Create(task))

	require.NoError(t, repo.MarkAsRunning(task.ID))
	require.NoError(t, repo.UpdateProgress(task.ID, 5, 20))

	got, err := repo.GetByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusRunning, got.Status)
	assert.Equal(t, 25, got.ProgressPercent)
	assert.NotZero(t, got.StartTime)

	require.NoError(t, repo.MarkAsCompleted(task.ID, `{"ok":true}`))
	got, err = repo.GetByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
	assert.Equal(t, 100, got.ProgressPercent)

	failed := &models.AnalysisTask{SkillName: "recursion", Status: models.TaskStatusPending}
	require.NoError(t, repo.Create(failed))
	require.NoError(t, repo.MarkAsFailed(failed.ID, "boom"))

	tasks, err := repo.List("recursion", models.TaskStatusFailed, 10, 0)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "boom", tasks[0].ErrorMessage)

	_, err = repo.GetByID(999)
	assert.ErrorIs(t, err, ErrNotFound)
}
