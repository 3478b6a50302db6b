package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/recursions-backend-go/internal/models"
)

// AnalysisTaskRepository handles database operations for analysis tasks
type AnalysisTaskRepository struct {
	db *sql.DB
}

// NewAnalysisTaskRepository creates a new analysis task repository
func NewAnalysisTaskRepository(db *sql.DB) *AnalysisTaskRepository {
	return &AnalysisTaskRepository{db: db}
}

const taskColumns = `id, skill_name, status, progress_percent, total_items, processed_items,
	params_json, result_summary, error_message, created_by, start_time, end_time,
	created_at, updated_at`

func scanTask(row interface{ Scan(...interface{}) error }) (*models.AnalysisTask, error) {
	task := &models.AnalysisTask{}
	err := row.Scan(
		&task.ID,
		&task.SkillName,
		&task.Status,
		&task.ProgressPercent,
		&task.TotalItems,
		&task.ProcessedItems,
		&task.ParamsJSON,
		&task.ResultSummary,
		&task.ErrorMessage,
		&task.CreatedBy,
		&task.StartTime,
		&task.EndTime,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	return task, err
}

// Create creates a new analysis task
func (r *AnalysisTaskRepository) Create(task *models.AnalysisTask) error {
	query := `
		INSERT INTO analysis_tasks (skill_name, status, progress_percent, total_items,
			processed_items, params_json, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		task.SkillName,
		task.Status,
		task.ProgressPercent,
		task.TotalItems,
		task.ProcessedItems,
		task.ParamsJSON,
		task.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	task.ID = id
	return nil
}

// GetByID retrieves an analysis task by ID
func (r *AnalysisTaskRepository) GetByID(id int64) (*models.AnalysisTask, error) {
	row := r.db.QueryRow("SELECT "+taskColumns+" FROM analysis_tasks WHERE id = ?", id)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis task: %w", err)
	}

	return task, nil
}

// List retrieves analysis tasks with optional filters
func (r *AnalysisTaskRepository) List(skillName string, status string, limit int, offset int) ([]*models.AnalysisTask, error) {
	query := "SELECT " + taskColumns + " FROM analysis_tasks WHERE 1=1"

	args := []interface{}{}
	if skillName != "" {
		query += " AND skill_name = ?"
		args = append(args, skillName)
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.AnalysisTask{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// UpdateProgress updates the progress of an analysis task
func (r *AnalysisTaskRepository) UpdateProgress(id int64, processed, total int) error {
	percent := 0
	if total > 0 {
		percent = processed * 100 / total
	}

	query := `
		UPDATE analysis_tasks
		SET processed_items = ?, total_items = ?, progress_percent = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Exec(query, processed, total, percent, id)
	if err != nil {
		return fmt.Errorf("failed to update task progress: %w", err)
	}

	return nil
}

// MarkAsRunning marks a task as running
func (r *AnalysisTaskRepository) MarkAsRunning(id int64) error {
	query := `
		UPDATE analysis_tasks
		SET status = ?, start_time = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Exec(query, models.TaskStatusRunning, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to mark task as running: %w", err)
	}

	return nil
}

// MarkAsCompleted marks a task as completed with result summary
func (r *AnalysisTaskRepository) MarkAsCompleted(id int64, resultSummary string) error {
	query := `
		UPDATE analysis_tasks
		SET status = ?, end_time = ?, result_summary = ?,
			progress_percent = 100, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Exec(query, models.TaskStatusCompleted, time.Now().Unix(), resultSummary, id)
	if err != nil {
		return fmt.Errorf("failed to mark task as completed: %w", err)
	}

	return nil
}

// MarkAsFailed marks a task as failed with an error message
func (r *AnalysisTaskRepository) MarkAsFailed(id int64, errorMessage string) error {
	query := `
		UPDATE analysis_tasks
		SET status = ?, end_time = ?, error_message = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Exec(query, models.TaskStatusFailed, time.Now().Unix(), errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to mark task as failed: %w", err)
	}

	return nil
}
