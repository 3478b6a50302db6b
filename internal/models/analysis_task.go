package models

import "time"

// AnalysisTask represents a background analysis over a stored dataset
type AnalysisTask struct {
	ID int64 `json:"id" db:"id"`

	// Task identification
	SkillName string `json:"skill_name" db:"skill_name"` // Which analyzer to run

	// Status
	Status          string `json:"status" db:"status"` // pending, running, completed, failed
	ProgressPercent int    `json:"progress_percent" db:"progress_percent"`

	// Input parameters
	ParamsJSON string `json:"params_json,omitempty" db:"params_json"`

	// Execution info
	TotalItems     int   `json:"total_items,omitempty" db:"total_items"`
	ProcessedItems int   `json:"processed_items" db:"processed_items"`
	StartTime      int64 `json:"start_time,omitempty" db:"start_time"` // Unix timestamp
	EndTime        int64 `json:"end_time,omitempty" db:"end_time"`     // Unix timestamp

	// Results
	ResultSummary string `json:"result_summary,omitempty" db:"result_summary"` // JSON object with summary statistics
	ErrorMessage  string `json:"error_message,omitempty" db:"error_message"`

	// Metadata
	CreatedBy string    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TaskStatus constants
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// TaskCancelledMessage is the error_message of a task cancelled through the API
const TaskCancelledMessage = "Task cancelled by user"

// RecursionTaskParams are the params_json of a recursion task
type RecursionTaskParams struct {
	DatasetID int64 `json:"dataset_id"`
	DatasetRecursionRequest
}
