package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"

	"github.com/jengzang/recursions-backend-go/internal/metrics"
	"github.com/jengzang/recursions-backend-go/internal/repository"
)

// Analyzer is the interface that all analysis skills must implement
type Analyzer interface {
	// Analyze performs the analysis for a given task
	// taskID: the analysis task ID
	// params: the task's params_json
	Analyze(ctx context.Context, taskID int64, params json.RawMessage) error

	// GetProgress returns the current progress of the analysis
	GetProgress(taskID int64) (*Progress, error)

	// GetName returns the name of the analyzer
	GetName() string
}

// Progress represents the progress of an analysis task
type Progress struct {
	Processed int     // Number of items processed
	Total     int     // Total number of items to process
	Percent   float64 // Progress percentage (0-100)
	Status    string
}

// Env carries the shared dependencies handed to analyzer factories
type Env struct {
	DB        *sql.DB
	Metrics   *metrics.Collector
	Workers   int
	MaxPoints int
}

// BaseAnalyzer provides common functionality for all analyzers
type BaseAnalyzer struct {
	Tasks *repository.AnalysisTaskRepository
	Name  string
}

// NewBaseAnalyzer creates a new base analyzer
func NewBaseAnalyzer(db *sql.DB, name string) *BaseAnalyzer {
	return &BaseAnalyzer{
		Tasks: repository.NewAnalysisTaskRepository(db),
		Name:  name,
	}
}

// GetName returns the analyzer name
func (a *BaseAnalyzer) GetName() string {
	return a.Name
}

// GetProgress reads the stored progress of a task
func (a *BaseAnalyzer) GetProgress(taskID int64) (*Progress, error) {
	task, err := a.Tasks.GetByID(taskID)
	if err != nil {
		return nil, err
	}
	return &Progress{
		Processed: task.ProcessedItems,
		Total:     task.TotalItems,
		Percent:   float64(task.ProgressPercent),
		Status:    task.Status,
	}, nil
}

// UpdateTaskProgress updates the progress of an analysis task in the database
func (a *BaseAnalyzer) UpdateTaskProgress(taskID int64, processed, total int) error {
	return a.Tasks.UpdateProgress(taskID, processed, total)
}

// MarkTaskAsRunning marks a task as running
func (a *BaseAnalyzer) MarkTaskAsRunning(taskID int64) error {
	return a.Tasks.MarkAsRunning(taskID)
}

// MarkTaskAsCompleted marks a task as completed
func (a *BaseAnalyzer) MarkTaskAsCompleted(taskID int64, summary string) error {
	return a.Tasks.MarkAsCompleted(taskID, summary)
}

// MarkTaskAsFailed marks a task as failed with an error message
func (a *BaseAnalyzer) MarkTaskAsFailed(taskID int64, errorMsg string) error {
	return a.Tasks.MarkAsFailed(taskID, errorMsg)
}

// AnalyzerFactory is a function that creates an analyzer instance
type AnalyzerFactory func(env *Env) Analyzer

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AnalyzerFactory)
)

// RegisterAnalyzer registers an analyzer factory for a skill name
func RegisterAnalyzer(skillName string, factory AnalyzerFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[skillName] = factory
}

// GetAnalyzer retrieves an analyzer instance for a skill name
func GetAnalyzer(skillName string, env *Env) Analyzer {
	registryMu.RLock()
	factory, ok := registry[skillName]
	registryMu.RUnlock()
	if !ok {
		return nil
	}
	return factory(env)
}

// IsRegistered reports whether an analyzer exists for the skill
func IsRegistered(skillName string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[skillName]
	return ok
}

// Skills lists the registered skill names
func Skills() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
