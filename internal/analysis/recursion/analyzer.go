// Package recursion registers the "recursion" analysis skill, which runs a
// recursion analysis over a stored dataset as a background task.
package recursion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jengzang/recursions-backend-go/internal/analysis"
	"github.com/jengzang/recursions-backend-go/internal/models"
	"github.com/jengzang/recursions-backend-go/internal/repository"
	"github.com/jengzang/recursions-backend-go/internal/service"
)

// SkillName is the registry key of the analyzer
const SkillName = "recursion"

// progressEvery is how many scanned locations pass between progress writes
const progressEvery = 100

// maxReported caps the per-location entries in the task summary
const maxReported = 10

func init() {
	analysis.RegisterAnalyzer(SkillName, NewAnalyzer)
}

// Analyzer runs recursion analyses for analysis tasks
type Analyzer struct {
	*analysis.BaseAnalyzer
	recursions *service.RecursionService
}

// NewAnalyzer creates a new recursion analyzer
func NewAnalyzer(env *analysis.Env) analysis.Analyzer {
	return &Analyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(env.DB, SkillName),
		recursions: service.NewRecursionService(
			repository.NewTrajectoryRepository(env.DB),
			repository.NewRecursionRepository(env.DB),
			env.Metrics,
			env.Workers,
			env.MaxPoints,
		).ForTasks(),
	}
}

// Summary is stored as the task's result_summary
type Summary struct {
	RunID     string               `json:"run_id"`
	DatasetID int64                `json:"dataset_id"`
	TimeUnits string               `json:"timeunits"`
	Stats     *models.RunSummary   `json:"stats"`
	Top       []LocationRegularity `json:"top_locations"`
}

// LocationRegularity describes how regularly one location is revisited
type LocationRegularity struct {
	CoordIdx        int     `json:"coordIdx"` // 1-based
	Visits          int     `json:"visits"`
	ResidenceTime   float64 `json:"residence_time"`
	AvgInterval     float64 `json:"avg_interval,omitempty"`
	StdInterval     float64 `json:"std_interval,omitempty"`
	RegularityScore float64 `json:"regularity_score,omitempty"`
	IsPeriodic      bool    `json:"is_periodic"`
}

// Analyze performs the recursion analysis described by the task params
func (a *Analyzer) Analyze(ctx context.Context, taskID int64, params json.RawMessage) error {
	var p models.RecursionTaskParams
	if err := json.Unmarshal(params, &p); err != nil {
		a.MarkTaskAsFailed(taskID, fmt.Sprintf("Invalid params: %v", err))
		return fmt.Errorf("failed to parse task params: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return a.cancelled(taskID, err)
	}

	log.Printf("[RecursionAnalyzer] Starting analysis (task: %d, dataset: %d, radius: %g)", taskID, p.DatasetID, p.Radius)

	if err := a.MarkTaskAsRunning(taskID); err != nil {
		return fmt.Errorf("failed to mark task as running: %w", err)
	}

	progress := func(done, total int) {
		if done%progressEvery != 0 && done != total {
			return
		}
		if err := a.UpdateTaskProgress(taskID, done, total); err != nil {
			log.Printf("[RecursionAnalyzer] Failed to update progress: %v", err)
		}
	}

	resp, err := a.recursions.ComputeForDataset(ctx, p.DatasetID, p.DatasetRecursionRequest, progress)
	if ctx.Err() != nil {
		return a.cancelled(taskID, ctx.Err())
	}
	if err != nil {
		a.MarkTaskAsFailed(taskID, fmt.Sprintf("Analysis failed: %v", err))
		return fmt.Errorf("recursion analysis failed: %w", err)
	}

	summary := Summary{
		RunID:     resp.RunID,
		DatasetID: p.DatasetID,
		TimeUnits: resp.TimeUnits,
		Stats:     service.SummarizeResponse(resp),
		Top:       topLocations(resp, maxReported),
	}
	data, err := json.Marshal(summary)
	if err != nil {
		a.MarkTaskAsFailed(taskID, fmt.Sprintf("Summary failed: %v", err))
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	if err := a.MarkTaskAsCompleted(taskID, string(data)); err != nil {
		return fmt.Errorf("failed to mark task as completed: %w", err)
	}

	log.Printf("[RecursionAnalyzer] Analysis completed (task: %d, run: %s)", taskID, resp.RunID)
	return nil
}

// cancelled keeps the task failed with the cancellation message. The task may
// have been flipped back to running after CancelTask wrote it.
func (a *Analyzer) cancelled(taskID int64, err error) error {
	log.Printf("[RecursionAnalyzer] Task %d cancelled", taskID)
	a.MarkTaskAsFailed(taskID, models.TaskCancelledMessage)
	return err
}

// topLocations picks the most revisited locations. Interval statistics come
// from the event log and are only filled for verbose runs.
func topLocations(resp *models.RecursionResponse, n int) []LocationRegularity {
	intervals := make(map[int][]float64)
	for _, ev := range resp.RevisitStats {
		if ev.TimeSinceLastVisit != nil {
			intervals[ev.CoordIdx] = append(intervals[ev.CoordIdx], *ev.TimeSinceLastVisit)
		}
	}

	order := make([]int, 0, len(resp.Revisits))
	for i, v := range resp.Revisits {
		if v > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return resp.Revisits[order[i]] > resp.Revisits[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}

	top := make([]LocationRegularity, len(order))
	for k, i := range order {
		loc := LocationRegularity{
			CoordIdx:      i + 1,
			Visits:        resp.Revisits[i],
			ResidenceTime: resp.ResidenceTime[i],
		}
		if iv := intervals[i+1]; len(iv) >= 2 {
			loc.AvgInterval, loc.StdInterval = stat.MeanStdDev(iv, nil)
			if loc.AvgInterval > 0 {
				cv := loc.StdInterval / loc.AvgInterval
				loc.RegularityScore = 1.0 / (1.0 + cv)
			}
			loc.IsPeriodic = loc.RegularityScore > 0.8 && loc.Visits >= 3
		}
		top[k] = loc
	}
	return top
}
