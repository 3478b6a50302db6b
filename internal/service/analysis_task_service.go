package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/jengzang/recursions-backend-go/internal/analysis"
	"github.com/jengzang/recursions-backend-go/internal/models"
	"github.com/jengzang/recursions-backend-go/internal/repository"
)

// AnalysisTaskService handles analysis task business logic
type AnalysisTaskService struct {
	repo *repository.AnalysisTaskRepository
	env  *analysis.Env

	mu      sync.Mutex
	cancels map[int64]context.CancelFunc
	wg      sync.WaitGroup
}

// NewAnalysisTaskService creates a new analysis task service
func NewAnalysisTaskService(repo *repository.AnalysisTaskRepository, env *analysis.Env) *AnalysisTaskService {
	return &AnalysisTaskService{
		repo:    repo,
		env:     env,
		cancels: make(map[int64]context.CancelFunc),
	}
}

// CreateTask creates a new analysis task and starts its worker
func (s *AnalysisTaskService) CreateTask(skillName string, params json.RawMessage, createdBy string) (*models.AnalysisTask, error) {
	if !analysis.IsRegistered(skillName) {
		return nil, fmt.Errorf("%w: unknown skill %q", ErrInvalidInput, skillName)
	}
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	if !json.Valid(params) {
		return nil, fmt.Errorf("%w: params must be a JSON object", ErrInvalidInput)
	}

	task := &models.AnalysisTask{
		SkillName:  skillName,
		Status:     models.TaskStatusPending,
		ParamsJSON: string(params),
		CreatedBy:  createdBy,
	}
	if err := s.repo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[task.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runAnalysis(ctx, task.ID, skillName, params)

	return task, nil
}

// runAnalysis executes a registered analyzer in-process
func (s *AnalysisTaskService) runAnalysis(ctx context.Context, taskID int64, skillName string, params json.RawMessage) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		if cancel, ok := s.cancels[taskID]; ok {
			cancel()
			delete(s.cancels, taskID)
		}
		s.mu.Unlock()
	}()

	log.Printf("Starting analysis worker for task %d (skill: %s)", taskID, skillName)

	analyzer := analysis.GetAnalyzer(skillName, s.env)
	if analyzer == nil {
		log.Printf("Failed to get analyzer for skill: %s", skillName)
		s.repo.MarkAsFailed(taskID, fmt.Sprintf("Unknown skill: %s", skillName))
		return
	}

	if err := analyzer.Analyze(ctx, taskID, params); err != nil {
		log.Printf("Analysis failed for task %d: %v", taskID, err)
		return
	}

	log.Printf("Analysis completed for task %d", taskID)
}

// GetTask retrieves a task by ID
func (s *AnalysisTaskService) GetTask(id int64) (*models.AnalysisTask, error) {
	return s.repo.GetByID(id)
}

// ListTasks retrieves all tasks with optional filters
func (s *AnalysisTaskService) ListTasks(skillName string, status string, limit int, offset int) ([]*models.AnalysisTask, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(skillName, status, limit, offset)
}

// CancelTask cancels a pending or running task
func (s *AnalysisTaskService) CancelTask(id int64) error {
	task, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if task.Status != models.TaskStatusPending && task.Status != models.TaskStatusRunning {
		return fmt.Errorf("%w: task is not running (status: %s)", ErrInvalidInput, task.Status)
	}

	s.mu.Lock()
	if cancel, ok := s.cancels[id]; ok {
		cancel()
	}
	s.mu.Unlock()

	return s.repo.MarkAsFailed(id, models.TaskCancelledMessage)
}

// Wait blocks until all started workers have returned
func (s *AnalysisTaskService) Wait() {
	s.wg.Wait()
}
