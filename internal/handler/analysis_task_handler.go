package handler

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/recursions-backend-go/internal/middleware"
	"github.com/jengzang/recursions-backend-go/internal/service"
	"github.com/jengzang/recursions-backend-go/pkg/response"
)

// AnalysisTaskHandler handles HTTP requests for analysis tasks
type AnalysisTaskHandler struct {
	service *service.AnalysisTaskService
}

// NewAnalysisTaskHandler creates a new analysis task handler
func NewAnalysisTaskHandler(service *service.AnalysisTaskService) *AnalysisTaskHandler {
	return &AnalysisTaskHandler{service: service}
}

// CreateTaskRequest represents the request body for creating an analysis task
type CreateTaskRequest struct {
	SkillName string          `json:"skill_name" binding:"required"`
	Params    json.RawMessage `json:"params"`
}

// CreateTask creates a new analysis task
// POST /api/admin/analysis/tasks
func (h *AnalysisTaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	// Subject of the bearer token
	createdBy := c.GetString(middleware.SubjectKey)
	if createdBy == "" {
		createdBy = "admin"
	}

	task, err := h.service.CreateTask(req.SkillName, req.Params, createdBy)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, task)
}

// GetTask retrieves a task by ID
// GET /api/admin/analysis/tasks/:id
func (h *AnalysisTaskHandler) GetTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid task ID")
		return
	}

	task, err := h.service.GetTask(id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, task)
}

// ListTasks retrieves all tasks
// GET /api/admin/analysis/tasks
func (h *AnalysisTaskHandler) ListTasks(c *gin.Context) {
	skillName := c.Query("skill_name")
	status := c.Query("status")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		offset = 0
	}

	tasks, err := h.service.ListTasks(skillName, status, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"tasks":  tasks,
		"limit":  limit,
		"offset": offset,
	})
}

// CancelTask cancels a running task
// DELETE /api/admin/analysis/tasks/:id
func (h *AnalysisTaskHandler) CancelTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid task ID")
		return
	}

	if err := h.service.CancelTask(id); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "Task cancelled successfully"})
}
