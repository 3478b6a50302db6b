package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/recursions-backend-go/internal/models"
	"github.com/jengzang/recursions-backend-go/internal/service"
	"github.com/jengzang/recursions-backend-go/pkg/response"
)

// TrajectoryHandler handles HTTP requests for stored trajectories
type TrajectoryHandler struct {
	service *service.TrajectoryService
}

// NewTrajectoryHandler creates a new trajectory handler
func NewTrajectoryHandler(service *service.TrajectoryService) *TrajectoryHandler {
	return &TrajectoryHandler{service: service}
}

// CreateDataset uploads a trajectory
// POST /api/v1/datasets
func (h *TrajectoryHandler) CreateDataset(c *gin.Context) {
	var req models.CreateDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ds, err := h.service.Upload(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, ds)
}

// GetDataset retrieves a dataset by ID
// GET /api/v1/datasets/:id
func (h *TrajectoryHandler) GetDataset(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid dataset ID")
		return
	}

	ds, err := h.service.GetDataset(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, ds)
}

// ListDatasets retrieves datasets
// GET /api/v1/datasets
func (h *TrajectoryHandler) ListDatasets(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		limit = 100
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		offset = 0
	}

	datasets, err := h.service.ListDatasets(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"datasets": datasets,
		"limit":    limit,
		"offset":   offset,
	})
}
