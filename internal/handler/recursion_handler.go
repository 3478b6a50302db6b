package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/recursions-backend-go/internal/models"
	"github.com/jengzang/recursions-backend-go/internal/service"
	"github.com/jengzang/recursions-backend-go/pkg/response"
)

// RecursionHandler handles HTTP requests for recursion analyses
type RecursionHandler struct {
	service     *service.RecursionService
	defaultUnit string
}

// NewRecursionHandler creates a new recursion handler. defaultUnit applies
// when a request leaves timeunits empty.
func NewRecursionHandler(service *service.RecursionService, defaultUnit string) *RecursionHandler {
	return &RecursionHandler{service: service, defaultUnit: defaultUnit}
}

// Compute runs a recursion analysis over an inline trajectory
// POST /api/v1/recursions
func (h *RecursionHandler) Compute(c *gin.Context) {
	var req models.RecursionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.TimeUnits == "" {
		req.TimeUnits = h.defaultUnit
	}

	resp, err := h.service.Compute(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, resp)
}

// ComputeForDataset runs and stores a recursion analysis over a dataset
// POST /api/v1/datasets/:id/recursions
func (h *RecursionHandler) ComputeForDataset(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid dataset ID")
		return
	}

	var req models.DatasetRecursionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.TimeUnits == "" {
		req.TimeUnits = h.defaultUnit
	}

	resp, err := h.service.ComputeForDataset(c.Request.Context(), id, req, nil)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, resp)
}

// GetRun retrieves a stored run
// GET /api/v1/recursions/:runId?events=true
func (h *RecursionHandler) GetRun(c *gin.Context) {
	withEvents, _ := strconv.ParseBool(c.DefaultQuery("events", "false"))

	detail, err := h.service.GetRun(c.Request.Context(), c.Param("runId"), withEvents)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, detail)
}
