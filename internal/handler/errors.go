package handler

import (
	"context"
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/recursions-backend-go/internal/repository"
	"github.com/jengzang/recursions-backend-go/internal/service"
	"github.com/jengzang/recursions-backend-go/pkg/response"
)

// writeError maps service and repository errors onto HTTP status codes
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, context.Canceled):
		// client went away
		c.Abort()
	default:
		log.Printf("[Handler] %s %s: %v", c.Request.Method, c.FullPath(), err)
		response.InternalError(c)
	}
}
