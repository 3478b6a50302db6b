package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every API endpoint replies with. Code is 0 on
// success and the HTTP status otherwise.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a 200 response carrying data
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error sends an error response with the given status
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		Code:    status,
		Message: message,
	})
}

// Abort sends an error response and stops the handler chain. Middleware
// rejecting a request uses it so later handlers never run.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Code:    status,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError hides the cause from the client
func InternalError(c *gin.Context) {
	Abort(c, http.StatusInternalServerError, "Internal server error")
}

func Unauthorized(c *gin.Context, message string) {
	Abort(c, http.StatusUnauthorized, message)
}

func TooManyRequests(c *gin.Context) {
	Abort(c, http.StatusTooManyRequests, "Too many requests, please try again later")
}
