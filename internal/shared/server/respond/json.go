package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SuccessResponse acknowledges an operation that has no other payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// OK writes payload as a 200 response.
func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// Success writes {"success": true}.
func Success(c *gin.Context) {
	OK(c, SuccessResponse{Success: true})
}
