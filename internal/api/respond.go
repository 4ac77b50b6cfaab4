package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/intent-signal-hub/internal/errors"
)

// respondError writes err with the status its AppError code maps to
func respondError(c *gin.Context, err error) {
	appErr := errors.AsAppError(err)
	body := gin.H{
		"error":     appErr.Message,
		"code":      appErr.Code,
		"timestamp": time.Now(),
	}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	c.JSON(appErr.HTTPStatus(), body)
}

// respondBindError reports a malformed request body
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     "Invalid request body",
		"code":      errors.ErrCodeInvalidInput,
		"details":   err.Error(),
		"timestamp": time.Now(),
	})
}

// queryLimit parses the optional limit query parameter
func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.InvalidInput("limit must be a non-negative integer", err).WithDetails(raw)
	}
	return limit, nil
}
