package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"waterscribe/internal/repository"
	"waterscribe/internal/service"
)

func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   ve.Message,
			"code":    "validation_error",
			"field":   ve.Field,
			"reason":  ve.Reason,
		})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error(), "code": "not_found"})
	default:
		log.Error().Str("request_id", c.GetString(requestIDKey)).Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "storage unavailable",
			"code":    "storage_error",
		})
	}
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg, "code": "bad_request"})
}

// queryID parses ?id=. ok is false when absent or not a positive integer.
func queryID(c *gin.Context) (uint, bool) {
	raw := c.Query("id")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		return service.DefaultListLimit
	}
	return service.ClampLimit(limit)
}
