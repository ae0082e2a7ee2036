package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"waterscribe/internal/service"
)

// StatsHandler serves the dashboard summary.
type StatsHandler struct {
	summary *service.SummaryService
	log     zerolog.Logger
}

func NewStatsHandler(summary *service.SummaryService, log zerolog.Logger) *StatsHandler {
	return &StatsHandler{summary: summary, log: log}
}

// Get returns the summary snapshot.
// GET /api/stats
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.summary.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
