package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"waterscribe/internal/model"
	"waterscribe/internal/service"
)

// ScheduledHandler exposes the scheduler over /api/scheduled.
type ScheduledHandler struct {
	scheduler *service.Scheduler
	log       zerolog.Logger
}

func NewScheduledHandler(scheduler *service.Scheduler, log zerolog.Logger) *ScheduledHandler {
	return &ScheduledHandler{scheduler: scheduler, log: log}
}

// CreateScheduledRequest is the POST body. frequencyDays accepts a number
// or a numeric string.
type CreateScheduledRequest struct {
	TaskName      string          `json:"taskName"`
	IsRecurring   *bool           `json:"isRecurring"`
	FrequencyDays json.RawMessage `json:"frequencyDays"`
	SpecificDate  string          `json:"specificDate"`
	Description   string          `json:"description"`
}

// CompleteScheduledRequest is the PUT body.
type CompleteScheduledRequest struct {
	ID       uint   `json:"id"`
	TaskName string `json:"taskName"`
}

// List returns active tasks, soonest due first.
// GET /api/scheduled
func (h *ScheduledHandler) List(c *gin.Context) {
	tasks, err := h.scheduler.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if tasks == nil {
		tasks = []model.ScheduledTask{}
	}
	c.JSON(http.StatusOK, tasks)
}

// Create schedules a recurring or one-time task.
// POST /api/scheduled
func (h *ScheduledHandler) Create(c *gin.Context) {
	var req CreateScheduledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}

	freq, err := parseFrequency(req.FrequencyDays)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	task, err := h.scheduler.Create(c.Request.Context(), service.CreateTaskInput{
		TaskName:      req.TaskName,
		IsRecurring:   req.IsRecurring,
		FrequencyDays: freq,
		SpecificDate:  req.SpecificDate,
		Description:   req.Description,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": task.ID})
}

// Complete marks a task done. Unknown or retired ids and unreadable bodies
// still succeed without touching storage.
// PUT /api/scheduled
func (h *ScheduledHandler) Complete(c *gin.Context) {
	var req CompleteScheduledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("complete: unreadable body ignored")
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	if _, err := h.scheduler.Complete(c.Request.Context(), req.ID, req.TaskName); err != nil && !service.IsSwallowable(err) {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Delete removes a task. Missing or unmatched ids are a no-op.
// DELETE /api/scheduled?id=<id>
func (h *ScheduledHandler) Delete(c *gin.Context) {
	id, ok := queryID(c)
	if ok {
		if err := h.scheduler.Delete(c.Request.Context(), id); err != nil {
			respondError(c, h.log, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// parseFrequency decodes frequencyDays. Absent, null and "" mean missing.
func parseFrequency(raw json.RawMessage) (*int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, service.NewMalformedError("frequencyDays", "Frequency must be a whole number of days")
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, nil
		}
	}

	days, err := strconv.Atoi(text)
	if err != nil {
		return nil, service.NewMalformedError("frequencyDays", "Frequency must be a whole number of days")
	}
	return &days, nil
}
