package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"waterscribe/internal/model"
	"waterscribe/internal/service"
)

// RecordsHandler serves the plain record endpoints: water readings, the
// maintenance log and the fish inventory.
type RecordsHandler struct {
	maintenance *service.MaintenanceService
	readings    *service.ReadingService
	inventory   *service.InventoryService
	log         zerolog.Logger
}

func NewRecordsHandler(maintenance *service.MaintenanceService, readings *service.ReadingService, inventory *service.InventoryService, log zerolog.Logger) *RecordsHandler {
	return &RecordsHandler{maintenance: maintenance, readings: readings, inventory: inventory, log: log}
}

type createReadingRequest struct {
	Temperature *float64 `json:"temperature"`
	PH          *float64 `json:"ph"`
	Ammonia     *float64 `json:"ammonia"`
	Nitrite     *float64 `json:"nitrite"`
	Nitrate     *float64 `json:"nitrate"`
	Notes       string   `json:"notes"`
}

type createMaintenanceRequest struct {
	TaskType    string `json:"taskType"`
	Description string `json:"description"`
	Completed   *bool  `json:"completed"`
}

type createFishRequest struct {
	Species    string `json:"species"`
	CommonName string `json:"commonName"`
	Quantity   *int   `json:"quantity"`
	Notes      string `json:"notes"`
}

// ListReadings returns recent readings, newest first.
// GET /api/parameters?limit=50
func (h *RecordsHandler) ListReadings(c *gin.Context) {
	readings, err := h.readings.Recent(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if readings == nil {
		readings = []model.WaterParameter{}
	}
	c.JSON(http.StatusOK, readings)
}

// CreateReading records a water test.
// POST /api/parameters
func (h *RecordsHandler) CreateReading(c *gin.Context) {
	var req createReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}
	reading, err := h.readings.Record(c.Request.Context(), service.ReadingInput{
		Temperature: req.Temperature,
		PH:          req.PH,
		Ammonia:     req.Ammonia,
		Nitrite:     req.Nitrite,
		Nitrate:     req.Nitrate,
		Notes:       req.Notes,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": reading.ID})
}

// DeleteReading removes one reading.
// DELETE /api/parameters?id=<id>
func (h *RecordsHandler) DeleteReading(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "ID required", "code": "validation_error", "field": "id"})
		return
	}
	if err := h.readings.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListMaintenance returns recent log entries, newest first.
// GET /api/maintenance?limit=50
func (h *RecordsHandler) ListMaintenance(c *gin.Context) {
	entries, err := h.maintenance.Recent(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if entries == nil {
		entries = []model.MaintenanceLogEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// CreateMaintenance logs a manual care action.
// POST /api/maintenance
func (h *RecordsHandler) CreateMaintenance(c *gin.Context) {
	var req createMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}
	entry, err := h.maintenance.Log(c.Request.Context(), service.MaintenanceInput{
		TaskType:    req.TaskType,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": entry.ID})
}

// ListFish returns the inventory, newest additions first.
// GET /api/fish
func (h *RecordsHandler) ListFish(c *gin.Context) {
	fish, err := h.inventory.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if fish == nil {
		fish = []model.Fish{}
	}
	c.JSON(http.StatusOK, fish)
}

// CreateFish adds stock.
// POST /api/fish
func (h *RecordsHandler) CreateFish(c *gin.Context) {
	var req createFishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid JSON body")
		return
	}
	fish, err := h.inventory.Add(c.Request.Context(), service.FishInput{
		Species:    req.Species,
		CommonName: req.CommonName,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": fish.ID})
}

// DeleteFish removes an inventory line. Unmatched ids are a no-op.
// DELETE /api/fish?id=<id>
func (h *RecordsHandler) DeleteFish(c *gin.Context) {
	if id, ok := queryID(c); ok {
		if err := h.inventory.Remove(c.Request.Context(), id); err != nil {
			respondError(c, h.log, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
