package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"waterscribe/internal/service"
)

// Pinger reports database reachability. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services bundles everything the API exposes.
type Services struct {
	Scheduler   *service.Scheduler
	Maintenance *service.MaintenanceService
	Readings    *service.ReadingService
	Inventory   *service.InventoryService
	Summary     *service.SummaryService
	DB          Pinger
}

// NewRouter builds the gin engine with all /api routes.
func NewRouter(svc Services, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(log), Recovery(log))

	scheduled := NewScheduledHandler(svc.Scheduler, log)
	records := NewRecordsHandler(svc.Maintenance, svc.Readings, svc.Inventory, log)
	stats := NewStatsHandler(svc.Summary, log)

	api := r.Group("/api")
	{
		api.GET("/health", health(svc.DB))

		api.GET("/scheduled", scheduled.List)
		api.POST("/scheduled", scheduled.Create)
		api.PUT("/scheduled", scheduled.Complete)
		api.DELETE("/scheduled", scheduled.Delete)

		api.GET("/parameters", records.ListReadings)
		api.POST("/parameters", records.CreateReading)
		api.DELETE("/parameters", records.DeleteReading)

		api.GET("/maintenance", records.ListMaintenance)
		api.POST("/maintenance", records.CreateMaintenance)

		api.GET("/fish", records.ListFish)
		api.POST("/fish", records.CreateFish)
		api.DELETE("/fish", records.DeleteFish)

		api.GET("/stats", stats.Get)
	}
	return r
}

func health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
