// Command importcycling seeds the fishless cycling schedule for a 50 gallon
// tank into the tracker database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"waterscribe/internal/config"
	"waterscribe/internal/logging"
	"waterscribe/internal/repository"
	"waterscribe/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boot := logging.Bootstrap(os.Stderr)
	cfg, err := config.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("config")
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		boot.Fatal().Err(err).Msg("logging")
	}

	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	clock := service.SystemClock
	scheduler := service.NewScheduler(repository.NewScheduledTaskRepository(db), repository.NewTransactor(db), clock, zerolog.Nop())
	maintenance := service.NewMaintenanceService(repository.NewMaintenanceLogRepository(db), clock)

	log.Info().Str("database", cfg.DatabaseURL).Msg("importing cycling schedule")
	added, err := service.SeedCycling(ctx, scheduler, maintenance, service.CyclingPlan(), log)
	if err != nil {
		log.Fatal().Err(err).Int("added", added).Msg("import stopped")
	}
	log.Info().Int("tasks", added).Msg("import complete, mark tasks done as you go to reschedule them")
}
