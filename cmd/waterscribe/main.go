package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"waterscribe/internal/bot"
	"waterscribe/internal/config"
	"waterscribe/internal/httpapi"
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
	if err != nil {
		log.Fatal().Err(err).Msg("db handle")
	}
	defer sqlDB.Close()

	clock := service.SystemClock
	taskRepo := repository.NewScheduledTaskRepository(db)
	logRepo := repository.NewMaintenanceLogRepository(db)
	readingRepo := repository.NewWaterParameterRepository(db)
	fishRepo := repository.NewFishRepository(db)

	scheduler := service.NewScheduler(taskRepo, repository.NewTransactor(db), clock, log)
	maintenance := service.NewMaintenanceService(logRepo, clock)
	summary := service.NewSummaryService(taskRepo, logRepo, readingRepo, fishRepo, clock, cfg.DueSoonWindow, cfg.RecentMaintenanceWindow)

	gin.SetMode(cfg.GinMode)
	router := httpapi.NewRouter(httpapi.Services{
		Scheduler:   scheduler,
		Maintenance: maintenance,
		Readings:    service.NewReadingService(readingRepo, clock),
		Inventory:   service.NewInventoryService(fishRepo, clock),
		Summary:     summary,
		DB:          sqlDB,
	}, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("driver", cfg.DatabaseDriver).Msg("aquarium tracker listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	if cfg.TelegramToken != "" {
		telegramBot, err := bot.New(cfg.TelegramToken, bot.Services{
			Scheduler:   scheduler,
			Maintenance: maintenance,
			Summary:     summary,
			Clock:       clock,
		}, cfg.TelegramAllowedUsers, log)
		if err != nil {
			log.Fatal().Err(err).Msg("bot")
		}
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("bot stopped with error")
			}
		}()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("shutdown complete")
}
