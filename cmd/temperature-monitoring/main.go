package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/temperature-monitoring/internal/api/http"
	"github.com/i474232898/temperature-monitoring/internal/config"
	"github.com/i474232898/temperature-monitoring/internal/monitor"
	"github.com/i474232898/temperature-monitoring/internal/scheduler"
	"github.com/i474232898/temperature-monitoring/internal/store"
)

func main() {
	// Load configuration (environment plus the persisted settings
	// document, merged over defaults).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	settings := cfg.Settings

	// File-backed persistence under the configured data directory. If the
	// directory cannot be prepared, run on an in-memory store instead of
	// refusing to start.
	var st monitor.Store
	if fileStore, err := store.NewFileStore(settings.DataDir, settings.HistoryFile, settings.ModelFilePattern); err != nil {
		log.Printf("data dir unavailable, falling back to in-memory store: %v", err)
		st = store.NewMemoryStore()
	} else {
		st = fileStore
	}

	// Core service owning the observation log and model registry.
	service := monitor.NewService(st, monitor.ForecastBounds{
		MinDays:     settings.MinForecastDays,
		MaxDays:     settings.MaxForecastDays,
		DefaultDays: settings.PredictionDays,
	})
	if err := service.LoadPersisted(); err != nil {
		// Recoverable: keep running on in-memory state.
		log.Printf("continuing in-memory after load failure: %v", err)
	}

	// Auto-predict refresh runs only when enabled in settings.
	if settings.AutoPredict {
		sched := scheduler.New(service, cfg.RefreshInterval)
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	settingsMgr := config.NewManager(settings)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "temperature-monitoring",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "temperature-monitoring",
			"readings": len(service.ExportReadings()),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, settingsMgr)

	go func() {
		if err := app.Listen(fmt.Sprintf(":%s", cfg.Port)); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
