package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"

	httpapi "github.com/akovalyk/weather-resolver/internal/api/http"
	"github.com/akovalyk/weather-resolver/internal/config"
	"github.com/akovalyk/weather-resolver/internal/geocode"
	"github.com/akovalyk/weather-resolver/internal/scheduler"
	"github.com/akovalyk/weather-resolver/internal/store"
	"github.com/akovalyk/weather-resolver/internal/weather"
	"github.com/akovalyk/weather-resolver/internal/weather/providers"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	clock := clockwork.NewRealClock()

	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge, clock)
	geo := geocode.NewResolver(cfg.GeocoderAPIKey, log)

	// Chain order: the official-station source leads for its home region,
	// then the global sources in fallback order.
	provs := []weather.Provider{
		providers.NewNWSProvider(httpClient, cfg.NWSUserAgent, log, clock),
		providers.NewOpenMeteoProvider(httpClient, log, clock),
		providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, log),
		providers.NewPirateWeatherProvider(httpClient, cfg.PirateWeatherAPIKey, log),
	}

	resolver := weather.NewResolver(provs, log, clock)

	sched := scheduler.New(cfg.Locations, cfg.FetchInterval, resolver, geo, memStore, log)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-resolver",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
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

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-resolver",
		})
	})

	httpapi.RegisterRoutes(app, resolver, memStore, geo)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()
	log.Info("listening", "port", cfg.Port, "tracked_locations", len(cfg.Locations))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}
