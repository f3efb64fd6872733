package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/pokemap/internal/adapters/http"
	natsadapter "github.com/samirrijal/pokemap/internal/adapters/nats"
	"github.com/samirrijal/pokemap/internal/adapters/pokedata"
	"github.com/samirrijal/pokemap/internal/adapters/valkey"
	"github.com/samirrijal/pokemap/internal/core/usecases"
	"github.com/samirrijal/pokemap/internal/pkg/config"
	"github.com/samirrijal/pokemap/internal/pkg/logging"
	"github.com/samirrijal/pokemap/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("pokemap")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
			telemetry.Disable()
		} else {
			defer telemetry.ShutdownWithTimeout(shutdown)
		}
	} else {
		telemetry.Disable()
	}

	// Data API, guarded by a circuit breaker
	client := pokedata.New(pokedata.Config{
		BaseURL:       cfg.API.BaseURL,
		PredictedPath: cfg.API.PredictedPath,
		Timeout:       cfg.API.Timeout(),
	})
	source := pokedata.NewBreakerSource(client, "pokedata", pokedata.BreakerSettings{
		MinRequests:  cfg.API.BreakerMinRequests,
		FailureRatio: cfg.API.BreakerFailureRatio,
		OpenTimeout:  time.Duration(cfg.API.BreakerOpenSeconds) * time.Second,
	}, logger)

	deps := &http.Dependencies{
		Source:   source,
		Breaker:  source,
		Sessions: http.NewSessions(),
		Map:      cfg.Map,
		DocsPath: http.DefaultDocsPath,
	}

	// Cache
	if cfg.Valkey.Enabled {
		cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer cache.Close()
			deps.Cache = cache
		}
	}
	if deps.Cache != nil {
		deps.Sightings = usecases.NewSightingService(source, deps.Cache)
	} else {
		deps.Sightings = usecases.NewSightingService(source, nil)
	}

	// NATS: session events out, sightings-updated in
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			deps.Publisher = pub
			deps.NATS = pub.Conn()
		}

		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			if err := sub.SubscribeSightingUpdates(ctx, deps.Sessions.RefreshAll); err != nil {
				slog.Warn("subscribe sightings updates failed", "error", err)
			}
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    256 * 1024,
		AppName:      "PokeMap",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("PokeMap server starting", "addr", addr, "data_api", cfg.API.BaseURL)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String(), "sessions", deps.Sessions.Len())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
