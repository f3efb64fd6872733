// Command poller watches the recent sighting window of the data API and
// announces changes on NATS so every PokeMap instance refreshes its maps.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/pokemap/internal/adapters/nats"
	"github.com/samirrijal/pokemap/internal/adapters/pokedata"
	"github.com/samirrijal/pokemap/internal/core/usecases"
	"github.com/samirrijal/pokemap/internal/pkg/config"
	"github.com/samirrijal/pokemap/internal/pkg/logging"
	"github.com/samirrijal/pokemap/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("pokemap-poller")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)
	telemetry.Disable()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	client := pokedata.New(pokedata.Config{
		BaseURL:       cfg.API.BaseURL,
		PredictedPath: cfg.API.PredictedPath,
		Timeout:       cfg.API.Timeout(),
	})
	source := pokedata.NewBreakerSource(client, "pokedata-poller", pokedata.BreakerSettings{
		MinRequests:  cfg.API.BreakerMinRequests,
		FailureRatio: cfg.API.BreakerFailureRatio,
		OpenTimeout:  time.Duration(cfg.API.BreakerOpenSeconds) * time.Second,
	}, logger)
	watcher := usecases.NewSightingWatcher(source, cfg.Poller.Window())

	interval := cfg.Poller.Interval()
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("sighting poller started", "interval", interval.String(), "window", cfg.Poller.Window())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Run once immediately
	poll(ctx, watcher, pub, interval)

	for {
		select {
		case <-ticker.C:
			poll(ctx, watcher, pub, interval)
		case sig := <-quit:
			slog.Info("shutting down sighting poller", "signal", sig.String())
			return
		}
	}
}

func poll(ctx context.Context, w *usecases.SightingWatcher, pub *natsadapter.Publisher, budget time.Duration) {
	pctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	changed, n, err := w.Check(pctx, func(ctx context.Context, _ int) error {
		return pub.PublishSightingsUpdated(ctx)
	})
	if err != nil {
		slog.Warn("poll failed", "changed", changed, "error", err)
		return
	}
	if !changed {
		slog.Debug("no new sightings", "count", n)
		return
	}
	slog.Info("announced sightings update", "count", n)
}
