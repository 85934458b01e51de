package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/whaleflow/internal/config"
	"github.com/rickgao/whaleflow/internal/coordinator"
	"github.com/rickgao/whaleflow/internal/metrics"
	"github.com/rickgao/whaleflow/internal/model"
	"github.com/rickgao/whaleflow/internal/version"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting gatherer", "version", version.Version, "commit", version.Commit)

	cfg, err := config.LoadAndValidate()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"store_mode", cfg.Store.Mode,
		"enable_polymarket", cfg.EnablePolymarket,
		"enable_kalshi", cfg.EnableKalshi,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	coord, err := coordinator.New(ctx, cfg, logger, m)
	if err != nil {
		logger.Error("failed to build coordinator", "error", err)
		os.Exit(1)
	}

	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: createHealthHandler(coord, cfg, logger),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- coord.Run(ctx)
	}()

	logger.Info("gatherer running", "health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port))

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-runErr:
		if err != nil {
			logger.Error("coordinator stopped with error", "error", err)
		}
	}

	coord.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("gatherer stopped")
}

// createHealthHandler serves /health, /debug/stats, and the
// Prometheus /metrics endpoint.
func createHealthHandler(coord *coordinator.Coordinator, cfg *config.Config, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		stats, err := coord.Store().Stats(ctx)
		if err != nil {
			health.Status = "unhealthy"
			health.Components["store"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["store"] = map[string]interface{}{
				"trades_24h":  stats.Trades,
				"wallets_24h": stats.Wallets,
				"flow":        stats.Flow,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/stats", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		stats, err := coord.Store().Stats(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	})

	mux.HandleFunc("/debug/recent", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		trades, err := coord.Store().RecentTrades(ctx, model.RecentTradesFilter{Limit: 100})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count":  len(trades),
			"trades": trades,
		})
	})

	mux.Handle(cfg.Metrics.Path, metrics.Handler())

	return mux
}
