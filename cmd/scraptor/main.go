package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Charlesagui/scraptor/api"
	"github.com/Charlesagui/scraptor/config"
	"github.com/Charlesagui/scraptor/engine"
	"github.com/Charlesagui/scraptor/export"
	"github.com/Charlesagui/scraptor/locator"
	"github.com/Charlesagui/scraptor/scraper"
)

func main() {
	serve := flag.Bool("serve", false, "run as an HTTP service instead of a one-shot scrape")
	urlOverride := flag.String("url", "", "override the target URL")
	outputOverride := flag.String("output", "", "override the CSV output directory")
	flag.Parse()

	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()
	if *urlOverride != "" {
		cfg.Scrape.TargetURL = *urlOverride
	}
	if *outputOverride != "" {
		cfg.Export.OutputDir = *outputOverride
	}

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("scraptor starting",
		"url", cfg.Scrape.TargetURL,
		"minRows", cfg.Scrape.MinRows,
		"maxRetries", cfg.Scrape.MaxRetries,
		"rateDelay", cfg.Scrape.RateLimitDelay,
	)

	// ── 3. Wire the core: engines → controller → coordinator ───────
	loc := locator.New(cfg.Scrape.MinRows)

	httpEngine := engine.NewHTTPEngine()
	rodEngine := engine.NewRodEngine(cfg.Browser)
	defer rodEngine.Close()

	controller := engine.NewController(httpEngine, rodEngine, loc.Probe, cfg.Scrape)
	sc := scraper.New(controller, loc, cfg.Scrape)

	if *serve {
		os.Exit(runServer(sc, cfg))
	}
	os.Exit(runOnce(sc, cfg))
}

// runOnce performs a single scrape-and-export session.
func runOnce(sc *scraper.Scraper, cfg *config.Config) int {
	// SIGINT/SIGTERM cancel the run; the page in progress completes or
	// fails before the coordinator stops, then partial results export.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := sc.Run(ctx)
	if err != nil {
		slog.Error("run failed", "error", err)
		return 1
	}

	if len(result.Records) == 0 {
		slog.Error("no records extracted; see page-level diagnostics above")
		return 1
	}

	path, err := export.NewCSV(cfg.Export).Export(result.Records)
	if err != nil {
		slog.Error("export failed", "error", err)
		return 2
	}

	slog.Info("scraptor finished",
		"output", path,
		"records", len(result.Records),
		"success", result.Stats.Success,
		"partial", result.Stats.Partial,
		"failed", result.Stats.Failed,
	)
	return 0
}

// runServer exposes the scrape via HTTP until terminated.
func runServer(sc *scraper.Scraper, cfg *config.Config) int {
	router := api.NewRouter(sc, cfg, time.Now())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
		return 1
	}
	slog.Info("scraptor stopped")
	return 0
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
