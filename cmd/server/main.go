package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raffaelramalhorosa/runnersworld-rss/internal/api"
	"github.com/raffaelramalhorosa/runnersworld-rss/internal/config"
	"github.com/raffaelramalhorosa/runnersworld-rss/internal/enricher"
	"github.com/raffaelramalhorosa/runnersworld-rss/internal/fetcher"
	"github.com/raffaelramalhorosa/runnersworld-rss/internal/listing"
	"github.com/raffaelramalhorosa/runnersworld-rss/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or TOML config file (overrides CONFIG_PATH)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	// --- Dependencies ---
	p, err := buildPipeline(cfg, logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	srv := api.New(p, cfg.Env, logger)

	// --- HTTP server ---
	// WriteTimeout leaves room for a full listing fetch plus enrichment.
	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Scraper.ListingTimeout + 4*cfg.Scraper.ArticleTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server started", "addr", httpServer.Addr, "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

func buildPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	fallback, err := enricher.ParseFallback(cfg.Enrich.DateFallback)
	if err != nil {
		return nil, err
	}
	tail, err := pipeline.ParseTailPolicy(cfg.Enrich.TailPolicy)
	if err != nil {
		return nil, err
	}
	ex, err := listing.New(listing.Options{Origin: cfg.Scraper.Origin})
	if err != nil {
		return nil, err
	}

	f := fetcher.New(fetcher.Options{
		UserAgent:         cfg.Scraper.UserAgent,
		MaxRedirects:      cfg.Scraper.MaxRedirects,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
	}, logger.With("component", "fetcher"))

	enr := enricher.New(f, enricher.Options{
		Concurrency: cfg.Enrich.Concurrency,
		Cap:         cfg.Enrich.Cap,
		Timeout:     cfg.Scraper.ArticleTimeout,
		Fallback:    fallback,
	}, logger.With("component", "enricher"))

	return pipeline.New(pipeline.Deps{Fetcher: f, Extractor: ex, Enricher: enr}, pipeline.Options{
		ListingURL:     cfg.Scraper.ListingURL,
		ListingTimeout: cfg.Scraper.ListingTimeout,
		DefaultLimit:   cfg.Limits.Default,
		MaxLimit:       cfg.Limits.Max,
		Tail:           tail,
	}, logger.With("component", "pipeline")), nil
}

func init() {
	fmt.Println(`
  ____  __        __   ____                   ____  ____ ____
 |  _ \ \ \      / /  / ___| ___  __ _ _ __  |  _ \/ ___/ ___|
 | |_) | \ \ /\ / /  | |  _ / _ \/ _' | '__| | |_) \___ \___ \
 |  _ <   \ V  V /   | |_| |  __/ (_| | |    |  _ < ___) |__) |
 |_| \_\   \_/\_/     \____|\___|\__,_|_|    |_| \_\____/____/
	`)
}
