// Package main provides the market dashboard HTTP server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"marketdash/internal/cache"
	"marketdash/internal/config"
	"marketdash/internal/extractor"
	"marketdash/internal/fetcher"
	"marketdash/internal/logger"
	"marketdash/internal/market"
	"marketdash/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	addr := flag.String("addr", "", "Listen address (overrides config)")

	flag.Parse()

	// A missing .env file is fine; it only supplies optional overrides.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logg := logger.NewLogger(cfg.Logging.Level)
	logg.Info("🚀 Starting market dashboard",
		"source", cfg.Market.URL,
		"cache", cfg.Cache.Path,
		"ttl", cfg.Cache.TTL())

	fetch := fetcher.NewFetcher(cfg.Market.UserAgent, cfg.Market.Timeout())
	extract := extractor.NewExtractor(cfg.Market.TableClass)
	store := cache.NewStore(cfg.Cache.Path, cfg.Cache.TTL())
	client := market.NewClient(fetch, extract, store, cfg.Market.URL, logg)

	srv, err := server.New(cfg, client, logg)
	if err != nil {
		logg.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logg.Error("server exited", "error", err)
		os.Exit(1)
	}
}
