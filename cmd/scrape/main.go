// Package main provides the standalone scrape command: one fetch-extract
// pass exported to a timestamped JSON file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"marketdash/internal/cache"
	"marketdash/internal/config"
	"marketdash/internal/extractor"
	"marketdash/internal/fetcher"
	"marketdash/internal/logger"
	"marketdash/internal/market"
	"marketdash/internal/render"

	"github.com/joho/godotenv"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	targetURL := flag.String("url", "", "Market page URL to scrape (overrides config)")
	localFile := flag.String("file", "", "Local HTML file to parse instead of fetching")
	outputDir := flag.String("output", ".", "Directory for the exported JSON file")
	show := flag.Bool("show", false, "Print the extracted tables to the terminal")

	flag.Parse()

	// A missing .env file is fine; it only supplies optional overrides.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	if *targetURL != "" {
		cfg.Market.URL = *targetURL
	}

	logg := logger.NewLogger(cfg.Logging.Level)
	fetch := fetcher.NewFetcher(cfg.Market.UserAgent, cfg.Market.Timeout())
	extract := extractor.NewExtractor(cfg.Market.TableClass)
	store := cache.NewStore(cfg.Cache.Path, cfg.Cache.TTL())
	client := market.NewClient(fetch, extract, store, cfg.Market.URL, logg)

	ctx := context.Background()

	var rawHTML string

	if *localFile != "" {
		data, err := os.ReadFile(*localFile)
		if err != nil {
			log.Fatalf("❌ Failed to read %s: %v", *localFile, err)
		}

		rawHTML = string(data)
	} else if *show {
		// Fetch once and reuse the page for both the table print and the
		// export file.
		rawHTML, err = fetch.Fetch(ctx, cfg.Market.URL)
		if err != nil {
			fmt.Printf("An error occurred: %v\n", err)
			os.Exit(1)
		}
	}

	if rawHTML == "" {
		fmt.Println(client.Export(ctx, *outputDir))

		return
	}

	if *show {
		fmt.Print(render.Snapshot(client.ExtractHTML(rawHTML)))
	}

	fmt.Println(client.ExportHTML(rawHTML, *outputDir))
}
