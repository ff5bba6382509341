// Package market runs the fetch-extract-cache cycle and the standalone
// export path.
package market

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"marketdash/internal/cache"
	"marketdash/internal/extractor"
	"marketdash/internal/fetcher"
	"marketdash/internal/logger"
	"marketdash/internal/models"
)

// NoTablesMessage is the user-facing message for a page without market data
// tables.
const NoTablesMessage = "No market data tables found on the page."

// exportTimeLayout names the standalone export file.
const exportTimeLayout = "20060102_150405"

// Client composes the fetcher, extractor and cache store into the combined
// cycle. Every failure in the cycle comes back as an error snapshot, never
// as an error value: the caller always has something to render.
type Client struct {
	fetcher   *fetcher.Fetcher
	extractor *extractor.Extractor
	store     *cache.Store
	url       string
	log       *logger.Logger
	now       func() time.Time
}

// NewClient creates a client over the given dependencies.
func NewClient(f *fetcher.Fetcher, e *extractor.Extractor, store *cache.Store, url string, log *logger.Logger) *Client {
	return NewClientWithClock(f, e, store, url, log, time.Now)
}

// NewClientWithClock creates a client with an injected clock, for tests.
func NewClientWithClock(f *fetcher.Fetcher, e *extractor.Extractor, store *cache.Store, url string, log *logger.Logger, now func() time.Time) *Client {
	return &Client{
		fetcher:   f,
		extractor: e,
		store:     store,
		url:       url,
		log:       log,
		now:       now,
	}
}

// Current returns the cached snapshot when it is still within the TTL,
// otherwise runs a fresh cycle.
func (c *Client) Current(ctx context.Context) *models.Snapshot {
	if snap := c.store.Load(); snap != nil {
		c.log.Debug("serving cached snapshot", "last_updated", snap.LastUpdated)

		return snap
	}

	return c.Refresh(ctx)
}

// Refresh runs one full fetch-extract-save cycle. On success the snapshot
// fully replaces the cache file; on failure the error snapshot is returned
// without touching the cache.
func (c *Client) Refresh(ctx context.Context) *models.Snapshot {
	rawHTML, err := c.fetcher.Fetch(ctx, c.url)
	if err != nil {
		c.log.Error("fetch failed", "url", c.url, "error", err)

		return models.NewErrorSnapshot(errorMessage(err), c.now())
	}

	snap := c.ExtractHTML(rawHTML)
	if snap.Failed() {
		return snap
	}

	if err := c.store.Save(snap); err != nil {
		c.log.Error("cache save failed", "path", c.store.Path(), "error", err)

		return models.NewErrorSnapshot(errorMessage(err), c.now())
	}

	c.log.Info("snapshot refreshed", "sections", len(snap.Sections))

	return snap
}

// ExtractHTML converts already-fetched page HTML into a snapshot without
// caching it. Failures come back as error snapshots.
func (c *Client) ExtractHTML(rawHTML string) *models.Snapshot {
	snap, err := c.extractor.Extract(rawHTML)
	if err != nil {
		c.log.Error("extract failed", "error", err)

		return models.NewErrorSnapshot(errorMessage(err), c.now())
	}

	return snap
}

// Export fetches the live page and writes a timestamped export file into
// dir. It always returns a human-readable result message; failures never
// propagate as errors.
func (c *Client) Export(ctx context.Context, dir string) string {
	rawHTML, err := c.fetcher.Fetch(ctx, c.url)
	if err != nil {
		c.log.Error("fetch failed", "url", c.url, "error", err)

		return errorMessage(err)
	}

	return c.ExportHTML(rawHTML, dir)
}

// ExportHTML writes the export file from already-fetched page HTML. The file
// is named market_data_<YYYYMMDD_HHMMSS>.json and carries no last_updated
// key; the timestamp lives only in the filename.
func (c *Client) ExportHTML(rawHTML, dir string) string {
	snap, err := c.extractor.Extract(rawHTML)
	if err != nil {
		return errorMessage(err)
	}

	data, err := snap.ExportJSON()
	if err != nil {
		return errorMessage(err)
	}

	filename := fmt.Sprintf("market_data_%s.json", c.now().Format(exportTimeLayout))
	path := filepath.Join(dir, filename)

	if err := os.WriteFile(path, data, 0644); err != nil {
		c.log.Error("export write failed", "path", path, "error", err)

		return errorMessage(err)
	}

	return fmt.Sprintf("Data successfully saved to %s", filename)
}

// errorMessage maps a cycle failure to its user-facing message.
func errorMessage(err error) string {
	if errors.Is(err, extractor.ErrNoTables) {
		return NoTablesMessage
	}

	return fmt.Sprintf("An error occurred: %v", err)
}
