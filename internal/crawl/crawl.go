// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawl walks the filtered OpenAlex works listing and downloads
// every discovered open-access PDF through a bounded worker pool.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdiddy/oa-harvester/internal/catalog"
	"github.com/pdiddy/oa-harvester/internal/download"
	"github.com/pdiddy/oa-harvester/internal/openalex"
	"github.com/pdiddy/oa-harvester/internal/unpaywall"
	"github.com/pdiddy/oa-harvester/pkg/types"
)

// Crawler drives the bulk crawl: paginate, extract, download in parallel.
type Crawler struct {
	OpenAlex  *openalex.Client
	Unpaywall *unpaywall.Client
	Fetcher   *download.Fetcher

	// Catalog records successful downloads. Nil disables recording.
	Catalog *catalog.Store

	Config types.Config

	// Log receives per-page and per-entry progress. Defaults to io.Discard.
	Log io.Writer
}

// Summary holds the outcome counts of one crawl run.
type Summary struct {
	Entries    int
	Downloaded int
	Skipped    int
	Failed     int
}

// HasFailures reports whether any download failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

func (c *Crawler) log() io.Writer {
	if c.Log == nil {
		return io.Discard
	}
	return c.Log
}

// Run executes the crawl. Page fetch failures abort the run (the listing is
// the run's input); download failures are isolated per entry and only
// counted. Completion is reported in whatever order the workers finish.
func (c *Crawler) Run(ctx context.Context) (Summary, error) {
	var entries []types.WorkEntry
	for page := 1; page <= c.Config.Pages; page++ {
		pg, err := c.OpenAlex.FetchPage(ctx, c.Config, page)
		if err != nil {
			return Summary{}, fmt.Errorf("fetching page %d: %w", page, err)
		}
		pageEntries := openalex.ExtractEntries(pg)
		fmt.Fprintf(c.log(), "[Page %d] Found %d PDF entries\n", page, len(pageEntries))
		entries = append(entries, pageEntries...)
	}
	fmt.Fprintf(c.log(), "Total PDF entries: %d\n", len(entries))

	summary := Summary{Entries: len(entries)}
	if len(entries) == 0 {
		return summary, nil
	}

	type outcome struct {
		entry  types.WorkEntry
		result download.Result
		source string
		err    error
	}

	tasks := make(chan types.WorkEntry)
	results := make(chan outcome)

	workers := c.Config.Workers
	if workers > len(entries) {
		workers = len(entries)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range tasks {
				res, source, err := c.downloadEntry(ctx, entry)
				results <- outcome{entry: entry, result: res, source: source, err: err}
			}
		}()
	}

	go func() {
		defer close(tasks)
		for _, e := range entries {
			select {
			case tasks <- e:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for out := range results {
		switch {
		case out.err != nil:
			fmt.Fprintf(c.log(), "Failed → %s: %v\n", out.entry.PDFURL, out.err)
			summary.Failed++
		case out.result.Outcome == download.Rejected:
			fmt.Fprintf(c.log(), "Failed → %s: %s\n", out.entry.PDFURL, out.result.Reason)
			summary.Failed++
		case out.result.Outcome == download.Skipped:
			fmt.Fprintf(c.log(), "Downloaded → %s (already present)\n", out.result.Path)
			summary.Skipped++
		default:
			fmt.Fprintf(c.log(), "Downloaded → %s\n", out.result.Path)
			summary.Downloaded++
		}
		if out.err == nil && out.result.OK() {
			c.record(ctx, out.entry, out.result, out.source)
		}
	}

	fmt.Fprintf(c.log(), "\nCrawl summary: %d downloaded, %d skipped, %d failed (of %d entries)\n",
		summary.Downloaded, summary.Skipped, summary.Failed, summary.Entries)
	return summary, nil
}

// downloadEntry fetches one entry. A 403/429 from the publisher triggers a
// single Unpaywall retry via the entry's DOI; a second failure fails only
// this entry, never the pool.
func (c *Crawler) downloadEntry(ctx context.Context, entry types.WorkEntry) (download.Result, string, error) {
	dest := filepath.Join(c.Config.OutDir, download.FilenameFromURL(entry.PDFURL))

	res, err := c.Fetcher.Fetch(ctx, entry.PDFURL, dest)
	if err == nil {
		return res, "openalex", nil
	}

	var se *download.StatusError
	if !errors.As(err, &se) || !se.Blocked() {
		return download.Result{}, "", err
	}

	fallback, upErr := c.Unpaywall.Resolve(ctx, entry.DOI)
	if upErr != nil {
		return download.Result{}, "", fmt.Errorf("blocked (%v) and Unpaywall lookup failed: %w", err, upErr)
	}
	if fallback == "" {
		return download.Result{}, "", err
	}

	fmt.Fprintf(c.log(), "→ Publisher blocked. Retrying via Unpaywall: %s\n", fallback)
	res, err = c.Fetcher.Fetch(ctx, fallback, dest)
	if err != nil {
		return download.Result{}, "", err
	}
	return res, "unpaywall", nil
}

func (c *Crawler) record(ctx context.Context, entry types.WorkEntry, res download.Result, source string) {
	if c.Catalog == nil {
		return
	}

	id := entry.OpenAlexID
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(res.Path), filepath.Ext(res.Path))
	}

	var size int64
	if info, err := os.Stat(res.Path); err == nil {
		size = info.Size()
	}

	rec := types.PaperRecord{
		ID:        id,
		Title:     entry.Title,
		DOI:       unpaywall.NormalizeDOI(entry.DOI),
		Source:    source,
		PDFPath:   res.Path,
		SizeBytes: size,
	}
	if err := c.Catalog.Record(ctx, rec); err != nil {
		fmt.Fprintf(c.log(), "warning: catalog record failed for %s: %v\n", id, err)
	}
}
