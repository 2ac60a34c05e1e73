// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/oa-harvester/internal/catalog"
	"github.com/pdiddy/oa-harvester/internal/download"
	"github.com/pdiddy/oa-harvester/internal/openalex"
	"github.com/pdiddy/oa-harvester/internal/unpaywall"
	"github.com/pdiddy/oa-harvester/pkg/types"
)

// FallbackSubdir is where Unpaywall-sourced PDFs land, distinct from the
// direct OpenAlex downloads so the provenance is visible on disk.
const FallbackSubdir = "unpaywall"

// Runner drives the row-driven lookup. It is deliberately serial: the
// per-row fallback chain already issues up to three requests per paper, and
// running rows concurrently would hammer the APIs.
type Runner struct {
	OpenAlex  *openalex.Client
	Unpaywall *unpaywall.Client
	Fetcher   *download.Fetcher

	// Catalog records successful downloads. Nil disables recording.
	Catalog *catalog.Store

	Config types.Config

	// Log receives per-row progress. Defaults to io.Discard.
	Log io.Writer
}

// Summary holds the outcome counts of one lookup run. Processed counts
// every row regardless of outcome; it is a display-only total, not a
// success indicator.
type Summary struct {
	Processed  int
	Downloaded int
	Failed     int
}

func (r *Runner) log() io.Writer {
	if r.Log == nil {
		return io.Discard
	}
	return r.Log
}

// Run processes rows sequentially, optionally sliced by a start offset and a
// maximum count. Failures never propagate past the per-paper step; they are
// logged and counted.
func (r *Runner) Run(ctx context.Context, rows []types.PaperRow, startFrom, maxPapers int) (Summary, error) {
	if startFrom > 0 {
		if startFrom >= len(rows) {
			rows = nil
		} else {
			rows = rows[startFrom:]
		}
	}
	if maxPapers > 0 && len(rows) > maxPapers {
		rows = rows[:maxPapers]
	}

	fmt.Fprintf(r.log(), "Processing %d papers\n", len(rows))

	var summary Summary
	for i, row := range rows {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		fmt.Fprintf(r.log(), "[%d/%d]\n", i+1, len(rows))
		if r.processPaper(ctx, row) {
			summary.Downloaded++
		} else {
			summary.Failed++
		}
		summary.Processed++
	}

	fmt.Fprintf(r.log(), "\nSummary:\n")
	fmt.Fprintf(r.log(), "  Papers processed:        %d\n", summary.Processed)
	fmt.Fprintf(r.log(), "  Successfully downloaded: %d\n", summary.Downloaded)
	fmt.Fprintf(r.log(), "  Failed to find/download: %d\n", summary.Failed)
	return summary, nil
}

// processPaper resolves and downloads one paper: OpenAlex's direct PDF URL
// first, then Unpaywall via the work's DOI into the fallback subdirectory.
// Without an OpenAlex record there is no DOI to look up, so Unpaywall is
// skipped entirely.
func (r *Runner) processPaper(ctx context.Context, row types.PaperRow) bool {
	w := r.log()
	fmt.Fprintf(w, "  → Searching PMID %s: %s\n", row.PMID, row.Title)

	work, err := r.OpenAlex.FetchByPMID(ctx, row.PMID)
	if err != nil {
		fmt.Fprintf(w, "  → Error retrieving PMID %s: %v\n", row.PMID, err)
		work = nil
	}
	if work == nil {
		fmt.Fprintf(w, "    → No OpenAlex record; skipping Unpaywall\n")
		fmt.Fprintf(w, "    → No PDF available\n")
		return false
	}
	fmt.Fprintf(w, "    → Found in OpenAlex\n")

	paperID := row.PaperID()
	filename := download.SafeFilename(paperID, row.Title)

	if entry := openalex.ExtractPDF(work); entry != nil {
		dest := filepath.Join(r.Config.OutDir, filename)
		if res := r.fetch(ctx, entry.PDFURL, dest); res.OK() {
			fmt.Fprintf(w, "    → Downloaded via OpenAlex: %s\n", filepath.Base(res.Path))
			r.recordSuccess(ctx, row, work, "openalex", res.Path)
			return true
		}
	}

	fallbackURL, err := r.Unpaywall.Resolve(ctx, work.DOI)
	if err != nil {
		fmt.Fprintf(w, "    → Unpaywall lookup error for DOI %s: %v\n",
			unpaywall.NormalizeDOI(work.DOI), err)
	}
	if fallbackURL == "" {
		fmt.Fprintf(w, "    → No PDF available\n")
		return false
	}

	dest := filepath.Join(r.Config.OutDir, FallbackSubdir, filename)
	if res := r.fetch(ctx, fallbackURL, dest); res.OK() {
		fmt.Fprintf(w, "    → Downloaded via Unpaywall: %s\n", filepath.Base(res.Path))
		r.recordSuccess(ctx, row, work, "unpaywall", res.Path)
		return true
	}

	fmt.Fprintf(w, "    → No PDF available\n")
	return false
}

// fetch wraps Fetcher.Fetch, folding errors into a failed result since
// nothing past this point distinguishes error kinds in lookup mode.
func (r *Runner) fetch(ctx context.Context, url, dest string) download.Result {
	res, err := r.Fetcher.Fetch(ctx, url, dest)
	if err != nil {
		fmt.Fprintf(r.log(), "    → Download error: %v\n", err)
		return download.Result{Outcome: download.Rejected, Reason: err.Error()}
	}
	return res
}

func (r *Runner) recordSuccess(ctx context.Context, row types.PaperRow, work *openalex.Work, source, path string) {
	if r.Config.MetadataDir != "" {
		if err := writeMetadata(r.Config.MetadataDir, row, work, source, path); err != nil {
			fmt.Fprintf(r.log(), "    → warning: metadata write failed: %v\n", err)
		}
	}

	if r.Catalog == nil {
		return
	}
	var size int64
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	rec := types.PaperRecord{
		ID:        row.PaperID(),
		PMID:      row.PMID,
		Title:     row.Title,
		DOI:       unpaywall.NormalizeDOI(work.DOI),
		Source:    source,
		PDFPath:   path,
		SizeBytes: size,
	}
	if err := r.Catalog.Record(ctx, rec); err != nil {
		fmt.Fprintf(r.log(), "    → warning: catalog record failed: %v\n", err)
	}
}

// writeMetadata writes the YAML sidecar describing one acquired paper.
func writeMetadata(dir string, row types.PaperRow, work *openalex.Work, source, pdfPath string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	meta := types.PaperMeta{
		ID:              row.ID,
		PMID:            row.PMID,
		Title:           row.Title,
		Journal:         row.Journal,
		PublicationDate: row.PublicationDate,
		Authors:         row.Authors,
		DOI:             unpaywall.NormalizeDOI(work.DOI),
		OpenAlexID:      work.ID,
		Source:          source,
		PDFPath:         pdfPath,
	}

	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, row.PaperID()+".yaml"), data, 0o644)
}
