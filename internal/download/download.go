// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches PDFs to local disk and validates the results.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// defaultTimeout bounds each download request.
	defaultTimeout = 60 * time.Second

	// chunkSize is the copy buffer size, bounding memory for large files.
	chunkSize = 8 * 1024

	// minPDFSize rejects downloads below this size: error pages served with
	// a 200 are rarely this small a real paper.
	minPDFSize = 1024
)

// pdfMagic is the signature every valid PDF starts with.
var pdfMagic = []byte("%PDF")

// browserHeaders mimic a desktop browser. Some publishers serve a PDF to a
// browser and a 403 to anything that smells like a script.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "application/pdf,application/octet-stream,*/*",
	"Accept-Language":           "en-US,en;q=0.9",
	"Connection":                "keep-alive",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
}

// StatusError reports a non-2xx response from a download GET. Callers branch
// on the code: 403/429 trigger the Unpaywall fallback, everything else is
// fatal for the item.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}

// Blocked reports whether the status indicates publisher blocking worth a
// fallback attempt.
func (e *StatusError) Blocked() bool {
	return e.Code == http.StatusForbidden || e.Code == http.StatusTooManyRequests
}

// Outcome classifies a fetch that did not error.
type Outcome int

const (
	// Downloaded means the file passed validation and is on disk.
	Downloaded Outcome = iota

	// Skipped means the destination already existed; no request was made.
	Skipped

	// Rejected means the response failed content validation. Nothing is
	// left on disk and Result.Reason says why.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Downloaded:
		return "downloaded"
	case Skipped:
		return "skipped"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Result is the explicit outcome of a fetch. Modeling rejection as a value
// rather than an error keeps the fallback decision a visible branch in the
// orchestrators.
type Result struct {
	Path    string
	Outcome Outcome
	Reason  string
}

// OK reports whether a usable file exists at Result.Path.
func (r Result) OK() bool {
	return r.Outcome == Downloaded || r.Outcome == Skipped
}

// Fetcher downloads PDFs with browser-mimicking headers. It is separate from
// the API session on purpose: API calls identify themselves honestly, while
// publisher downloads need evasion headers.
type Fetcher struct {
	// HTTPClient performs the requests. Replaceable in tests.
	HTTPClient *http.Client

	// Log receives per-decision diagnostics. Defaults to io.Discard.
	Log io.Writer
}

// NewFetcher builds a Fetcher with the default download timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		Log:        io.Discard,
	}
}

func (f *Fetcher) log() io.Writer {
	if f.Log == nil {
		return io.Discard
	}
	return f.Log
}

// Fetch downloads url to dest. The sequence is: skip if dest exists, create
// the directory, HEAD for a 403 diagnostic, GET, reject HTML responses,
// stream to disk in 8 KiB chunks, then validate size and the %PDF signature.
// Validation failures remove the partial file and return a Rejected result
// with no error. Non-2xx GET statuses return a *StatusError.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) (Result, error) {
	if _, err := os.Stat(dest); err == nil {
		fmt.Fprintf(f.log(), "already exists: %s\n", filepath.Base(dest))
		return Result{Path: dest, Outcome: Skipped}, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Result{}, fmt.Errorf("creating directory %s: %w", filepath.Dir(dest), err)
	}

	// Diagnostic only. A HEAD 403 does not block the GET attempt: some
	// hosts reject HEAD but serve the GET fine.
	f.headCheck(ctx, url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()

	if ct := strings.ToLower(resp.Header.Get("Content-Type")); strings.Contains(ct, "text/html") {
		fmt.Fprintf(f.log(), "got HTML instead of PDF (likely paywall redirect): %s\n", url)
		return Result{Outcome: Rejected, Reason: "HTML response"}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &StatusError{Code: resp.StatusCode, URL: url}
	}

	if err := writeChunked(dest, resp.Body); err != nil {
		os.Remove(dest)
		return Result{}, fmt.Errorf("writing %s: %w", dest, err)
	}

	return f.validate(dest)
}

// headCheck performs the diagnostic HEAD request. Failures are ignored.
func (f *Fetcher) headCheck(ctx context.Context, url string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode == http.StatusForbidden {
		fmt.Fprintf(f.log(), "publisher blocking access (HEAD 403), trying direct download anyway: %s\n", url)
	}
}

func writeChunked(dest string, body io.Reader) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	buf := make([]byte, chunkSize)
	_, copyErr := io.CopyBuffer(out, body, buf)
	closeErr := out.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

// validate checks the downloaded file: minimum size and the PDF signature.
// An invalid file is removed so a later run retries instead of skipping.
func (f *Fetcher) validate(dest string) (Result, error) {
	info, err := os.Stat(dest)
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", dest, err)
	}
	if info.Size() < minPDFSize {
		fmt.Fprintf(f.log(), "downloaded file too small (%d bytes), likely an error page: %s\n",
			info.Size(), filepath.Base(dest))
		os.Remove(dest)
		return Result{Outcome: Rejected, Reason: "file too small"}, nil
	}

	head := make([]byte, len(pdfMagic))
	in, err := os.Open(dest)
	if err != nil {
		return Result{}, fmt.Errorf("opening %s: %w", dest, err)
	}
	_, readErr := io.ReadFull(in, head)
	in.Close()
	if readErr != nil || string(head) != string(pdfMagic) {
		fmt.Fprintf(f.log(), "downloaded file is not a valid PDF: %s\n", filepath.Base(dest))
		os.Remove(dest)
		return Result{Outcome: Rejected, Reason: "missing PDF signature"}, nil
	}

	return Result{Path: dest, Outcome: Downloaded}, nil
}
