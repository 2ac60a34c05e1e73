// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// pdfBody returns a payload that passes both validation checks.
func pdfBody(size int) []byte {
	body := make([]byte, size)
	copy(body, "%PDF-1.4\n")
	return body
}

func TestFetchSkipsExistingFileWithoutNetwork(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(dest, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewFetcher()
	f.HTTPClient = ts.Client()

	res, err := f.Fetch(context.Background(), ts.URL+"/paper.pdf", dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Outcome != Skipped {
		t.Errorf("outcome = %v, want Skipped", res.Outcome)
	}
	if res.Path != dest {
		t.Errorf("path = %q, want %q", res.Path, dest)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("server saw %d requests, want 0", calls)
	}
}

func TestFetchRejectsHTMLResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>paywall</html>"))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "paper.pdf")
	f := NewFetcher()
	f.HTTPClient = ts.Client()

	res, err := f.Fetch(context.Background(), ts.URL, dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Outcome != Rejected {
		t.Errorf("outcome = %v, want Rejected", res.Outcome)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("no file should be written for an HTML response")
	}
}

func TestFetchDeletesUndersizedFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdfBody(512))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "small.pdf")
	f := NewFetcher()
	f.HTTPClient = ts.Client()

	res, err := f.Fetch(context.Background(), ts.URL, dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Outcome != Rejected {
		t.Errorf("outcome = %v, want Rejected", res.Outcome)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("undersized file should be deleted")
	}
}

func TestFetchDeletesFileWithoutPDFMagic(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(bytes.Repeat([]byte("x"), 2048))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "fake.pdf")
	f := NewFetcher()
	f.HTTPClient = ts.Client()

	res, err := f.Fetch(context.Background(), ts.URL, dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Outcome != Rejected {
		t.Errorf("outcome = %v, want Rejected", res.Outcome)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("file without PDF signature should be deleted")
	}
}

func TestFetchSucceedsOnValidPDF(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdfBody(2000))
	}))
	defer ts.Close()

	dest := filepath.Join(t.TempDir(), "out", "paper.pdf")
	f := NewFetcher()
	f.HTTPClient = ts.Client()

	res, err := f.Fetch(context.Background(), ts.URL, dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Outcome != Downloaded {
		t.Errorf("outcome = %v, want Downloaded", res.Outcome)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading download: %v", err)
	}
	if len(data) != 2000 || !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("downloaded file corrupt: %d bytes", len(data))
	}
}

func TestFetchReturnsStatusError(t *testing.T) {
	tests := []struct {
		code        int
		wantBlocked bool
	}{
		{http.StatusForbidden, true},
		{http.StatusTooManyRequests, true},
		{http.StatusNotFound, false},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.code)
		}))

		f := NewFetcher()
		f.HTTPClient = ts.Client()

		_, err := f.Fetch(context.Background(), ts.URL, filepath.Join(t.TempDir(), "x.pdf"))
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("code %d: expected *StatusError, got %v", tt.code, err)
		}
		if se.Code != tt.code {
			t.Errorf("StatusError.Code = %d, want %d", se.Code, tt.code)
		}
		if se.Blocked() != tt.wantBlocked {
			t.Errorf("code %d: Blocked() = %v, want %v", tt.code, se.Blocked(), tt.wantBlocked)
		}
		ts.Close()
	}
}

func TestFetchHEADFailureDoesNotBlockGET(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdfBody(2000))
	}))
	defer ts.Close()

	var log bytes.Buffer
	f := NewFetcher()
	f.HTTPClient = ts.Client()
	f.Log = &log

	res, err := f.Fetch(context.Background(), ts.URL, filepath.Join(t.TempDir(), "p.pdf"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Outcome != Downloaded {
		t.Errorf("outcome = %v, want Downloaded", res.Outcome)
	}
	if !strings.Contains(log.String(), "HEAD 403") {
		t.Errorf("expected HEAD 403 diagnostic in log, got %q", log.String())
	}
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://x.example/papers/y.pdf", "y.pdf"},
		{"https://x.example/papers/y.pdf?token=abc&dl=1", "y.pdf"},
		{"https://x.example/y.pdf", "y.pdf"},
	}
	for _, tt := range tests {
		if got := FilenameFromURL(tt.url); got != tt.want {
			t.Errorf("FilenameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}

	// Trailing slash has no usable segment; the fallback must still be stable.
	a := FilenameFromURL("https://x.example/papers/")
	b := FilenameFromURL("https://x.example/papers/")
	if a == "" || a != b {
		t.Errorf("hash fallback not deterministic: %q vs %q", a, b)
	}
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		name    string
		paperID string
		title   string
		want    string
	}{
		{"plain title", "42", "Longevity Study", "42_Longevity Study.pdf"},
		{"punctuation stripped", "7", "p53: friend & foe?", "7_p53 friend  foe.pdf"},
		{"trailing space trimmed", "9", "Study!!! ", "9_Study.pdf"},
		{
			"long title truncated to 50",
			"1",
			strings.Repeat("a", 80),
			"1_" + strings.Repeat("a", 50) + ".pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeFilename(tt.paperID, tt.title); got != tt.want {
				t.Errorf("SafeFilename(%q, %q) = %q, want %q", tt.paperID, tt.title, got, tt.want)
			}
		})
	}
}
