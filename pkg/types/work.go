// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// WorkEntry describes one discovered paper. All fields are optional; an
// entry is only downloadable when PDFURL is set (directly from OpenAlex or
// filled in via the Unpaywall fallback). Entries without any URL are dropped
// from the crawl, not retried.
type WorkEntry struct {
	// PDFURL is the direct download URL, when OpenAlex knows one.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// DOI is the work's DOI as OpenAlex reports it, usually in
	// "https://doi.org/10.xxxx/..." form.
	DOI string `json:"doi" yaml:"doi"`

	// HostType records where the open-access copy lives (e.g. "repository").
	HostType string `json:"host_type" yaml:"host_type"`

	// OpenAlexID is the work's OpenAlex identifier URL.
	OpenAlexID string `json:"openalex_id" yaml:"openalex_id"`

	// Title is the work title.
	Title string `json:"title" yaml:"title"`
}

// PaperRow is one row of the external CSV of known papers. Title is the only
// required field; rows whose title is empty or the literal "[]" sentinel are
// skipped during parsing.
type PaperRow struct {
	ID              string `json:"id" yaml:"id"`
	PMID            string `json:"pmid" yaml:"pmid"`
	Title           string `json:"title" yaml:"title"`
	Journal         string `json:"journal" yaml:"journal"`
	PublicationDate string `json:"publication_date" yaml:"publication_date"`
	Authors         string `json:"authors" yaml:"authors"`
}

// PaperID returns the identifier used in download filenames: the CSV id when
// present, otherwise the PMID.
func (r PaperRow) PaperID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.PMID
}

// PaperRecord is a catalog row describing one acquired PDF.
type PaperRecord struct {
	// ID is the paper identifier: CSV id/PMID in lookup mode, the derived
	// filename stem in crawl mode.
	ID string `json:"id" yaml:"id"`

	PMID  string `json:"pmid" yaml:"pmid"`
	Title string `json:"title" yaml:"title"`
	DOI   string `json:"doi" yaml:"doi"`

	// Source records which resolver produced the download URL:
	// "openalex" or "unpaywall".
	Source string `json:"source" yaml:"source"`

	// PDFPath is the on-disk location of the downloaded file.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// SizeBytes is the downloaded file size.
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes"`

	// DownloadedAt is when the file landed on disk.
	DownloadedAt time.Time `json:"downloaded_at" yaml:"downloaded_at"`
}

// PaperMeta is the YAML metadata sidecar lookup mode writes next to each
// successful download.
type PaperMeta struct {
	ID              string `json:"id" yaml:"id"`
	PMID            string `json:"pmid" yaml:"pmid"`
	Title           string `json:"title" yaml:"title"`
	Journal         string `json:"journal" yaml:"journal"`
	PublicationDate string `json:"publication_date" yaml:"publication_date"`
	Authors         string `json:"authors" yaml:"authors"`
	DOI             string `json:"doi" yaml:"doi"`
	OpenAlexID      string `json:"openalex_id" yaml:"openalex_id"`
	Source          string `json:"source" yaml:"source"`
	PDFPath         string `json:"pdf_path" yaml:"pdf_path"`
}
