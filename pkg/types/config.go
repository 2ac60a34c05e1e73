// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the oa-harvester pipeline.
package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with API requests
	// (e.g. "oa-harvester/0.1 (mailto:ops@example.org)").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// Referer is the Referer header sent with API requests.
	Referer string `json:"referer" yaml:"referer"`
}

// Config holds the full run configuration. It is loaded once at startup and
// treated as read-only afterward; components receive it (or a slice of it)
// explicitly rather than through package-level state.
type Config struct {
	// APIBase is the OpenAlex works endpoint.
	APIBase string `json:"api_base" yaml:"api_base" mapstructure:"api_base"`

	// UserAgent identifies this tool to the APIs it calls.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// Referer is sent alongside the User-Agent on API requests.
	Referer string `json:"referer" yaml:"referer" mapstructure:"referer"`

	// OutDir is the directory PDFs are written to.
	OutDir string `json:"outdir" yaml:"outdir" mapstructure:"outdir"`

	// Email is the contact address required by the Unpaywall API and used
	// for OpenAlex polite-pool access. May be supplied via .secrets/ instead.
	Email string `json:"email" yaml:"email" mapstructure:"email"`

	// UnpaywallAPI is the Unpaywall endpoint base.
	UnpaywallAPI string `json:"unpaywall_api" yaml:"unpaywall_api" mapstructure:"unpaywall_api"`

	// MinCitations filters crawled works to those cited at least this many
	// times. Nil disables the filter.
	MinCitations *int `json:"min_citations" yaml:"min_citations" mapstructure:"min_citations"`

	// Topic is the free-text search term for the bulk crawl.
	Topic string `json:"topic" yaml:"topic" mapstructure:"topic"`

	// PerPage is the OpenAlex page size.
	PerPage int `json:"per_page" yaml:"per_page" mapstructure:"per_page"`

	// Pages is the number of pages the bulk crawl walks.
	Pages int `json:"pages" yaml:"pages" mapstructure:"pages"`

	// Workers is the bulk-crawl download pool size.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// CatalogPath is the SQLite catalog location. Empty disables the catalog.
	CatalogPath string `json:"catalog_path" yaml:"catalog_path" mapstructure:"catalog_path"`

	// MetadataDir is where lookup mode writes per-paper YAML sidecars.
	// Empty disables sidecar writing.
	MetadataDir string `json:"metadata_dir" yaml:"metadata_dir" mapstructure:"metadata_dir"`
}

// Validate checks the required keys. It runs before any network activity so
// malformed configuration aborts the whole run.
func (c Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"api_base", c.APIBase},
		{"user_agent", c.UserAgent},
		{"referer", c.Referer},
		{"outdir", c.OutDir},
		{"unpaywall_api", c.UnpaywallAPI},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("config: missing required key %q", r.key)
		}
	}
	if c.PerPage <= 0 {
		return fmt.Errorf("config: per_page must be positive, got %d", c.PerPage)
	}
	if c.Pages < 0 {
		return fmt.Errorf("config: pages must not be negative, got %d", c.Pages)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	return nil
}
