// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openalex queries the OpenAlex works API for open-access papers.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/oa-harvester/internal/httputil"
	"github.com/pdiddy/oa-harvester/pkg/types"
)

const (
	// defaultTimeout bounds every API query.
	defaultTimeout = 30 * time.Second

	// requestRate is the polite-pool limit of 10 requests per second.
	requestRate = 10.0
)

// Client is a rate-limited client for the OpenAlex works endpoint. The header
// configuration is set at construction and never mutated afterward, so a
// single Client is shared safely across crawl workers.
type Client struct {
	// HTTPClient performs the requests. Replaceable in tests.
	HTTPClient *http.Client

	// BaseURL is the works endpoint, e.g. "https://api.openalex.org/works".
	BaseURL string

	// UserAgent and Referer identify this tool to the API.
	UserAgent string
	Referer   string

	// Email, when set, is passed as the mailto parameter for polite-pool access.
	Email string

	// Log receives retry progress lines. Defaults to io.Discard.
	Log io.Writer

	limiter *rate.Limiter
}

// NewClient builds a Client from the run configuration.
func NewClient(cfg types.Config) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		BaseURL:    cfg.APIBase,
		UserAgent:  cfg.UserAgent,
		Referer:    cfg.Referer,
		Email:      cfg.Email,
		Log:        io.Discard,
		limiter:    rate.NewLimiter(rate.Limit(requestRate), 1),
	}
}

// WorksPage is one page of the works listing.
type WorksPage struct {
	Meta    Meta   `json:"meta"`
	Results []Work `json:"results"`
}

// Meta carries the listing counters OpenAlex returns with every page.
type Meta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

// Work is the slice of an OpenAlex work record this tool consumes.
type Work struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	DOI            string     `json:"doi"`
	BestOALocation *Location  `json:"best_oa_location"`
	Locations      []Location `json:"locations"`
}

// Location is an open-access location of a work.
type Location struct {
	PDFURL   string `json:"pdf_url"`
	HostType string `json:"host_type"`
}

// FetchPage retrieves one page of the filtered works listing. The filter
// always includes is_oa:true; when cfg carries a citation threshold the
// cited_by_count filter is added as threshold-1 to express ">=". Non-2xx
// statuses are errors.
func (c *Client) FetchPage(ctx context.Context, cfg types.Config, page int) (*WorksPage, error) {
	filters := []string{"is_oa:true"}
	if cfg.MinCitations != nil {
		filters = append(filters, fmt.Sprintf("cited_by_count:>%d", *cfg.MinCitations-1))
	}

	params := url.Values{
		"filter":   {strings.Join(filters, ",")},
		"per-page": {strconv.Itoa(cfg.PerPage)},
		"page":     {strconv.Itoa(page)},
	}
	if cfg.Topic != "" {
		params.Set("search", cfg.Topic)
	}

	var pg WorksPage
	if err := c.getJSON(ctx, params, &pg); err != nil {
		return nil, err
	}
	return &pg, nil
}

// FetchByPMID retrieves the single work matching a PubMed identifier.
// It returns (nil, nil) when OpenAlex has no record for the PMID; transport
// failures and non-2xx statuses are returned as errors for the caller to log.
func (c *Client) FetchByPMID(ctx context.Context, pmid string) (*Work, error) {
	if pmid == "" {
		return nil, nil
	}

	params := url.Values{
		"filter":   {"ids.pmid:" + pmid},
		"per-page": {"1"},
	}

	var pg WorksPage
	if err := c.getJSON(ctx, params, &pg); err != nil {
		return nil, err
	}
	if len(pg.Results) == 0 {
		return nil, nil
	}
	return &pg.Results[0], nil
}

func (c *Client) getJSON(ctx context.Context, params url.Values, out any) error {
	if c.Email != "" {
		params.Set("mailto", c.Email)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := c.BaseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Referer", c.Referer)

	log := c.Log
	if log == nil {
		log = io.Discard
	}
	resp, err := httputil.DoWithRetry(ctx, c.HTTPClient, req, 0, log)
	if err != nil {
		return fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return nil
}

// ExtractPDF picks the download URL for a work: best_oa_location.pdf_url
// always wins; otherwise the first entry of locations carrying a pdf_url is
// used. Returns nil when the work has no PDF URL anywhere.
func ExtractPDF(work *Work) *types.WorkEntry {
	if work == nil {
		return nil
	}

	entry := types.WorkEntry{
		DOI:        work.DOI,
		OpenAlexID: work.ID,
		Title:      work.Title,
	}

	if best := work.BestOALocation; best != nil && best.PDFURL != "" {
		entry.PDFURL = best.PDFURL
		entry.HostType = best.HostType
		return &entry
	}

	for _, loc := range work.Locations {
		if loc.PDFURL != "" {
			entry.PDFURL = loc.PDFURL
			entry.HostType = loc.HostType
			return &entry
		}
	}

	return nil
}

// ExtractEntries collects the downloadable entries of a listing page.
// Works without a best_oa_location PDF URL are dropped; the crawl does not
// dig through the full locations list the way the per-PMID path does, since
// the listing is already filtered to is_oa:true.
func ExtractEntries(pg *WorksPage) []types.WorkEntry {
	var entries []types.WorkEntry
	for i := range pg.Results {
		w := &pg.Results[i]
		best := w.BestOALocation
		if best == nil || best.PDFURL == "" {
			continue
		}
		entries = append(entries, types.WorkEntry{
			PDFURL:     best.PDFURL,
			HostType:   best.HostType,
			DOI:        w.DOI,
			OpenAlexID: w.ID,
			Title:      w.Title,
		})
	}
	return entries
}
