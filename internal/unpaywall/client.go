// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package unpaywall resolves DOIs to alternate open-access PDF URLs.
package unpaywall

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultTimeout bounds Unpaywall lookups.
const defaultTimeout = 20 * time.Second

// doiPrefixes are the URL/scheme wrappers OpenAlex and CSV inputs put around
// bare DOIs. Exactly one matching prefix is stripped; anything else passes
// through unmodified.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// Client queries the Unpaywall API.
type Client struct {
	// HTTPClient performs the requests. Replaceable in tests.
	HTTPClient *http.Client

	// BaseURL is the Unpaywall endpoint base, e.g. "https://api.unpaywall.org/v2".
	BaseURL string

	// Email is the contact address Unpaywall requires on every request.
	// An empty Email disables lookups: Resolve returns no URL.
	Email string
}

// NewClient builds a Client for the given endpoint and contact address.
func NewClient(baseURL, email string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		BaseURL:    baseURL,
		Email:      email,
	}
}

type response struct {
	BestOALocation *location `json:"best_oa_location"`
}

type location struct {
	URLForPDF string `json:"url_for_pdf"`
}

// NormalizeDOI strips a single known URL/scheme prefix from a DOI. A DOI
// carrying none of the known prefixes is returned unchanged.
func NormalizeDOI(doi string) string {
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(doi, prefix) {
			return doi[len(prefix):]
		}
	}
	return doi
}

// Resolve looks up an open-access PDF URL for a DOI. It returns ("", nil)
// when the DOI or contact email is absent, when Unpaywall answers 404 or 422
// (its "not found" signals), or when the record has no url_for_pdf. Other
// statuses and transport failures are errors; callers decide whether to log
// or propagate them.
func (c *Client) Resolve(ctx context.Context, doi string) (string, error) {
	if doi == "" || c.Email == "" {
		return "", nil
	}

	// The DOI is not URL-encoded: Unpaywall expects it verbatim in the path.
	endpoint := c.BaseURL + "/" + NormalizeDOI(doi) + "?email=" + url.QueryEscape(c.Email)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating Unpaywall request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Unpaywall API request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		return "", nil
	case http.StatusOK:
	default:
		return "", fmt.Errorf("Unpaywall API returned HTTP %d", resp.StatusCode)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("parsing Unpaywall response: %w", err)
	}

	if r.BestOALocation == nil {
		return "", nil
	}
	return r.BestOALocation.URLForPDF, nil
}
