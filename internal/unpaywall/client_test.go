// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package unpaywall

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		name string
		doi  string
		want string
	}{
		{"https doi.org prefix", "https://doi.org/10.1145/123.456", "10.1145/123.456"},
		{"http dx.doi.org prefix", "http://dx.doi.org/10.1038/s41586", "10.1038/s41586"},
		{"doi scheme prefix", "doi:10.1000/182", "10.1000/182"},
		{"bare DOI unchanged", "10.1101/2020.01.01.123456", "10.1101/2020.01.01.123456"},
		{"unknown prefix unchanged", "https://example.org/10.1/x", "https://example.org/10.1/x"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDOI(tt.doi); got != tt.want {
				t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.doi, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		doi        string
		email      string
		response   string
		statusCode int
		wantURL    string
		wantErr    bool
	}{
		{
			name:       "pdf found",
			doi:        "10.1145/123.456",
			email:      "ops@example.org",
			response:   `{"best_oa_location":{"url_for_pdf":"https://oa.example/p.pdf"}}`,
			statusCode: http.StatusOK,
			wantURL:    "https://oa.example/p.pdf",
		},
		{
			name:       "404 is silent not-found",
			doi:        "10.1145/unknown",
			email:      "ops@example.org",
			response:   `{"error":"not found"}`,
			statusCode: http.StatusNotFound,
		},
		{
			name:       "422 is silent not-found",
			doi:        "not-a-doi",
			email:      "ops@example.org",
			response:   `{"error":"invalid"}`,
			statusCode: http.StatusUnprocessableEntity,
		},
		{
			name:       "no url_for_pdf field",
			doi:        "10.1145/123.456",
			email:      "ops@example.org",
			response:   `{"best_oa_location":{}}`,
			statusCode: http.StatusOK,
		},
		{
			name:       "null best_oa_location",
			doi:        "10.1145/123.456",
			email:      "ops@example.org",
			response:   `{"best_oa_location":null}`,
			statusCode: http.StatusOK,
		},
		{
			name:       "server error propagates",
			doi:        "10.1145/123.456",
			email:      "ops@example.org",
			response:   `{"error":"boom"}`,
			statusCode: http.StatusInternalServerError,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("email"); got != tt.email {
					t.Errorf("email param = %q, want %q", got, tt.email)
				}
				w.WriteHeader(tt.statusCode)
				fmt.Fprint(w, tt.response)
			}))
			defer ts.Close()

			c := NewClient(ts.URL, tt.email)
			c.HTTPClient = ts.Client()

			got, err := c.Resolve(context.Background(), tt.doi)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tt.wantURL {
				t.Errorf("Resolve() = %q, want %q", got, tt.wantURL)
			}
		})
	}
}

func TestResolveStripsDOIPrefixInPath(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"best_oa_location":{"url_for_pdf":"https://oa.example/p.pdf"}}`)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "ops@example.org")
	c.HTTPClient = ts.Client()

	if _, err := c.Resolve(context.Background(), "https://doi.org/10.1145/123.456"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if gotPath != "/10.1145/123.456" {
		t.Errorf("request path = %q, want %q", gotPath, "/10.1145/123.456")
	}
}

func TestResolveSkipsWithoutDOIOrEmail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request should be made")
	}))
	defer ts.Close()

	noEmail := NewClient(ts.URL, "")
	noEmail.HTTPClient = ts.Client()
	if got, err := noEmail.Resolve(context.Background(), "10.1/x"); err != nil || got != "" {
		t.Errorf("Resolve without email = (%q, %v), want (\"\", nil)", got, err)
	}

	withEmail := NewClient(ts.URL, "ops@example.org")
	withEmail.HTTPClient = ts.Client()
	if got, err := withEmail.Resolve(context.Background(), ""); err != nil || got != "" {
		t.Errorf("Resolve without DOI = (%q, %v), want (\"\", nil)", got, err)
	}
}
