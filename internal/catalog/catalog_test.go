// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, types.PaperRecord{
		ID:           "42",
		PMID:         "123",
		Title:        "Longevity Study",
		DOI:          "10.1/x",
		Source:       "openalex",
		PDFPath:      "pdfs/42_Longevity Study.pdf",
		SizeBytes:    2000,
		DownloadedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.Record(ctx, types.PaperRecord{
		ID:           "W99",
		Title:        "Crawled Paper",
		Source:       "unpaywall",
		PDFPath:      "pdfs/unpaywall/crawled.pdf",
		SizeBytes:    4096,
		DownloadedAt: time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC),
	}))

	all, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Newest first.
	assert.Equal(t, "W99", all[0].ID)
	assert.Equal(t, "42", all[1].ID)
	assert.Equal(t, "Longevity Study", all[1].Title)
	assert.Equal(t, int64(2000), all[1].SizeBytes)
}

func TestRecordUpsertsByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, types.PaperRecord{
		ID: "42", Title: "First Try", Source: "openalex", PDFPath: "a.pdf",
	}))
	require.NoError(t, s.Record(ctx, types.PaperRecord{
		ID: "42", Title: "Second Try", Source: "unpaywall", PDFPath: "b.pdf",
	}))

	all, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Second Try", all[0].Title)
	assert.Equal(t, "unpaywall", all[0].Source)
}

func TestListFiltersBySource(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, types.PaperRecord{ID: "a", Source: "openalex", PDFPath: "a.pdf"}))
	require.NoError(t, s.Record(ctx, types.PaperRecord{ID: "b", Source: "unpaywall", PDFPath: "b.pdf"}))

	got, err := s.List(ctx, "unpaywall", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(nil, &buf)
	assert.Contains(t, buf.String(), "Catalog is empty.")

	buf.Reset()
	FormatTable([]types.PaperRecord{
		{ID: "42", Title: "Longevity Study", Source: "openalex", SizeBytes: 2000,
			DownloadedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)},
	}, &buf)
	out := buf.String()
	assert.Contains(t, out, "Longevity Study")
	assert.Contains(t, out, "openalex")
	assert.Contains(t, out, "1 paper(s)")
}
