// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lookup resolves known papers from a CSV of PMIDs, one row at a
// time, downloading through OpenAlex with an Unpaywall fallback.
package lookup

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/oa-harvester/pkg/types"
)

// emptyTitleSentinel marks rows whose title column holds a serialized empty
// list rather than a real title. Such rows are skipped.
const emptyTitleSentinel = "[]"

// ReadRows parses the input CSV. Columns are matched by header name; the
// recognized columns are id, pmid, title, journal, publication_date and
// authors. Rows with an empty or sentinel title are dropped.
func ReadRows(path string) ([]types.PaperRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV %s: %w", path, err)
	}
	defer f.Close()
	return parseRows(f)
}

func parseRows(r io.Reader) ([]types.PaperRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []types.PaperRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV record: %w", err)
		}

		title := strings.TrimSpace(field(record, "title"))
		if title == "" || title == emptyTitleSentinel {
			continue
		}

		rows = append(rows, types.PaperRow{
			ID:              field(record, "id"),
			PMID:            field(record, "pmid"),
			Title:           title,
			Journal:         field(record, "journal"),
			PublicationDate: field(record, "publication_date"),
			Authors:         field(record, "authors"),
		})
	}
	return rows, nil
}
