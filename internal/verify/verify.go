// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify re-checks downloaded PDFs: the cheap signature checks the
// downloader applies, plus an actual parse. A file that passed the magic
// check at download time can still be a truncated or corrupt PDF.
package verify

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const minPDFSize = 1024

var pdfMagic = []byte("%PDF")

// Report summarizes a verification pass.
type Report struct {
	OK     int
	Broken int
}

// Total returns the number of files examined.
func (r Report) Total() int {
	return r.OK + r.Broken
}

// Scan walks dir for *.pdf files, validates each, and writes one line per
// file to w. Broken files are reported, never deleted; removal is the
// operator's call.
func Scan(dir string, w io.Writer) (Report, error) {
	var report Report

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}

		if checkErr := Check(path); checkErr != nil {
			fmt.Fprintf(w, "broken  %s: %v\n", rel, checkErr)
			report.Broken++
			return nil
		}
		fmt.Fprintf(w, "ok      %s\n", rel)
		report.OK++
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("walking %s: %w", dir, err)
	}

	fmt.Fprintf(w, "\nVerified %d file(s): %d ok, %d broken\n",
		report.Total(), report.OK, report.Broken)
	return report, nil
}

// Check validates a single file: minimum size, the %PDF signature, and a
// full parse with at least one page.
func Check(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() < minPDFSize {
		return fmt.Errorf("file is %d bytes, below the %d byte minimum", info.Size(), minPDFSize)
	}

	in, err := os.Open(path)
	if err != nil {
		return err
	}
	head := make([]byte, len(pdfMagic))
	_, readErr := io.ReadFull(in, head)
	in.Close()
	if readErr != nil {
		return fmt.Errorf("reading signature: %w", readErr)
	}
	if string(head) != string(pdfMagic) {
		return fmt.Errorf("missing %%PDF signature")
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("parsing: %w", err)
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return fmt.Errorf("document has no pages")
	}
	return nil
}
