// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/oa-harvester/internal/catalog"
	"github.com/pdiddy/oa-harvester/internal/download"
	"github.com/pdiddy/oa-harvester/internal/lookup"
	"github.com/pdiddy/oa-harvester/internal/openalex"
	"github.com/pdiddy/oa-harvester/internal/unpaywall"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <papers.csv>",
	Short: "Resolve and download papers from a CSV of PMIDs",
	Long: `Lookup reads a CSV of known papers (matched by PMID), resolves each row
against OpenAlex, and downloads the PDF. When OpenAlex has no direct PDF
link or the download fails, the work's DOI is looked up in Unpaywall and a
second download goes into the unpaywall/ subdirectory.

Rows are processed one at a time on purpose: the per-row fallback chain
already issues several requests per paper. Individual failures are counted
and summarized, never fatal.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().Int("max", 0, "maximum number of papers to process (0 = all)")
	lookupCmd.Flags().Int("start", 0, "start offset into the CSV (0-based)")

	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	maxPapers, _ := cmd.Flags().GetInt("max")
	startFrom, _ := cmd.Flags().GetInt("start")

	rows, err := lookup.ReadRows(args[0])
	if err != nil {
		return err
	}

	oa := openalex.NewClient(cfg)
	oa.Log = os.Stdout

	r := &lookup.Runner{
		OpenAlex:  oa,
		Unpaywall: unpaywall.NewClient(cfg.UnpaywallAPI, cfg.Email),
		Fetcher:   download.NewFetcher(),
		Config:    cfg,
		Log:       os.Stdout,
	}

	if cfg.CatalogPath != "" {
		store, err := catalog.Open(cfg.CatalogPath)
		if err != nil {
			return err
		}
		defer store.Close()
		r.Catalog = store
	}

	// Per-paper failures are part of normal operation here (paywalled or
	// unindexed papers); the summary reports them and the run exits zero.
	_, err = r.Run(context.Background(), rows, startFrom, maxPapers)
	return err
}
