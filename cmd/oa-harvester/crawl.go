// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/oa-harvester/internal/catalog"
	"github.com/pdiddy/oa-harvester/internal/crawl"
	"github.com/pdiddy/oa-harvester/internal/download"
	"github.com/pdiddy/oa-harvester/internal/openalex"
	"github.com/pdiddy/oa-harvester/internal/unpaywall"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Bulk-download open-access PDFs from the OpenAlex works listing",
	Long: `Crawl walks the configured number of pages of the OpenAlex works listing,
filtered to open-access works (optionally above a citation threshold) and
matching the configured topic, then downloads every discovered PDF through
a fixed-size worker pool. Publishers answering 403 or 429 are retried once
via Unpaywall using the work's DOI.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().Int("pages", 0, "override the configured page count")
	crawlCmd.Flags().Int("workers", 0, "override the configured worker count")

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if pages, _ := cmd.Flags().GetInt("pages"); pages > 0 {
		cfg.Pages = pages
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Workers = workers
	}

	oa := openalex.NewClient(cfg)
	oa.Log = os.Stdout

	fetcher := download.NewFetcher()
	fetcher.Log = os.Stdout

	c := &crawl.Crawler{
		OpenAlex:  oa,
		Unpaywall: unpaywall.NewClient(cfg.UnpaywallAPI, cfg.Email),
		Fetcher:   fetcher,
		Config:    cfg,
		Log:       os.Stdout,
	}

	if cfg.CatalogPath != "" {
		store, err := catalog.Open(cfg.CatalogPath)
		if err != nil {
			return err
		}
		defer store.Close()
		c.Catalog = store
	}

	summary, err := c.Run(context.Background())
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d download(s) failed", summary.Failed)
	}
	return nil
}
