// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/oa-harvester/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the acquisition catalog",
	Long: `Catalog prints the SQLite record of every downloaded PDF, newest first.
Use --source to filter by acquisition route (openalex or unpaywall).`,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().String("source", "", "filter by acquisition source (openalex, unpaywall)")
	catalogCmd.Flags().Int("limit", 0, "maximum number of rows to show (0 = all)")

	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.CatalogPath == "" {
		return fmt.Errorf("catalog_path is not configured")
	}

	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(context.Background(), source, limit)
	if err != nil {
		return err
	}

	catalog.FormatTable(records, os.Stdout)
	return nil
}
