// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/oa-harvester/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [dir]",
	Short: "Check downloaded PDFs for corruption",
	Long: `Verify walks a directory of downloaded PDFs and checks each file: it must
meet the minimum size, start with the PDF signature, and parse to at least
one page. Broken files are reported but never deleted.

Defaults to the configured output directory when no directory is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) == 1 {
		dir = args[0]
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.OutDir
	}

	report, err := verify.Scan(dir, os.Stdout)
	if err != nil {
		return err
	}
	if report.Broken > 0 {
		return fmt.Errorf("%d broken file(s) in %s", report.Broken, dir)
	}
	return nil
}
