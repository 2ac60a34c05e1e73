// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the oa-harvester CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/oa-harvester/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds values loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the oa-harvester CLI.
var rootCmd = &cobra.Command{
	Use:   "oa-harvester",
	Short: "Download open-access PDFs via OpenAlex and Unpaywall",
	Long: `oa-harvester retrieves open-access PDF links for scholarly works from the
OpenAlex API, falls back to Unpaywall when OpenAlex has no direct PDF link,
and downloads the files to local storage.

Two entry modes exist: crawl walks the filtered works listing and downloads
in parallel; lookup resolves papers from a CSV of PMIDs one row at a time.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./oa-harvester.yaml or ~/.config/oa-harvester/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("oa-harvester")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "oa-harvester"))
		}
	}

	viper.SetEnvPrefix("OA_HARVESTER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
