// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/oa-harvester/internal/secrets"
	"github.com/pdiddy/oa-harvester/pkg/types"
)

// loadConfig reads and validates the run configuration. A missing or
// malformed config file is fatal here, before any network activity.
func loadConfig() (types.Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		return types.Config{}, fmt.Errorf("configuration file not found or unreadable: %w", err)
	}

	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("parsing configuration: %w", err)
	}

	cfg.Email = secrets.Email(cfg.Email, loadedSecrets)

	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}
