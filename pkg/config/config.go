// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads server configuration from tabular.yaml and
// TABULAR_* environment variables, with the environment winning.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int `mapstructure:"port"`

	// DataDir holds the persisted rules and autocomplete lists.
	DataDir string `mapstructure:"data_dir"`

	// LLMBackend selects the chat backend: "openai" or "disabled".
	LLMBackend string `mapstructure:"llm_backend"`

	// SessionTTLMinutes is how long an idle session survives.
	SessionTTLMinutes int `mapstructure:"session_ttl_minutes"`

	// SweepIntervalMinutes is how often idle sessions are collected.
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes"`

	// MaxUploadMB caps the size of uploaded spreadsheets.
	MaxUploadMB int `mapstructure:"max_upload_mb"`
}

// Load reads tabular.yaml from the working directory or /etc/tabular,
// then applies TABULAR_* environment overrides (TABULAR_PORT,
// TABULAR_DATA_DIR, ...). A missing config file is not an error.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("tabular")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/tabular")

	v.SetDefault("port", 8080)
	v.SetDefault("data_dir", "data")
	v.SetDefault("llm_backend", "disabled")
	v.SetDefault("session_ttl_minutes", 120)
	v.SetDefault("sweep_interval_minutes", 10)
	v.SetDefault("max_upload_mb", 32)

	v.SetEnvPrefix("TABULAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		slog.Info("no tabular.yaml found, using defaults and environment")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
