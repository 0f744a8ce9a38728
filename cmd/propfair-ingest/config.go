package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lhgjose/propfair/internal/config"
)

// configFile is the optional YAML config. Environment variables win
// over file values; flags win over both.
type configFile struct {
	DatabaseURL string `yaml:"database_url"`
	LogLevel    string `yaml:"log_level"`
	OpsAddr     string `yaml:"ops_addr"`
}

func resolveConfig(path string) (*config.Config, error) {
	var file configFile

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg := &config.Config{
		DatabaseURL: config.Secret(firstNonEmpty(os.Getenv("DATABASE_URL"), file.DatabaseURL)),
		LogLevel:    firstNonEmpty(os.Getenv("LOG_LEVEL"), file.LogLevel, "info"),
		OpsAddr:     firstNonEmpty(os.Getenv("OPS_ADDR"), file.OpsAddr),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}

	return ""
}
