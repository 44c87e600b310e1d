// Package config loads CLI defaults from the environment.
package config

import (
	"fmt"
	"slices"

	"github.com/caarlos0/env/v11"
)

// Output formats accepted by GENERIC_FORMAT and --format.
var Formats = []string{"text", "json", "yaml"}

// Color modes accepted by GENERIC_COLOR.
var ColorModes = []string{"auto", "always", "never"}

// Config holds environment defaults. Command-line flags override them.
type Config struct {
	Format  string `env:"GENERIC_FORMAT" envDefault:"text"`
	DB      string `env:"GENERIC_DB" envDefault:"generic.db"`
	Verbose bool   `env:"GENERIC_VERBOSE"`
	Color   string `env:"GENERIC_COLOR" envDefault:"auto"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if !slices.Contains(Formats, cfg.Format) {
		return Config{}, fmt.Errorf("GENERIC_FORMAT: invalid format %q (must be one of %v)", cfg.Format, Formats)
	}
	if !slices.Contains(ColorModes, cfg.Color) {
		return Config{}, fmt.Errorf("GENERIC_COLOR: invalid mode %q (must be one of %v)", cfg.Color, ColorModes)
	}
	return cfg, nil
}
