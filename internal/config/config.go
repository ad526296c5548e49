// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"

	"github.com/pable/rostersim/internal/sim"
)

// Config holds settings read from ROSTERSIM_* variables. Command-line flags
// override them where both exist.
type Config struct {
	DBPath    string `env:"ROSTERSIM_DB"`
	LogLevel  string `env:"ROSTERSIM_LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"ROSTERSIM_LOG_FORMAT" envDefault:"text"`
	// Seed zero means seed from the clock.
	Seed    int `env:"ROSTERSIM_SEED" envDefault:"0"`
	Workers int `env:"ROSTERSIM_WORKERS" envDefault:"4"`

	TradeWindow      float64 `env:"ROSTERSIM_TRADE_WINDOW" envDefault:"1.0"`
	ClutchMinEnemies int     `env:"ROSTERSIM_CLUTCH_MIN_ENEMIES" envDefault:"2"`
	MaxRounds        int     `env:"ROSTERSIM_MAX_ROUNDS" envDefault:"30"`
}

// Load parses the environment. An unset ROSTERSIM_DB resolves to
// ~/.rostersim/rostersim.db.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	return cfg, nil
}

// DefaultDBPath returns ~/.rostersim/rostersim.db, or a relative path when
// the home directory is unknown.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rostersim.db"
	}
	return filepath.Join(home, ".rostersim", "rostersim.db")
}

// Rules returns the default rules with the environment overrides applied.
// The result is validated.
func (c *Config) Rules() (sim.Rules, error) {
	r := sim.DefaultRules()
	r.TradeWindow = c.TradeWindow
	r.ClutchMinEnemies = c.ClutchMinEnemies
	r.MaxRounds = c.MaxRounds
	if err := r.Validate(); err != nil {
		return sim.Rules{}, err
	}
	return r, nil
}
