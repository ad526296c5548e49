package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/rostersim/internal/sim"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 0, cfg.Seed)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, DefaultDBPath(), cfg.DBPath)

	r, err := cfg.Rules()
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultRules(), r)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ROSTERSIM_DB", "/tmp/x.db")
	t.Setenv("ROSTERSIM_SEED", "42")
	t.Setenv("ROSTERSIM_TRADE_WINDOW", "1.5")
	t.Setenv("ROSTERSIM_CLUTCH_MIN_ENEMIES", "1")
	t.Setenv("ROSTERSIM_MAX_ROUNDS", "40")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, 42, cfg.Seed)

	r, err := cfg.Rules()
	require.NoError(t, err)
	assert.Equal(t, 1.5, r.TradeWindow)
	assert.Equal(t, 1, r.ClutchMinEnemies)
	assert.Equal(t, 40, r.MaxRounds)
}

func TestLoad_BadValue(t *testing.T) {
	t.Setenv("ROSTERSIM_WORKERS", "many")
	_, err := Load()
	assert.Error(t, err)
}

func TestRules_Invalid(t *testing.T) {
	t.Setenv("ROSTERSIM_MAX_ROUNDS", "10")
	cfg, err := Load()
	require.NoError(t, err)
	_, err = cfg.Rules()
	assert.ErrorIs(t, err, sim.ErrBadRules)
}

func TestRules_OddRoundCap(t *testing.T) {
	t.Setenv("ROSTERSIM_MAX_ROUNDS", "25")
	cfg, err := Load()
	require.NoError(t, err)
	_, err = cfg.Rules()
	assert.ErrorIs(t, err, sim.ErrBadRules)
}
