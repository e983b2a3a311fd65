package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1992, cfg.StartYear)
	assert.Equal(t, 2022, cfg.EndYear)
	assert.Equal(t, 0.5, cfg.RequestsPerSecond)
	assert.Equal(t, 24*time.Hour, cfg.PageCacheTTL)
	assert.Equal(t, "data/players.db", cfg.PlayerDB)
	assert.Equal(t, 20, cfg.MinHistory)
	assert.Equal(t, "8080", cfg.HTTPPort)

	// The shipped override list covers the known encoding defect.
	assert.Equal(t, "Peja Stojaković", cfg.NameOverrides["Peja StojakoviÄ"])
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NBASTATS_DATA_DIR", "/tmp/elsewhere")
	t.Setenv("NBASTATS_MIN_HISTORY", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/elsewhere", cfg.DataDir)
	assert.Equal(t, 5, cfg.MinHistory)
}
