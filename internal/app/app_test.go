package app

import (
	"testing"
	"time"

	"github.com/JonMunkholm/scanmaster/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			URL:            "postgres://scan:secret@db:5432/lecturas",
			MinConns:       1,
			MaxConns:       3,
			AcquireTimeout: 5 * time.Second,
			RetryBackoff:   200 * time.Millisecond,
		},
		Import: config.ImportConfig{MaxConcurrent: 2, MaxWait: time.Second, Timeout: time.Minute, LogEvery: 50},
		Export: config.ExportConfig{Timezone: "UTC"},
	}
}

func TestPoolConfig(t *testing.T) {
	pc := PoolConfig(testConfig())

	assert.Equal(t, 1, pc.MinSize)
	assert.Equal(t, 3, pc.MaxSize)
	assert.Equal(t, 5*time.Second, pc.AcquireTimeout)
	assert.NoError(t, pc.Validate())
}

func TestServiceOptions(t *testing.T) {
	opts, err := ServiceOptions(testConfig())
	require.NoError(t, err)

	assert.Equal(t, "UTC", opts.Location.String())
	assert.Equal(t, time.Minute, opts.ImportTimeout)
	assert.Equal(t, 50, opts.ImportLogEvery)
	require.NotNil(t, opts.ImportLimiter)
	assert.Equal(t, 2, opts.ImportLimiter.Status().MaxConcurrent)
}

func TestServiceOptions_BadZone(t *testing.T) {
	cfg := testConfig()
	cfg.Export.Timezone = "Nowhere/Special"

	_, err := ServiceOptions(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export timezone")
}

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "lecturas", databaseName("postgres://scan:secret@db:5432/lecturas"))
	assert.Equal(t, "", databaseName("postgres://db:5432"))
	assert.Equal(t, "", databaseName("::not a url"))
}
