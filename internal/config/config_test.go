package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "ads.db", cfg.Database.Path)
	assert.Equal(t, TransportHTTP, cfg.LLM.Transport)
	assert.Equal(t, 300*time.Second, cfg.LLM.Timeout())
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.GetServerAddr())
	assert.Empty(t, cfg.AMQP.URL)
	assert.True(t, cfg.App.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"DB_DRIVER":           "postgres",
		"DB_HOST":             "db",
		"DB_NAME":             "campaigns",
		"LLM_TRANSPORT":       "cli",
		"LLM_TIMEOUT_SECONDS": "60",
		"SERVER_PORT":         "9090",
	}))
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Contains(t, cfg.Database.GetDatabaseURL(), "host=db")
	assert.Contains(t, cfg.Database.GetDatabaseURL(), "dbname=campaigns")
	assert.Equal(t, TransportCLI, cfg.LLM.Transport)
	assert.Equal(t, time.Minute, cfg.LLM.Timeout())
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.GetServerAddr())
}

func TestLoadRejectsUnknownValues(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{"DB_DRIVER": "mongo"}))
		assert.ErrorContains(t, err, "DB_DRIVER")
	})

	t.Run("transport", func(t *testing.T) {
		_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{"LLM_TRANSPORT": "grpc"}))
		assert.ErrorContains(t, err, "LLM_TRANSPORT")
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{"LLM_TIMEOUT_SECONDS": "0"}))
		assert.ErrorContains(t, err, "LLM_TIMEOUT_SECONDS")
	})
}
