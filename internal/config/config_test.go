package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.HTTP.Port)
	assert.Equal(t, defaultReadTimeout, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 4, cfg.Ingest.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Ingest.BaseDelay)
	assert.Equal(t, 3*time.Second, cfg.Generator.DefaultInterval)
	assert.Equal(t, 1, cfg.Generator.MaxInFlightTicks)
	assert.Equal(t, defaultEventChannel, cfg.Redis.EventChannel)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("INGEST_MAX_ATTEMPTS", "6")
	t.Setenv("GENERATOR_DEFAULT_INTERVAL", "750ms")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.HTTP.Port)
	assert.Equal(t, 6, cfg.Ingest.MaxAttempts)
	assert.Equal(t, 750*time.Millisecond, cfg.Generator.DefaultInterval)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bizflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_port: 7070\ngraph_uri: bolt://graph:7687\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.HTTP.Port)
	assert.Equal(t, "bolt://graph:7687", cfg.Graph.URI)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"bad port":         {"SERVER_PORT", "http"},
		"port range":       {"SERVER_PORT", "70000"},
		"bad duration":     {"INGEST_BASE_DELAY", "soon"},
		"no attempts":      {"INGEST_MAX_ATTEMPTS", "0"},
		"no tick capacity": {"GENERATOR_MAX_IN_FLIGHT_TICKS", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load("")
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
