package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunkdoc/chunkdoc/pkg/types"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1000, cfg.MaxChunkLines)
	assert.Equal(t, 300, cfg.MinChunkLines)
	assert.Equal(t, 50, cfg.OverlapLines)
	assert.Equal(t, 5, cfg.Workers)
	assert.True(t, cfg.StoreSource())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero max", func(c *Config) { c.MaxChunkLines = 0 }, "must be positive"},
		{"negative overlap", func(c *Config) { c.OverlapLines = -1 }, "must be positive"},
		{"min not below max", func(c *Config) { c.MinChunkLines = c.MaxChunkLines }, "less than max_chunk_lines"},
		{"overlap not below min", func(c *Config) { c.OverlapLines = c.MinChunkLines }, "less than min_chunk_lines"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers must be positive"},
		{"unknown unit kind", func(c *Config) { c.UnitKinds = []string{"lambda"} }, "unknown unit kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var planErr *types.PlanningError
			require.ErrorAs(t, err, &planErr)
			assert.Contains(t, planErr.Msg, tt.errMsg)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"max_chunk_lines": 800,
		"min_chunk_lines": 200,
		"cache_path": "/tmp/chunks.db",
		"store_source_code": false,
		"provider": "anthropic",
		"unit_kinds": ["function", "class"]
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.MaxChunkLines)
	assert.Equal(t, 200, cfg.MinChunkLines)
	// Unset fields keep their defaults.
	assert.Equal(t, 50, cfg.OverlapLines)
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, "/tmp/chunks.db", cfg.CachePath)
	assert.False(t, cfg.StoreSource())
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, []types.UnitKind{types.UnitFunction, types.UnitClass}, cfg.Kinds())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CHUNKDOC_MAX_CHUNK_LINES", "600")
	t.Setenv("CHUNKDOC_MIN_CHUNK_LINES", "150")
	t.Setenv("CHUNKDOC_OVERLAP_LINES", "25")
	t.Setenv("CHUNKDOC_WORKERS", "8")
	t.Setenv("CHUNKDOC_CACHE_PATH", "/var/cache/chunks.db")
	t.Setenv("CHUNKDOC_STORE_SOURCE_CODE", "false")
	t.Setenv("CHUNKDOC_PROVIDER", "OpenAI")
	t.Setenv("CHUNKDOC_MODEL", "gpt-4o-mini")
	t.Setenv("CHUNKDOC_UNIT_KINDS", "function, async_function")
	t.Setenv("CHUNKDOC_LOG_LEVEL", "DEBUG")

	cfg := FromEnv()
	assert.Equal(t, 600, cfg.MaxChunkLines)
	assert.Equal(t, 150, cfg.MinChunkLines)
	assert.Equal(t, 25, cfg.OverlapLines)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "/var/cache/chunks.db", cfg.CachePath)
	assert.False(t, cfg.StoreSource())
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, []string{"function", "async_function"}, cfg.UnitKinds)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_IgnoresUnparsableInts(t *testing.T) {
	t.Setenv("CHUNKDOC_MAX_CHUNK_LINES", "many")
	cfg := FromEnv()
	assert.Equal(t, DefaultMaxChunkLines, cfg.MaxChunkLines)
}

func TestKinds_DefaultsToAll(t *testing.T) {
	cfg := Default()
	assert.Equal(t, types.DefaultUnitKinds(), cfg.Kinds())
}
