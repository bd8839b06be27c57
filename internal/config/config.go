// Package config holds the recognized configuration surface and its
// validation rules. Values come from defaults, an optional JSON file, and
// CHUNKDOC_* environment overrides, in that precedence order.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chunkdoc/chunkdoc/pkg/types"
)

// Defaults. The chunk size ceiling keeps each remote call inside the
// generation service's wall-clock limit; 2000/500 proved too slow in
// production, hence the reduced values.
const (
	DefaultMaxChunkLines = 1000
	DefaultMinChunkLines = 300
	DefaultOverlapLines  = 50
	DefaultWorkers       = 5
)

// Config is the full configuration surface.
type Config struct {
	// Chunking
	MaxChunkLines int      `json:"max_chunk_lines"`
	MinChunkLines int      `json:"min_chunk_lines"`
	OverlapLines  int      `json:"overlap_lines"`
	UnitKinds     []string `json:"unit_kinds,omitempty"` // empty = all kinds

	// Cache
	CachePath       string `json:"cache_path,omitempty"` // empty = in-memory cache
	StoreSourceCode *bool  `json:"store_source_code,omitempty"`

	// Generation
	Provider string `json:"provider,omitempty"` // anthropic | openai | static
	Model    string `json:"model,omitempty"`
	Workers  int    `json:"workers"`

	// Logging
	LogLevel string `json:"log_level,omitempty"`
}

// Default returns the configuration with all defaults applied.
func Default() *Config {
	storeSource := true
	return &Config{
		MaxChunkLines:   DefaultMaxChunkLines,
		MinChunkLines:   DefaultMinChunkLines,
		OverlapLines:    DefaultOverlapLines,
		Workers:         DefaultWorkers,
		StoreSourceCode: &storeSource,
		LogLevel:        "info",
	}
}

// Load reads a JSON config file over the defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	cfg := Default()
	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyFallbacks()
	return cfg, nil
}

// FromEnv returns the defaults with CHUNKDOC_* environment overrides.
func FromEnv() *Config {
	cfg := Default()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overlays environment overrides onto the receiver.
func (c *Config) ApplyEnv() {
	if v, ok := envInt("CHUNKDOC_MAX_CHUNK_LINES"); ok {
		c.MaxChunkLines = v
	}
	if v, ok := envInt("CHUNKDOC_MIN_CHUNK_LINES"); ok {
		c.MinChunkLines = v
	}
	if v, ok := envInt("CHUNKDOC_OVERLAP_LINES"); ok {
		c.OverlapLines = v
	}
	if v, ok := envInt("CHUNKDOC_WORKERS"); ok {
		c.Workers = v
	}
	if v := os.Getenv("CHUNKDOC_CACHE_PATH"); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv("CHUNKDOC_STORE_SOURCE_CODE"); v != "" {
		b := v == "1" || strings.EqualFold(v, "true")
		c.StoreSourceCode = &b
	}
	if v := os.Getenv("CHUNKDOC_PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("CHUNKDOC_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("CHUNKDOC_UNIT_KINDS"); v != "" {
		c.UnitKinds = splitList(v)
	}
	if v := os.Getenv("CHUNKDOC_LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

// Validate rejects invalid chunking configurations before any processing.
func (c *Config) Validate() error {
	if c.MaxChunkLines <= 0 || c.MinChunkLines <= 0 || c.OverlapLines <= 0 {
		return &types.PlanningError{Msg: "chunk line limits must be positive"}
	}
	if c.MinChunkLines >= c.MaxChunkLines {
		return &types.PlanningError{Msg: fmt.Sprintf(
			"min_chunk_lines (%d) must be less than max_chunk_lines (%d)",
			c.MinChunkLines, c.MaxChunkLines)}
	}
	if c.OverlapLines >= c.MinChunkLines {
		return &types.PlanningError{Msg: fmt.Sprintf(
			"overlap_lines (%d) must be less than min_chunk_lines (%d)",
			c.OverlapLines, c.MinChunkLines)}
	}
	if c.Workers <= 0 {
		return &types.PlanningError{Msg: "workers must be positive"}
	}
	for _, k := range c.UnitKinds {
		span := types.UnitSpan{Kind: types.UnitKind(k)}
		if err := span.ValidateKind(); err != nil {
			return &types.PlanningError{Msg: "unknown unit kind: " + k}
		}
	}
	return nil
}

// StoreSource resolves the optional toggle to its effective value.
func (c *Config) StoreSource() bool {
	if c.StoreSourceCode == nil {
		return true
	}
	return *c.StoreSourceCode
}

// Kinds resolves unit_kinds to the typed set, defaulting to all kinds.
func (c *Config) Kinds() []types.UnitKind {
	if len(c.UnitKinds) == 0 {
		return types.DefaultUnitKinds()
	}
	kinds := make([]types.UnitKind, 0, len(c.UnitKinds))
	for _, k := range c.UnitKinds {
		kinds = append(kinds, types.UnitKind(k))
	}
	return kinds
}

func (c *Config) applyFallbacks() {
	if c.MaxChunkLines == 0 {
		c.MaxChunkLines = DefaultMaxChunkLines
	}
	if c.MinChunkLines == 0 {
		c.MinChunkLines = DefaultMinChunkLines
	}
	if c.OverlapLines == 0 {
		c.OverlapLines = DefaultOverlapLines
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
