package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chunkdoc/chunkdoc/internal/cache"
	"github.com/chunkdoc/chunkdoc/internal/config"
	"github.com/chunkdoc/chunkdoc/internal/generator"
	"github.com/chunkdoc/chunkdoc/internal/orchestrator"
	"github.com/chunkdoc/chunkdoc/internal/planner"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("chunkdoc\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("SQLite Build Mode: %s\n", cache.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", cache.DriverName)
		os.Exit(0)
	}

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "chunkdoc: %v\n", err)
		os.Exit(1)
	}
}

func run(files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("usage: chunkdoc <file>...")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	gateway, err := openGateway(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = gateway.Close() }()

	gen, err := generator.NewFromEnv()
	if err != nil {
		return err
	}
	defer func() { _ = gen.Close() }()

	orch, err := orchestrator.New(gateway, gen, orchestrator.Config{
		Limits: planner.Limits{
			MaxChunkLines: cfg.MaxChunkLines,
			MinChunkLines: cfg.MinChunkLines,
			OverlapLines:  cfg.OverlapLines,
		},
		UnitKinds:   cfg.Kinds(),
		Workers:     cfg.Workers,
		StoreSource: cfg.StoreSource(),
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		result, err := orch.Process(ctx, orchestrator.Document{
			Key:     path,
			Content: string(content),
		})
		if err != nil {
			return fmt.Errorf("process %s: %w", path, err)
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
		if !result.Succeeded() {
			logger.Warn("document completed with failed chunks",
				zap.String("document_key", path),
				zap.Int("failed", result.Stats.Failed))
		}
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if path := os.Getenv("CHUNKDOC_CONFIG"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		cfg.ApplyEnv()
	} else {
		cfg = config.FromEnv()
	}
	return cfg, nil
}

func openGateway(cfg *config.Config) (cache.Gateway, error) {
	if cfg.CachePath == "" {
		return cache.NewMemoryGateway(0, cfg.StoreSource()), nil
	}
	return cache.NewSQLiteGateway(cfg.CachePath, cfg.StoreSource())
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	// stdout carries results; logs go to stderr.
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}
