// Copyright 2025 Copyforge Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/your-org/copyforge/internal/config"
	"github.com/your-org/copyforge/internal/generator"
	"github.com/your-org/copyforge/internal/health"
	"github.com/your-org/copyforge/internal/history"
	"github.com/your-org/copyforge/internal/llm"
	"github.com/your-org/copyforge/internal/store"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "copyforge",
		Short: "Product copy generation service",
		Long:  "Copyforge turns merchant product data into marketing copy via a text-generation API, with caching, rate limiting, and monthly quota enforcement.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(configPath)
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "copyforge: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initializeLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	masked := cfg.MaskSensitiveValues()
	logger.Info("Configuration loaded",
		zap.String("service", "copyforge"),
		zap.String("upstream_base_url", masked.Upstream.BaseURL),
		zap.String("upstream_api_key", masked.Upstream.APIKey),
		zap.String("model", masked.Upstream.Model),
		zap.Int("rate_limit_per_minute", masked.Limits.PerMinute),
		zap.Int("monthly_limit", masked.Limits.Monthly),
		zap.String("redis_url", masked.Store.RedisURL),
		zap.String("listen_addr", masked.Server.ListenAddr),
	)

	if cfg.Upstream.APIKey == "" {
		logger.Warn("No upstream API key configured; generation will fail until one is set")
	}

	kv, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	completer := llm.NewClient(llm.Options{
		BaseURL:     cfg.Upstream.BaseURL,
		APIKey:      cfg.Upstream.APIKey,
		Model:       cfg.Upstream.Model,
		MaxTokens:   cfg.Upstream.MaxTokens,
		Temperature: float32(cfg.Upstream.Temperature),
	}, logger)

	// History is a convenience; a broken db is not fatal
	hist, err := history.NewStore(cfg.History.DBPath, cfg.History.MaxEntries)
	if err != nil {
		logger.Warn("History store unavailable, generations will not be recorded",
			zap.String("db_path", cfg.History.DBPath),
			zap.Error(err))
		hist = nil
	} else {
		defer func() { _ = hist.Close() }()
	}

	svc := generator.New(cfg, kv, completer, hist, logger)

	healthMgr := health.NewManager("copyforge", logger)
	healthMgr.RegisterOptional("store", health.CheckFunc(func(ctx context.Context) error {
		if !kv.Available(ctx) {
			return fmt.Errorf("store unavailable")
		}
		return nil
	}))
	if hist != nil {
		healthMgr.RegisterOptional("history", health.CheckFunc(func(_ context.Context) error {
			return hist.Ping()
		}))
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	registerRoutes(router, svc, hist, healthMgr, logger)

	logger.Info("Starting server", zap.String("addr", cfg.Server.ListenAddr))
	return router.Run(cfg.Server.ListenAddr)
}

// buildStore picks the Redis backend when a URL is configured and the
// in-memory fallback otherwise. Redis construction only validates the
// URL; the connection itself is established lazily on first use.
func buildStore(cfg *config.Config, logger *zap.Logger) (store.Store, error) {
	if cfg.Store.RedisURL == "" {
		logger.Info("No redis URL configured, using in-memory store")
		return store.NewMemoryStore(), nil
	}

	kv, err := store.NewRedisStore(cfg.Store.RedisURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure redis store: %w", err)
	}
	return kv, nil
}

func initializeLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	if cfg.Logging.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	switch cfg.Logging.Level {
	case "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return zapConfig.Build()
}
