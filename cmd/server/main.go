// Package main is the entry point for the llm-bridge gateway.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/llmbridge/llm-bridge/internal/adapter"
	"github.com/llmbridge/llm-bridge/internal/config"
	"github.com/llmbridge/llm-bridge/internal/domain"
	"github.com/llmbridge/llm-bridge/internal/executor"
	"github.com/llmbridge/llm-bridge/internal/handler"
	"github.com/llmbridge/llm-bridge/internal/security"
	"github.com/llmbridge/llm-bridge/internal/ui"
)

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging)
	logger.Info("starting llm-bridge",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.Int("providers", len(cfg.EnabledProviders())),
	)

	// Build one adapter per enabled provider; the rotation and the
	// executor registry are derived from the same set.
	providers := make(map[string]adapter.Provider)
	names := make([]string, 0, len(cfg.EnabledProviders()))
	for _, p := range cfg.EnabledProviders() {
		providers[p.Name] = buildProvider(p)
		names = append(names, p.Name)
		ui.PrintProviderReady(p.Name, p.Model)
	}

	cooldown := time.Duration(cfg.Gateway.CooldownSeconds) * time.Second
	rotation := domain.NewRotation(names, cooldown)

	runner := executor.NewRunner(providers,
		executor.WithDefaultProvider(defaultProviderName(cfg, names)),
		executor.WithLogger(logger),
	)

	bridge := handler.NewBridgeHandler(providers, rotation, runner,
		handler.WithMaxAttempts(cfg.Gateway.MaxAttempts),
		handler.WithLogger(logger),
	)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(handler.RecoveryMiddleware(logger))
	router.Use(handler.CORSMiddleware())
	router.Use(handler.RequestIDMiddleware())
	router.Use(handler.LoggingMiddleware(logger))

	router.POST("/v1/chat", bridge.HandleChat)
	router.POST("/v1/plans", bridge.HandlePlan)
	router.GET("/v1/providers", bridge.HandleProviders)
	router.GET("/health", bridge.HandleHealth)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	ui.PrintBanner(addr, len(providers))

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		logger.Info("server starting", slog.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		case <-ctx.Done():
			return nil
		}

		shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		ui.PrintError(err.Error())
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
	ui.PrintBridgeInfo("server stopped")
}

// buildProvider constructs the adapter matching the provider's type.
// Configuration is validated by the config layer before this point.
func buildProvider(p config.ProviderConfig) adapter.Provider {
	cfg := adapter.Config{
		APIKey:      p.APIKey,
		Model:       p.Model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}

	var opts []adapter.Option
	if p.BaseURL != "" {
		opts = append(opts, adapter.WithBaseURL(p.BaseURL))
	}
	if p.TimeoutSeconds > 0 {
		opts = append(opts, adapter.WithTimeout(time.Duration(p.TimeoutSeconds)*time.Second))
	}

	switch p.Type {
	case domain.ProviderOpenAI:
		return adapter.NewOpenAIAdapter(cfg, opts...)
	default:
		return adapter.NewAnthropicAdapter(cfg, opts...)
	}
}

// defaultProviderName resolves the executor's default provider: the
// configured one, or the first registered when none is set.
func defaultProviderName(cfg *config.Configuration, names []string) string {
	if cfg.Gateway.DefaultProvider != "" {
		return cfg.Gateway.DefaultProvider
	}
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

// setupLogger creates the structured logger: JSON or text per config,
// wrapped in the redaction handler so credentials never reach the sink.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	out := os.Stdout
	if cfg.OutputPath != "" {
		if f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			out = f
		} else {
			fmt.Fprintf(os.Stderr, "cannot open log file %s, falling back to stdout: %v\n", cfg.OutputPath, err)
		}
	}

	opts := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	if cfg.Format == "text" {
		inner = slog.NewTextHandler(out, opts)
	} else {
		inner = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(security.NewRedactedHandler(inner))
	slog.SetDefault(logger)

	return logger
}
