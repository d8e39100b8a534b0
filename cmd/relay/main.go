package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/izzddalfk/tgrelay/internal/relay/config"
	"github.com/izzddalfk/tgrelay/internal/relay/core"
	"github.com/izzddalfk/tgrelay/internal/relay/infra/metricscollector"
	"github.com/izzddalfk/tgrelay/internal/relay/infra/telegram"
	"github.com/izzddalfk/tgrelay/internal/relay/presentation/rest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := setupLogger(cfg.ApplicationConfig.LogLevel)

	if cfg.IsOpenRelay() {
		logger.WarnContext(ctx, "SECRET_TOKEN is not set, relay accepts requests from any caller")
	}

	deps, err := initializeDependencies(cfg, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Cleanup()

	relayService, err := core.NewService(core.ServiceConfig{
		Sender:      deps.Sender,
		Metrics:     deps.Metrics,
		Logger:      logger,
		SecretToken: cfg.ApplicationConfig.SecretToken,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize relay service", "error", err)
		os.Exit(1)
	}

	if cfg.ApplicationConfig.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	serverConfig := rest.ServerConfig{
		RelayService: relayService,
		Logger:       logger,
		Address:      cfg.ServerConfig.Address(),
		RelayPath:    cfg.ServerConfig.RelayPath,
		ReadTimeout:  cfg.ServerConfig.ReadTimeout(),
		WriteTimeout: cfg.ServerConfig.WriteTimeout(),
		Gatherer:     deps.Registry,
	}
	if deps.SQLite != nil {
		serverConfig.Stats = deps.SQLite
	}

	httpServer, err := rest.NewServer(serverConfig)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create HTTP server", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Starting Telegram relay",
		"port", cfg.ServerConfig.Port,
		"telegram_base_url", cfg.ApplicationConfig.TelegramBaseURL,
		"metrics_db_enabled", deps.SQLite != nil,
	)

	// blocks until shutdown
	if err := httpServer.Start(ctx); err != nil {
		logger.ErrorContext(ctx, "Server error", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Application shutdown completed")
}

// Dependencies holds all initialized dependencies
type Dependencies struct {
	Sender   core.MessageSender
	Metrics  core.MetricsCollector
	Registry *prometheus.Registry
	SQLite   *metricscollector.SQLiteCollector
}

// Cleanup closes resources that need explicit cleanup
func (d *Dependencies) Cleanup() {
	if d.SQLite != nil {
		d.SQLite.Close()
	}
}

// setupLogger creates and configures the logger
func setupLogger(logLevel string) *slog.Logger {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Use JSON handler
	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(logger)

	return logger
}

// initializeDependencies initializes all external dependencies
func initializeDependencies(cfg *config.Configs, logger *slog.Logger) (*Dependencies, error) {
	sender, err := telegram.NewClient(telegram.ClientConfig{
		BaseURL: cfg.ApplicationConfig.TelegramBaseURL,
		Timeout: cfg.UpstreamTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram client: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promCollector, err := metricscollector.NewPrometheusCollector(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus collector: %w", err)
	}

	deps := &Dependencies{
		Sender:   sender,
		Registry: registry,
	}
	collectorsChain := metricscollector.Multi{promCollector}

	if cfg.MetricsDBEnabled() {
		sqliteCollector, err := metricscollector.NewSQLiteCollector(cfg.ApplicationConfig.MetricsDBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize metrics collector: %w", err)
		}
		deps.SQLite = sqliteCollector
		collectorsChain = append(collectorsChain, sqliteCollector)
	}
	deps.Metrics = collectorsChain

	return deps, nil
}
