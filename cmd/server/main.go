package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golazo/once-server-go/internal/auth"
	"github.com/golazo/once-server-go/internal/config"
	"github.com/golazo/once-server-go/internal/directory"
	"github.com/golazo/once-server-go/internal/game"
	"github.com/golazo/once-server-go/internal/metrics"
	"github.com/golazo/once-server-go/internal/roles"
	"github.com/golazo/once-server-go/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting Once server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Validate the role mapping table before accepting any session
	normalizer, err := roles.NewNormalizer(roles.DefaultTable(), logger)
	if err != nil {
		logger.Fatal("invalid role mapping table", zap.Error(err))
	}

	// Collaborators: Postgres when configured, otherwise the built-in
	// in-memory dataset so the server runs standalone.
	var (
		manager *game.Manager
		creds   directory.CredentialStore
	)
	if cfg.Database.Host != "" {
		pg, pgErr := directory.NewPostgres(ctx, cfg.Database, logger)
		if pgErr != nil {
			logger.Fatal("failed to connect to database", zap.Error(pgErr))
		}
		defer pg.Close()

		manager = game.NewManager(pg, pg, pg, pg, normalizer, logger)
		creds = pg
	} else {
		logger.Info("no database configured, using built-in dataset")
		mem := directory.NewMemory(logger)
		manager = game.NewManager(mem, mem, mem, mem, normalizer, logger)
		creds = mem
	}
	logger.Info("session manager initialized")

	// Initialize auth token store
	tokenStore := auth.NewTokenStore(cfg.Auth.TokenTTL)
	go tokenStore.CleanupExpired(ctx)
	logger.Info("auth token store initialized",
		zap.Duration("token_ttl", cfg.Auth.TokenTTL),
	)

	m := metrics.New()

	srv := server.New(cfg, manager, tokenStore, creds, m, version, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server
	go func() {
		logger.Info("starting HTTP server", zap.String("address", cfg.Server.Address))
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(serveErr))
		}
	}()

	logger.Info("Once server initialized",
		zap.String("version", version),
		zap.String("address", cfg.Server.Address),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	logger.Info("shutting down gracefully...")
	cancel()

	// Discard all active sessions
	manager.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("Once server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
