package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/meal-voucher/internal/config"
	"github.com/garyjia/meal-voucher/internal/container"
	httpapi "github.com/garyjia/meal-voucher/internal/interfaces/http"
	"github.com/garyjia/meal-voucher/pkg/utils"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "meal-voucher",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting meal voucher service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("enforce_single_open", cfg.Vouchers.EnforceSingleOpen))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}

	server := httpapi.NewServer(c.HTTPConfig(), c.HTTPServices(), c.HTTPLogger())

	// Start blocks until a signal arrives or the listener fails
	serveErr := server.Start(ctx)
	if serveErr != nil {
		logger.Error("HTTP server stopped with error", zap.Error(serveErr))
	}

	logger.Info("Shutting down...")
	if err := c.Close(); err != nil {
		logger.Error("Shutdown finished with errors", zap.Error(err))
	}

	if serveErr != nil {
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("Server exited successfully")
}
