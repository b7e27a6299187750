package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assetledger/config"
	"assetledger/core/host"
	"assetledger/observability"
	"assetledger/observability/logging"
	telemetry "assetledger/observability/otel"
	"assetledger/rpc"
	"assetledger/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	logger := logging.Setup("ledgerd", cfg.Environment, cfg.LogLevel)

	telemetryCfg := telemetry.FromEnv("ledgerd", cfg.Environment, nil)
	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetryCfg)
	if err != nil {
		logger.Error("Failed to init telemetry", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.Any("error", err))
		}
	}()
	if telemetryCfg.Traces {
		logger.Info("OTLP export enabled", slog.String("endpoint", telemetryCfg.Endpoint))
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		panic(fmt.Sprintf("Failed to prepare data directory: %v", err))
	}
	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	chain, err := host.NewChain(db)
	if err != nil {
		panic(fmt.Sprintf("Failed to open chain: %v", err))
	}
	chain.SetLogger(logger)
	chain.SetLimits(host.Limits{
		MaxCallDepth:     cfg.Host.MaxCallDepth,
		MaxEventsPerCall: cfg.Host.MaxEventsPerCall,
	})
	chain.SetMetrics(observability.HostMetrics())

	if err := registerCodes(chain); err != nil {
		logger.Error("Failed to register contract codes", slog.Any("error", err))
		os.Exit(1)
	}
	if err := bootstrap(chain, cfg, logger); err != nil {
		logger.Error("Failed to bootstrap ledger", slog.Any("error", err))
		os.Exit(1)
	}

	server := rpc.NewServer(chain, rpc.ServerConfig{
		AuthToken: cfg.RPCAuthToken,
		Logger:    logger,
	})
	if cfg.RPCAuthToken == "" {
		logger.Warn("RPC auth token not configured; deploy and update are open")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", cfg.RPCAddress)
	if err != nil {
		logger.Error("Failed to listen", slog.String("address", cfg.RPCAddress), slog.Any("error", err))
		os.Exit(1)
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("JSON-RPC server stopped", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown failed", slog.Any("error", err))
	}
}
