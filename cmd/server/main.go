package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/ethflow/rpc-gateway/internal/config"
	"github.com/ethflow/rpc-gateway/internal/pool"
	"github.com/ethflow/rpc-gateway/internal/registry"
	"github.com/ethflow/rpc-gateway/internal/relay"
	"github.com/ethflow/rpc-gateway/internal/repository"
	"github.com/ethflow/rpc-gateway/internal/services"
	"github.com/ethflow/rpc-gateway/internal/store"
	"github.com/ethflow/rpc-gateway/internal/usage"
	"github.com/ethflow/rpc-gateway/pkg/server"
)

func main() {
	var envFile = flag.String("env", "", "Optional .env file to load")
	var compareMode = flag.Bool("compare", false, "Verify primary results against the backup endpoint")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize database
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Log startup event
	db.Event("info", "startup", "Gateway starting", map[string]interface{}{
		"http_addr": cfg.HTTPAddr,
		"networks":  cfg.AllowedNetworks,
		"db_path":   cfg.DBPath,
	})

	repo := repository.NewSQLiteRepository(db)
	reg := registry.New(cfg.APITokens)
	ledger := usage.NewLedger(cfg.RetentionUnits)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Endpoint provisioning: mirror the external provisioner over NATS when
	// configured, otherwise serve the static set from config.
	var source pool.Source
	if cfg.NatsURL != "" {
		conn, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			db.Event("error", "nats.failed", "NATS connection failed", map[string]interface{}{
				"nats_url": cfg.NatsURL,
				"error":    err.Error(),
			})
			slog.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		natsSource := services.NewNATSSource(conn)
		go func() {
			if err := natsSource.Start(ctx, cfg.HeartbeatInterval); err != nil {
				slog.Error("Provisioning source failed", "error", err)
			}
		}()
		source = natsSource
		slog.Info("Using NATS provisioning source", "nats_url", cfg.NatsURL)
	} else {
		source = services.NewStaticSource(cfg.PoolEndpoints)
		slog.Info("Using static endpoint pool", "endpoints", len(source.Endpoints()))
	}

	backendPool := pool.New(source)
	rpcRelay := relay.New(cfg.RelayTimeout)

	gateway := services.NewGateway(cfg, reg, ledger, backendPool, rpcRelay, repo.Request())
	if *compareMode {
		gateway.SetCompareStrategy(services.NewBackupCompare(rpcRelay, cfg.BackupEndpoints))
		slog.Info("Comparison mode enabled")
	}

	// Chain monitor probes ready endpoints between requests
	monitor := services.NewChainMonitor(source, cfg.CheckInterval, cfg.ProbeTimeout)
	go func() {
		if err := monitor.Start(ctx); err != nil {
			slog.Error("Chain monitor failed", "error", err)
		}
	}()

	httpServer := server.NewServer(cfg.HTTPAddr, gateway, reg, repo)

	db.Event("info", "server.ready", "Gateway ready to accept requests", map[string]interface{}{
		"http_addr": cfg.HTTPAddr,
		"clients":   reg.Len(),
	})

	go func() {
		if err := httpServer.Start(ctx); err != nil {
			db.Event("error", "http.failed", "HTTP server failed", map[string]interface{}{
				"error": err.Error(),
			})
			slog.Error("HTTP server failed", "error", err)
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	db.Event("info", "shutdown", "Gateway shutting down", nil)
	slog.Info("Shutting down gateway")
}
