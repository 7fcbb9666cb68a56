package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/vegaslive/server/internal/server"
	"github.com/vegaslive/server/internal/store"
)

// ServeCmd runs the WebSocket game server
type ServeCmd struct {
	Config string `kong:"default='vegaslive.hcl',help='Path to HCL configuration file'"`
	Addr   string `kong:"help='Listen address, overrides the config file'"`
	Redis  string `kong:"help='Redis address, overrides the config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Redis != "" {
		if cfg.Redis == nil {
			cfg.Redis = &server.RedisSettings{Prefix: "vegaslive"}
		}
		cfg.Redis.Address = c.Redis
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(c.Debug, cfg.Server.LogLevel)

	addr := cfg.GetServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	srv := server.NewServer(addr, logger)
	svc := server.NewGameService(cfg.GameConfig(), srv, st, quartz.NewReal(), logger)
	srv.SetGameService(svc)

	if err := svc.SeedBots(cfg.Table.Bots); err != nil {
		return fmt.Errorf("seed bots: %w", err)
	}

	logger.Info("Starting Las Vegas Live server",
		"addr", addr,
		"betFloor", cfg.Table.BetFloor,
		"betCap", cfg.Table.BetCap,
		"totalCards", cfg.Table.TotalCards,
		"handSize", cfg.Table.HandSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		return srv.Stop()
	})
	return g.Wait()
}

func openStore(cfg *server.ServerConfig, logger *log.Logger) (store.Store, error) {
	if cfg.Redis == nil {
		logger.Info("Using in-memory store")
		return store.NewMemoryStore(), nil
	}

	rs := store.NewRedisStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rs.Ping(ctx); err != nil {
		return nil, fmt.Errorf("redis at %s: %w", cfg.Redis.Address, err)
	}
	logger.Info("Using Redis store", "addr", cfg.Redis.Address, "prefix", cfg.Redis.Prefix)
	return rs, nil
}

func setupLogger(debug bool, level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	switch {
	case debug:
		logger.SetLevel(log.DebugLevel)
	default:
		if parsed, err := log.ParseLevel(level); err == nil {
			logger.SetLevel(parsed)
		}
	}
	return logger
}
