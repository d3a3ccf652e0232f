package main

import (
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/hieu-lee/bluffpoker/cmd/bluffpoker/shared"
	"github.com/hieu-lee/bluffpoker/internal/randutil"
	"github.com/hieu-lee/bluffpoker/internal/server"
	"github.com/hieu-lee/bluffpoker/internal/session"
	"github.com/hieu-lee/bluffpoker/internal/userstore"
)

// ServerCmd runs the WebSocket game server.
type ServerCmd struct {
	Config string `kong:"default='bluffpoker.hcl',help='Path to HCL config file'"`
	Addr   string `kong:"help='Listen address, overrides the config file'"`
	DB     string `kong:"help='SQLite database path, overrides the config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *ServerCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.DB != "" {
		cfg.Server.DatabasePath = c.DB
	}
	if c.Seed != nil {
		cfg.Server.Seed = *c.Seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	addr := cfg.ListenAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	seed := cfg.Server.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Info("seeding RNG", "seed", seed)

	store, err := userstore.Open(cfg.Server.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	clock := quartz.NewReal()
	registry := session.NewRegistry(randutil.New(seed), clock, logger)
	registry.SetIdleTimeout(cfg.SessionIdleTimeout())

	service := server.NewService(registry, store, logger, seed, clock)
	srv := server.NewServer(addr, service, logger)

	logger.Info("starting bluffpoker server",
		"addr", addr,
		"database", cfg.Server.DatabasePath,
		"session_idle", cfg.SessionIdleTimeout())

	ctx := shared.SetupSignalHandler(logger)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)
	g.Go(func() error {
		registry.RunSweeper(ctx, 5*time.Minute)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server")
		return srv.Stop()
	})

	return g.Wait()
}
