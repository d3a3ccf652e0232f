package main

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/quartz"

	"github.com/hieu-lee/bluffpoker/cmd/bluffpoker/shared"
	"github.com/hieu-lee/bluffpoker/internal/bot"
	"github.com/hieu-lee/bluffpoker/internal/client"
	"github.com/hieu-lee/bluffpoker/internal/randutil"
)

// BotCmd runs an automated player against a server.
type BotCmd struct {
	Server     string `kong:"default='http://localhost:8765',help='Server URL'"`
	Name       string `kong:"default='bot',help='Bot player name'"`
	Session    string `kong:"required,help='Session code to join'"`
	Seed       *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	MinDelayMs int    `kong:"default='500',help='Minimum think delay in milliseconds'"`
	MaxDelayMs int    `kong:"default='1500',help='Maximum think delay in milliseconds'"`
	Debug      bool   `kong:"help='Enable debug logging'"`
}

func (c *BotCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}

	cl := client.NewClient(c.Server, logger)
	if err := cl.Connect(); err != nil {
		return err
	}
	defer func() { _ = cl.Disconnect() }()

	b := bot.New(cl, logger, randutil.New(seed), quartz.NewReal())
	b.SetDelay(
		time.Duration(c.MinDelayMs)*time.Millisecond,
		time.Duration(c.MaxDelayMs)*time.Millisecond,
	)

	ctx := shared.SetupSignalHandler(logger)
	logger.Info("bot joining session", "session", c.Session, "name", c.Name)

	if err := b.Run(ctx, c.Name, c.Session); err != nil && err != context.Canceled {
		return fmt.Errorf("bot stopped: %w", err)
	}
	return nil
}
