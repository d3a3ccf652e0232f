package main

import (
	"github.com/hieu-lee/bluffpoker/cmd/bluffpoker/shared"
	"github.com/hieu-lee/bluffpoker/internal/client"
)

// ClientCmd connects to a server as an interactive player.
type ClientCmd struct {
	Server  string `kong:"default='http://localhost:8765',help='Server URL'"`
	Name    string `kong:"required,help='Your player name'"`
	Join    string `kong:"help='Session code to join; omit to create a new session'"`
	LogFile string `kong:"help='Write logs to this file (the TUI owns the terminal)'"`
	Debug   bool   `kong:"help='Enable debug logging'"`
}

func (c *ClientCmd) Run() error {
	logger := shared.SetupFileLogger(c.LogFile, c.Debug)

	return client.Run(client.Options{
		ServerURL: c.Server,
		Username:  c.Name,
		SessionID: c.Join,
	}, logger)
}
