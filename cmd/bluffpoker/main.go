package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run the bluff poker server"`
	Client  ClientCmd        `cmd:"" help:"Connect as an interactive player"`
	Bot     BotCmd           `cmd:"" help:"Run a bot player"`
}

func main() {
	// Optional .env for local development; ignore when absent.
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bluffpoker"),
		kong.Description("A multiplayer bluffing card game over WebSocket"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
