package client

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/hieu-lee/bluffpoker/internal/server"
)

// Options configures an interactive client session.
type Options struct {
	ServerURL string
	Username  string
	// SessionID joins an existing session; empty creates a new one.
	SessionID string
}

// Run connects to the server and drives the TUI until the user quits or the
// connection drops.
func Run(opts Options, logger *log.Logger) error {
	if opts.Username == "" {
		return fmt.Errorf("a username is required")
	}

	lipgloss.SetColorProfile(termenv.ColorProfile())

	c := NewClient(opts.ServerURL, logger)
	if err := c.Connect(); err != nil {
		return err
	}
	defer func() { _ = c.Disconnect() }()

	model := NewModel(c, logger)
	model.SetEntry(opts.Username, opts.SessionID)

	p := tea.NewProgram(model, tea.WithAltScreen())

	c.OnMessage(func(msg *server.Message) {
		p.Send(ServerMsg{Msg: msg})
	})
	go func() {
		<-c.Done()
		p.Send(DisconnectedMsg{})
	}()

	_, err := p.Run()
	return err
}
