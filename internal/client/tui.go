package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/hieu-lee/bluffpoker/internal/deck"
	"github.com/hieu-lee/bluffpoker/internal/server"
	"github.com/hieu-lee/bluffpoker/internal/userstore"
)

// ServerMsg wraps an incoming server message for the Bubble Tea loop.
type ServerMsg struct {
	Msg *server.Message
}

// DisconnectedMsg signals that the connection dropped.
type DisconnectedMsg struct{}

// Model is the Bubble Tea model for the game client.
type Model struct {
	client *Client
	logger *log.Logger

	logViewport viewport.Model
	actionInput textinput.Model

	gameLog     []string
	focusedPane int // 0 = log, 1 = input
	width       int
	height      int
	initialized bool
	quitting    bool

	entryUsername string
	entrySession  string

	userID      string
	sessionID   string
	isHost      bool
	state       *server.GameStateData
	leaderboard []userstore.Entry
	names       map[string]string // userID -> username
}

// NewModel creates the TUI model around a connected client.
func NewModel(c *Client, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "Enter a hand call (e.g. pair of kings), or 'bluff'"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &Model{
		client:      c,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		actionInput: ti,
		focusedPane: 1,
		names:       make(map[string]string),
	}
}

// SetEntry configures the create-or-join performed when the program starts.
// An empty sessionID creates a fresh session.
func (m *Model) SetEntry(username, sessionID string) {
	m.entryUsername = username
	m.entrySession = sessionID
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	enter := func() tea.Msg {
		if m.entryUsername == "" {
			return nil
		}
		var err error
		if m.entrySession == "" {
			err = m.client.CreateSession(m.entryUsername)
		} else {
			err = m.client.JoinSession(m.entryUsername, m.entrySession)
		}
		if err != nil {
			m.logger.Error("failed to enter session", "error", err)
		}
		return nil
	}
	return tea.Batch(textinput.Blink, enter)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case DisconnectedMsg:
		m.quitting = true
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ServerMsg:
		m.applyServerMessage(msg.Msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			_ = m.client.Disconnect()
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				input := strings.TrimSpace(m.actionInput.Value())
				m.actionInput.SetValue("")
				if cmd := m.processCommand(input); cmd != nil {
					return m, cmd
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// processCommand interprets a line of input. Anything that is not a known
// command is treated as a hand call.
func (m *Model) processCommand(input string) tea.Cmd {
	if input == "" {
		return nil
	}

	fields := strings.Fields(strings.ToLower(input))
	switch fields[0] {
	case "quit", "exit":
		m.quitting = true
		_ = m.client.Disconnect()
		return tea.Sequence(tea.ClearScreen, tea.Quit)
	case "start":
		m.sendOrLog(m.client.StartGame())
	case "restart":
		m.sendOrLog(m.client.RestartGame())
	case "bluff":
		m.sendOrLog(m.client.CallBluff())
	case "kick":
		if len(fields) < 2 {
			m.addLog(ErrorStyle.Render("Usage: kick <username>"))
			return nil
		}
		target := m.userIDByName(fields[1])
		if target == "" {
			m.addLog(ErrorStyle.Render("No such player: " + fields[1]))
			return nil
		}
		m.sendOrLog(m.client.KickUser(target))
	case "help":
		m.addLog(InfoStyle.Render("Commands: start, restart, bluff, kick <name>, quit, or a hand call like 'three kings'"))
	default:
		m.sendOrLog(m.client.CallHand(input))
	}
	return nil
}

func (m *Model) sendOrLog(err error) {
	if err != nil {
		m.addLog(ErrorStyle.Render("Send failed: " + err.Error()))
	}
}

func (m *Model) userIDByName(name string) string {
	for id, n := range m.names {
		if strings.EqualFold(n, name) {
			return id
		}
	}
	return ""
}

func (m *Model) displayName(userID string) string {
	if name, ok := m.names[userID]; ok {
		return name
	}
	return userID
}

// applyServerMessage folds one server message into the display state.
func (m *Model) applyServerMessage(msg *server.Message) {
	switch msg.Type {
	case server.MessageTypeSessionCreated, server.MessageTypeSessionJoined:
		var data server.SessionInfoData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		m.sessionID = data.SessionID
		m.userID = data.UserID
		m.isHost = data.IsHost
		m.leaderboard = data.Leaderboard
		m.client.SetSessionID(data.SessionID)
		if msg.Type == server.MessageTypeSessionCreated {
			m.addLog(SuccessStyle.Render(fmt.Sprintf("Session %s created. Share the code to invite players.", data.SessionID)))
			m.addLog(InfoStyle.Render("Type 'start' when everyone is in."))
		} else {
			m.addLog(SuccessStyle.Render(fmt.Sprintf("Joined session %s.", data.SessionID)))
		}

	case server.MessageTypeSessionError:
		var data server.SessionErrorData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		m.addLog(ErrorStyle.Render(data.Message))

	case server.MessageTypeWaitingForGame:
		var data server.WaitingForGameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		m.addLog(WarningStyle.Render(data.Message))

	case server.MessageTypeRoundStart:
		var data server.RoundStartData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		m.addLog(HandInfoStyle.Render(fmt.Sprintf("Round %d. %s starts.",
			data.RoundNumber, m.displayName(data.StartingPlayer))))

	case server.MessageTypeGameStateUpdate:
		var data server.GameStateData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		m.state = &data
		m.isHost = data.IsHost
		for _, p := range data.State.Players {
			m.names[p.UserID] = p.Username
		}
		if call := data.State.CurrentCall; call != nil {
			m.addLog(fmt.Sprintf("%s called %s.",
				m.displayName(call.PlayerID), HandInfoStyle.Render(call.Hand)))
		}

	case server.MessageTypeBluffResult:
		var data server.BluffResultData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		verdict := ErrorStyle.Render("did not exist")
		if data.HandExists {
			verdict = SuccessStyle.Render("existed")
		}
		m.addLog(fmt.Sprintf("%s challenged %s: %s %s. %s takes the loss.",
			m.displayName(data.ChallengerID), m.displayName(data.ClaimantID),
			HandInfoStyle.Render(data.Hand), verdict,
			WarningStyle.Render(m.displayName(data.LoserID))))
		for userID, cards := range data.PreviousRoundCards {
			m.addLog(fmt.Sprintf("  %s had %s", m.displayName(userID), m.formatCards(cards)))
		}

	case server.MessageTypePlayerUpdate:
		var data server.PlayerUpdateData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		for _, p := range data.Players {
			m.names[p.UserID] = p.Username
		}

	case server.MessageTypeUserLeave:
		var data server.UserLeaveData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		m.addLog(InfoStyle.Render(data.Username + " left the session."))

	case server.MessageTypeUserKicked:
		var data server.UserKickedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		if data.UserID == m.userID {
			m.addLog(ErrorStyle.Render("You were kicked from the session."))
		} else {
			m.addLog(WarningStyle.Render(data.Username + " was kicked."))
		}

	case server.MessageTypeHostChanged:
		var data server.HostChangedData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		m.isHost = data.HostID == m.userID
		m.addLog(InfoStyle.Render(data.Username + " is now the host."))

	case server.MessageTypeGameRestart:
		m.addLog(WarningStyle.Render("The host returned the table to the lobby."))

	case server.MessageTypeError:
		var data server.ErrorData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		m.addLog(ErrorStyle.Render(data.Message))
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionWidth := max(m.width-2, 1)

	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(actionWidth)
	actionPane := actionStyle.Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 28)
	sidebarHeight := max(m.height-actionHeight-4, 1)

	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(sidebarHeight)
	sidebarPane := sidebarStyle.Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-6, 1)
	logHeight := max(m.height-actionHeight-4, 1)

	m.logViewport.Width = logWidth
	m.logViewport.Height = logHeight
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))

	if !m.initialized && logWidth > 1 && logHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(logHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *Model) renderSidebarPane() string {
	var content strings.Builder

	if m.sessionID != "" {
		content.WriteString(HeaderStyle.Render(" Session " + m.sessionID + " "))
		content.WriteString("\n\n")
	}

	if m.state != nil {
		content.WriteString(InfoStyle.Render("Players:"))
		content.WriteString("\n")
		for _, p := range m.state.State.Players {
			marker := "  "
			if p.UserID == m.state.State.CurrentPlayerID {
				marker = TurnStyle.Render("→ ")
			}
			line := fmt.Sprintf("%s%s  %d cards, %d losses", marker, p.Username, p.CardCount, p.Losses)
			if p.Eliminated {
				line = InfoStyle.Render(line + " (out)")
			}
			content.WriteString(line)
			content.WriteString("\n")
		}
		if m.state.State.WaitingCount > 0 {
			content.WriteString(InfoStyle.Render(fmt.Sprintf("%d waiting for next game", m.state.State.WaitingCount)))
			content.WriteString("\n")
		}
	}

	if len(m.leaderboard) > 0 {
		content.WriteString("\n")
		content.WriteString(InfoStyle.Render("Leaderboard:"))
		content.WriteString("\n")
		for i, e := range m.leaderboard {
			if i >= 5 {
				break
			}
			content.WriteString(fmt.Sprintf("  %d. %s  %d wins", i+1, e.Username, e.Wins))
			content.WriteString("\n")
		}
	}

	return content.String()
}

func (m *Model) renderActionPane() string {
	var content strings.Builder

	if m.state != nil {
		if len(m.state.YourCards) > 0 {
			content.WriteString(HandInfoStyle.Render("Your cards: "))
			content.WriteString(m.formatCards(m.state.YourCards))
			content.WriteString("\n")
		}
		if len(m.state.AllPlayerCards) > 0 {
			content.WriteString(InfoStyle.Render("Spectating. All hands visible:"))
			content.WriteString("\n")
			for userID, cards := range m.state.AllPlayerCards {
				content.WriteString(fmt.Sprintf("  %s: %s\n", m.displayName(userID), m.formatCards(cards)))
			}
		}

		switch {
		case m.state.State.CurrentPlayerID == m.userID:
			content.WriteString(TurnStyle.Render("Your turn. Call a higher hand or type 'bluff'."))
			content.WriteString("\n")
		case m.state.State.Phase == "playing":
			content.WriteString(InfoStyle.Render("Waiting for " + m.displayName(m.state.State.CurrentPlayerID) + "..."))
			content.WriteString("\n")
		case m.isHost:
			content.WriteString(InfoStyle.Render("Lobby. Type 'start' to begin."))
			content.WriteString("\n")
		}
	}

	content.WriteString(m.actionInput.View())
	content.WriteString("\n")

	if m.focusedPane == 0 {
		content.WriteString(InfoStyle.Render("Log focused: ↑↓ scroll, Tab to input"))
	} else {
		content.WriteString(InfoStyle.Render("Tab to scroll log • Enter to submit • Ctrl+C to quit"))
	}

	return content.String()
}

func (m *Model) formatCards(cards []deck.Card) string {
	if len(cards) == 0 {
		return ""
	}

	var formatted []string
	for _, card := range cards {
		if card.IsRed() {
			formatted = append(formatted, RedCardStyle.Render(card.String()))
		} else {
			formatted = append(formatted, BlackCardStyle.Render(card.String()))
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

func (m *Model) addLog(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}
