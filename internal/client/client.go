// Package client implements the WebSocket client used by both the TUI and
// the bot.
package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/hieu-lee/bluffpoker/internal/server"
)

// EventHandler handles an incoming message.
type EventHandler func(*server.Message)

// Client is a WebSocket connection to a bluffpoker server.
type Client struct {
	serverURL string
	conn      *websocket.Conn
	send      chan *server.Message
	receive   chan *server.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	connected bool
	closeOnce sync.Once

	username  string
	sessionID string

	eventHandlers map[server.MessageType][]EventHandler
	catchAll      []EventHandler
}

// NewClient creates a client for the given server URL.
func NewClient(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL:     serverURL,
		send:          make(chan *server.Message, 256),
		receive:       make(chan *server.Message, 256),
		logger:        logger.WithPrefix("client"),
		ctx:           ctx,
		cancel:        cancel,
		eventHandlers: make(map[server.MessageType][]EventHandler),
	}
}

// Connect dials the server and starts the pumps.
func (c *Client) Connect() error {
	c.logger.Info("connecting to server", "url", c.serverURL)

	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()
	go c.eventProcessor()

	c.logger.Info("connected to server")
	return nil
}

// Disconnect closes the connection. Safe to call more than once.
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.conn != nil {
			_ = c.conn.Close()
			c.connected = false
		}

		close(c.send)
		c.logger.Info("disconnected from server")
	})
	return nil
}

// IsConnected reports whether the socket is up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Done is closed when the client shuts down.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// SendMessage queues a message for the server.
func (c *Client) SendMessage(msg *server.Message) error {
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return fmt.Errorf("send buffer full")
	}
}

func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		c.cancel()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg server.Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			break
		}

		c.logger.Debug("received message", "type", msg.Type)

		select {
		case c.receive <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) eventProcessor() {
	for {
		select {
		case msg := <-c.receive:
			c.dispatch(msg)
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) dispatch(msg *server.Message) {
	c.mu.RLock()
	handlers := c.eventHandlers[msg.Type]
	catchAll := c.catchAll
	c.mu.RUnlock()

	for _, handler := range handlers {
		handler(msg)
	}
	for _, handler := range catchAll {
		handler(msg)
	}
}

// AddEventHandler registers a handler for one message type. Handlers run on
// the event loop goroutine and must not block.
func (c *Client) AddEventHandler(messageType server.MessageType, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventHandlers[messageType] = append(c.eventHandlers[messageType], handler)
}

// OnMessage registers a handler that sees every incoming message.
func (c *Client) OnMessage(handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catchAll = append(c.catchAll, handler)
}

// SetSessionID records the session code stamped on future messages.
func (c *Client) SetSessionID(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
}

// SessionID returns the current session code.
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// Username returns the name sent during session entry.
func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

func (c *Client) sendTyped(msgType server.MessageType, data interface{}) error {
	msg, err := server.NewMessage(msgType, data)
	if err != nil {
		return err
	}
	msg.SessionID = c.SessionID()
	return c.SendMessage(msg)
}

// CreateSession asks the server for a new session hosted by username.
func (c *Client) CreateSession(username string) error {
	c.mu.Lock()
	c.username = username
	c.mu.Unlock()
	return c.sendTyped(server.MessageTypeCreateSession, server.CreateSessionData{Username: username})
}

// JoinSession joins an existing session by code.
func (c *Client) JoinSession(username, sessionID string) error {
	c.mu.Lock()
	c.username = username
	c.mu.Unlock()
	return c.sendTyped(server.MessageTypeJoinSession, server.JoinSessionData{
		Username:  username,
		SessionID: sessionID,
	})
}

// StartGame requests a game start (host only).
func (c *Client) StartGame() error {
	return c.sendTyped(server.MessageTypeGameStart, nil)
}

// RestartGame requests a return to the lobby (host only).
func (c *Client) RestartGame() error {
	return c.sendTyped(server.MessageTypeGameRestart, nil)
}

// CallHand submits a hand claim like "pair of kings".
func (c *Client) CallHand(spec string) error {
	return c.sendTyped(server.MessageTypeCallHand, server.CallHandData{Hand: spec})
}

// CallBluff challenges the previous claim.
func (c *Client) CallBluff() error {
	return c.sendTyped(server.MessageTypeCallBluff, nil)
}

// KickUser removes a user from the session (host only).
func (c *Client) KickUser(userID string) error {
	return c.sendTyped(server.MessageTypeKickUser, server.KickUserData{UserID: userID})
}

// WaitForMessage blocks until a message of the given type arrives or the
// timeout elapses.
func (c *Client) WaitForMessage(messageType server.MessageType, timeout time.Duration) (*server.Message, error) {
	responseChan := make(chan *server.Message, 1)

	c.AddEventHandler(messageType, func(msg *server.Message) {
		select {
		case responseChan <- msg:
		default:
		}
	})

	select {
	case msg := <-responseChan:
		return msg, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout waiting for %s", messageType)
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}
