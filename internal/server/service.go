package server

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/hieu-lee/bluffpoker/internal/deck"
	"github.com/hieu-lee/bluffpoker/internal/game"
	"github.com/hieu-lee/bluffpoker/internal/hand"
	"github.com/hieu-lee/bluffpoker/internal/randutil"
	"github.com/hieu-lee/bluffpoker/internal/session"
	"github.com/hieu-lee/bluffpoker/internal/userstore"
)

// Service implements the game protocol on top of the session registry and
// the user store. It tracks which users are online and routes messages to
// their connections.
//
// All game mutations happen inside the owning session's lock; snapshots for
// broadcasting are taken inside the same critical section and sent after.
type Service struct {
	registry *session.Registry
	store    *userstore.Store
	logger   *log.Logger
	clock    quartz.Clock

	baseSeed int64
	gameSeq  atomic.Int64

	mu    sync.RWMutex
	conns map[string]*Connection // userID -> connection
	users map[string]game.User   // online users
	names map[string]string      // username -> userID
}

// NewService wires the protocol layer. baseSeed derives per-game RNG seeds;
// clock is handed to each game for call timestamps.
func NewService(registry *session.Registry, store *userstore.Store, logger *log.Logger, baseSeed int64, clock quartz.Clock) *Service {
	return &Service{
		registry: registry,
		store:    store,
		logger:   logger.WithPrefix("service"),
		clock:    clock,
		baseSeed: baseSeed,
		conns:    make(map[string]*Connection),
		users:    make(map[string]game.User),
		names:    make(map[string]string),
	}
}

// UserByID implements game.UserDirectory over the online user set.
func (s *Service) UserByID(id string) (game.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// stateSnapshot is everything broadcastState needs, captured under the
// session lock.
type stateSnapshot struct {
	state       game.State
	playerCards map[string][]deck.Card
	spectators  map[string]bool
	waiting     []string
	waitNames   []string
}

func (s *Service) snapshotLocked(g *game.Game) stateSnapshot {
	snap := stateSnapshot{
		state:       g.State(),
		playerCards: make(map[string][]deck.Card),
		spectators:  make(map[string]bool),
		waiting:     g.WaitingPlayerIDs(),
	}
	for _, id := range g.PlayerIDs() {
		snap.playerCards[id] = g.PlayerCards(id)
	}
	for _, id := range g.SpectatorIDs() {
		snap.spectators[id] = true
	}
	for _, id := range snap.waiting {
		if u, ok := s.UserByID(id); ok {
			snap.waitNames = append(snap.waitNames, u.Username)
		}
	}
	return snap
}

// CreateSession registers the user, creates a fresh session hosting them,
// and replies with session_created.
func (s *Service) CreateSession(c *Connection, data CreateSessionData) {
	user, ok := s.registerUser(c, data.Username)
	if !ok {
		return
	}

	seq := s.gameSeq.Add(1)
	g := game.New(s, randutil.New(s.baseSeed+seq), s.clock, s.logger)
	g.OnResult(s.resultRecorder(g))

	sess, err := s.registry.Create(g)
	if err != nil {
		c.sendSessionError("Could not create session: " + err.Error())
		return
	}

	sess.Join(user.ID)
	sess.Do(func(g *game.Game) { g.AddPlayer(user) })
	c.SetSession(sess.Code)

	s.logger.Info("session created", "code", sess.Code, "host", user.Username)
	s.sendSessionInfo(c, MessageTypeSessionCreated, sess, user)
	s.broadcastState(sess)
}

// JoinSession adds the user to an existing session. Joining mid-game queues
// them as a spectator until the next game.
func (s *Service) JoinSession(c *Connection, data JoinSessionData) {
	sess, ok := s.registry.Get(data.SessionID)
	if !ok {
		c.sendSessionError("Session not found")
		return
	}

	user, ok := s.registerUser(c, data.Username)
	if !ok {
		return
	}

	var joined bool
	var playing bool
	var full bool
	sess.Do(func(g *game.Game) {
		playing = g.Phase == game.PhasePlaying
		joined = g.AddPlayer(user)
		full = !joined && !playing
	})

	if full {
		s.unregisterUser(user.ID)
		c.sendSessionError("Session is full")
		return
	}

	sess.Join(user.ID)
	c.SetSession(sess.Code)

	s.sendSessionInfo(c, MessageTypeSessionJoined, sess, user)
	if !joined {
		msg, _ := NewMessage(MessageTypeWaitingForGame, WaitingForGameData{
			Message: "A game is in progress. You will join when it ends.",
		})
		s.sendTo(user.ID, sess.Code, msg)
	}

	s.logger.Info("user joined session", "code", sess.Code, "user", user.Username, "spectating", !joined)
	s.broadcastPlayerUpdate(sess)
	s.broadcastState(sess)
}

// StartGame begins the game. Host only.
func (s *Service) StartGame(c *Connection) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}
	if !sess.IsHost(c.UserID()) {
		c.sendError("not_host", "Only the host can start the game")
		return
	}

	var started bool
	var snap stateSnapshot
	var roundStart RoundStartData
	sess.Do(func(g *game.Game) {
		started = g.Start()
		if started {
			snap = s.snapshotLocked(g)
			r := g.CurrentRound()
			roundStart = RoundStartData{RoundNumber: r.Number, StartingPlayer: r.CurrentPlayerID}
		}
	})

	if !started {
		c.sendError("cannot_start", "Need at least 2 players to start")
		return
	}

	msg, _ := NewMessage(MessageTypeRoundStart, roundStart)
	s.broadcast(sess, msg)
	s.broadcastSnapshot(sess, snap)
}

// RestartGame abandons the current game and returns the table to the lobby.
// Host only.
func (s *Service) RestartGame(c *Connection) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}
	if !sess.IsHost(c.UserID()) {
		c.sendError("not_host", "Only the host can restart the game")
		return
	}

	var snap stateSnapshot
	sess.Do(func(g *game.Game) {
		g.Restart()
		snap = s.snapshotLocked(g)
	})

	s.logger.Info("game restarted", "code", sess.Code, "host", c.Username())
	msg, _ := NewMessage(MessageTypeGameRestart, nil)
	s.broadcast(sess, msg)
	s.broadcastSnapshot(sess, snap)
}

// CallHand parses and submits a hand claim for the caller's turn.
func (s *Service) CallHand(c *Connection, data CallHandData) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	h, err := hand.Parse(data.Hand)
	if err != nil {
		c.sendError("invalid_hand", err.Error())
		return
	}

	var accepted bool
	var reason string
	var snap stateSnapshot
	sess.Do(func(g *game.Game) {
		accepted, reason = g.MakeHandCall(c.UserID(), h)
		if accepted {
			snap = s.snapshotLocked(g)
		}
	})

	if !accepted {
		c.sendError("call_rejected", reason)
		return
	}
	s.broadcastSnapshot(sess, snap)
}

// CallBluff challenges the current claim and reveals the round.
func (s *Service) CallBluff(c *Connection) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}

	var res game.BluffResult
	var claim *game.HandCall
	var revealed map[string][]deck.Card
	var snap stateSnapshot
	var nextRound *RoundStartData
	sess.Do(func(g *game.Game) {
		r := g.CurrentRound()
		if r != nil {
			claim = r.CurrentCall()
			revealed = make(map[string][]deck.Card, len(r.Players))
			for _, p := range r.Players {
				revealed[p.User.ID] = p.Cards
			}
		}

		res = g.CallBluff(c.UserID())
		if res.OK {
			snap = s.snapshotLocked(g)
			if next := g.CurrentRound(); next != nil && g.Phase == game.PhasePlaying {
				nextRound = &RoundStartData{RoundNumber: next.Number, StartingPlayer: next.CurrentPlayerID}
			}
		}
	})

	if !res.OK {
		c.sendError("bluff_rejected", res.Reason)
		return
	}

	result := BluffResultData{
		ChallengerID:       c.UserID(),
		LoserID:            res.LoserID,
		HandExists:         res.HandExists,
		ClaimRanks:         res.ClaimRanks,
		PreviousRoundCards: revealed,
	}
	if claim != nil {
		result.ClaimantID = claim.PlayerID
		result.Hand = claim.Hand.String()
	}

	msg, _ := NewMessage(MessageTypeBluffResult, result)
	s.broadcast(sess, msg)
	if nextRound != nil {
		roundMsg, _ := NewMessage(MessageTypeRoundStart, *nextRound)
		s.broadcast(sess, roundMsg)
	}
	s.broadcastSnapshot(sess, snap)
}

// KickUser removes a user from the session. Host only; the host cannot kick
// themselves.
func (s *Service) KickUser(c *Connection, data KickUserData) {
	sess, ok := s.sessionFor(c)
	if !ok {
		return
	}
	if !sess.IsHost(c.UserID()) {
		c.sendError("not_host", "Only the host can kick users")
		return
	}
	if data.UserID == c.UserID() {
		c.sendError("cannot_kick_self", "The host cannot kick themselves")
		return
	}

	target, online := s.UserByID(data.UserID)
	if !online || !sess.IsMember(data.UserID) {
		c.sendError("user_not_found", "User is not in this session")
		return
	}

	kicked, _ := NewMessage(MessageTypeUserKicked, UserKickedData{
		UserID:   target.ID,
		Username: target.Username,
	})
	s.broadcast(sess, kicked)

	s.removeFromSession(sess, target.ID)

	s.mu.RLock()
	conn := s.conns[target.ID]
	s.mu.RUnlock()
	if conn != nil {
		conn.SetSession("")
	}

	s.logger.Info("user kicked", "code", sess.Code, "user", target.Username, "by", c.Username())
	s.broadcastPlayerUpdate(sess)
	s.broadcastState(sess)
}

// Disconnect cleans up after a closed connection: the user leaves their
// session and goes offline.
func (s *Service) Disconnect(c *Connection) {
	userID := c.UserID()
	if userID == "" {
		return
	}

	if sess, ok := s.registry.Get(c.SessionCode()); ok {
		left, _ := NewMessage(MessageTypeUserLeave, UserLeaveData{
			UserID:   userID,
			Username: c.Username(),
		})
		s.broadcast(sess, left)

		s.removeFromSession(sess, userID)
		s.broadcastPlayerUpdate(sess)
		s.broadcastState(sess)
	}

	s.unregisterUser(userID)
	s.logger.Info("user disconnected", "user", c.Username())
}

// registerUser validates the username, persists the user, and marks them
// online. Fails when the name is already in use by someone else online.
func (s *Service) registerUser(c *Connection, username string) (game.User, bool) {
	record, err := s.store.Register(context.Background(), username)
	if err != nil {
		c.sendSessionError("Invalid username: " + err.Error())
		return game.User{}, false
	}

	s.mu.Lock()
	if takenBy, taken := s.names[record.Username]; taken && takenBy != record.ID {
		s.mu.Unlock()
		c.sendSessionError("Username is already taken")
		return game.User{}, false
	}
	if existing, online := s.conns[record.ID]; online && existing != c {
		s.mu.Unlock()
		c.sendSessionError("Username is already taken")
		return game.User{}, false
	}
	user := game.User{ID: record.ID, Username: record.Username}
	s.users[record.ID] = user
	s.names[record.Username] = record.ID
	s.conns[record.ID] = c
	s.mu.Unlock()

	c.SetUser(user.ID, user.Username)
	return user, true
}

func (s *Service) unregisterUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		delete(s.names, u.Username)
	}
	delete(s.users, userID)
	delete(s.conns, userID)
}

// removeFromSession takes userID out of both the membership list and the
// game, handling host migration and empty-session teardown.
func (s *Service) removeFromSession(sess *session.Session, userID string) {
	newHost, empty := sess.Leave(userID)
	sess.Do(func(g *game.Game) {
		g.RemovePlayer(userID)
	})

	if empty {
		s.registry.Remove(sess.Code)
		return
	}
	if newHost != "" {
		hostUser, _ := s.UserByID(newHost)
		msg, _ := NewMessage(MessageTypeHostChanged, HostChangedData{
			HostID:   newHost,
			Username: hostUser.Username,
		})
		s.broadcast(sess, msg)
	}
}

func (s *Service) resultRecorder(g *game.Game) func(game.Result) {
	return func(res game.Result) {
		if err := s.store.RecordResult(context.Background(), res.WinnerID, res.PlayerIDs); err != nil {
			s.logger.Error("failed to record game result", "error", err)
		}
	}
}

func (s *Service) sessionFor(c *Connection) (*session.Session, bool) {
	sess, ok := s.registry.Get(c.SessionCode())
	if !ok {
		c.sendError("no_session", "Not in a session")
		return nil, false
	}
	return sess, true
}

func (s *Service) sendSessionInfo(c *Connection, msgType MessageType, sess *session.Session, user game.User) {
	leaderboard, err := s.store.Leaderboard(context.Background())
	if err != nil {
		s.logger.Error("failed to load leaderboard", "error", err)
	}

	msg, _ := NewMessage(msgType, SessionInfoData{
		SessionID:   sess.Code,
		UserID:      user.ID,
		Username:    user.Username,
		IsHost:      sess.IsHost(user.ID),
		Leaderboard: leaderboard,
	})
	msg.SessionID = sess.Code
	_ = c.SendMessage(msg)
}

// broadcast sends msg to every member of the session.
func (s *Service) broadcast(sess *session.Session, msg *Message) {
	msg.SessionID = sess.Code
	for _, id := range sess.Members() {
		s.sendTo(id, sess.Code, msg)
	}
}

func (s *Service) sendTo(userID, sessionCode string, msg *Message) {
	s.mu.RLock()
	conn := s.conns[userID]
	s.mu.RUnlock()
	if conn == nil {
		return
	}
	msg.SessionID = sessionCode
	if err := conn.SendMessage(msg); err != nil {
		s.logger.Debug("failed to send message", "user", userID, "error", err)
	}
}

// broadcastState snapshots the game and pushes a personalized
// game_state_update to each member.
func (s *Service) broadcastState(sess *session.Session) {
	var snap stateSnapshot
	sess.Do(func(g *game.Game) {
		snap = s.snapshotLocked(g)
	})
	s.broadcastSnapshot(sess, snap)
}

func (s *Service) broadcastSnapshot(sess *session.Session, snap stateSnapshot) {
	hostID := sess.HostID()
	for _, id := range sess.Members() {
		data := GameStateData{
			State:  snap.state,
			IsHost: id == hostID,
		}
		data.YourCards = snap.playerCards[id]
		if snap.spectators[id] {
			// Spectators are out of the running and may watch every hand.
			data.AllPlayerCards = snap.playerCards
		}
		if id == hostID {
			data.WaitingPlayers = snap.waitNames
		}

		msg, err := NewMessage(MessageTypeGameStateUpdate, data)
		if err != nil {
			s.logger.Error("failed to build state update", "error", err)
			continue
		}
		s.sendTo(id, sess.Code, msg)
	}
}

func (s *Service) broadcastPlayerUpdate(sess *session.Session) {
	var players []game.PlayerState
	var waiting int
	sess.Do(func(g *game.Game) {
		players = g.State().Players
		waiting = len(g.WaitingPlayerIDs())
	})

	msg, _ := NewMessage(MessageTypePlayerUpdate, PlayerUpdateData{
		Players:      players,
		WaitingCount: waiting,
	})
	s.broadcast(sess, msg)
}
