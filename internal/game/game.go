package game

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/hieu-lee/bluffpoker/internal/deck"
	"github.com/hieu-lee/bluffpoker/internal/hand"
)

// Phase is the game-level state machine position. Ended is only ever a
// momentary pivot: the game records the winner and immediately resets back
// to Waiting, so callers never observe it at rest.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhasePlaying Phase = "playing"
	PhaseEnded   Phase = "ended"
)

// MaxPlayers caps the active roster of a single game.
const MaxPlayers = 8

// Result describes a finished game and is handed to the recorder callback
// before the game resets.
type Result struct {
	WinnerID  string
	PlayerIDs []string
}

// Game owns the full state of one table: roster, round sequencing,
// elimination and restart. It is not safe for concurrent use; the session
// layer serializes access with a per-game mutex.
type Game struct {
	ID          string
	Phase       Phase
	RoundNumber int
	WinnerID    string

	players     map[string]*Player
	order       []string // join order
	current     *Round
	waiting     []string // user IDs queued while a game is in progress
	users       UserDirectory
	rng         *rand.Rand
	clock       quartz.Clock
	logger      *log.Logger
	recordEnded func(Result)
}

// New creates an empty game in the Waiting phase. users may be nil, in which
// case waiting players cannot be migrated on restart and stay queued.
func New(users UserDirectory, rng *rand.Rand, clock quartz.Clock, logger *log.Logger) *Game {
	return &Game{
		ID:      uuid.NewString(),
		Phase:   PhaseWaiting,
		players: make(map[string]*Player),
		users:   users,
		rng:     rng,
		clock:   clock,
		logger:  logger.WithPrefix("game"),
	}
}

// OnResult registers a callback invoked once per finished game, before the
// reset wipes losses. Used by the session layer to persist leaderboards.
func (g *Game) OnResult(fn func(Result)) {
	g.recordEnded = fn
}

// AddPlayer adds a user to the roster. It returns false when the user was
// queued to the waiting list (game in progress) or rejected at capacity.
func (g *Game) AddPlayer(user User) bool {
	if g.Phase != PhaseWaiting {
		if !contains(g.waiting, user.ID) {
			g.waiting = append(g.waiting, user.ID)
			g.logger.Info("player queued for next game", "user", user.Username)
		}
		return false
	}

	if len(g.players) >= MaxPlayers {
		return false
	}

	if _, ok := g.players[user.ID]; !ok {
		g.players[user.ID] = &Player{User: user}
		g.order = append(g.order, user.ID)
		g.logger.Info("player joined", "user", user.Username, "players", len(g.players))
	}
	return true
}

// RemovePlayer drops a user from the roster, the current round, and the
// waiting list. Removing the second-to-last active player ends the game.
func (g *Game) RemovePlayer(userID string) {
	if _, ok := g.players[userID]; ok {
		if g.current != nil {
			// Advance the turn before dropping the player so "next" is
			// computed against the original snapshot order.
			if g.current.CurrentPlayerID == userID {
				g.current.CurrentPlayerID = g.current.NextPlayerID(userID)
			}
			g.current.Players = removePlayer(g.current.Players, userID)
		}
		delete(g.players, userID)
		g.order = remove(g.order, userID)
		g.logger.Info("player removed", "user", userID, "players", len(g.players))
	}

	g.waiting = remove(g.waiting, userID)

	if g.Phase == PhasePlaying && len(g.ActivePlayers()) <= 1 {
		g.endGame()
	}
}

// ActivePlayers returns the players still contending: not eliminated and not
// on the waiting list. Outside the Playing phase there are none.
func (g *Game) ActivePlayers() []*Player {
	if g.Phase != PhasePlaying {
		return nil
	}
	active := make([]*Player, 0, len(g.players))
	for _, id := range g.order {
		p := g.players[id]
		if p != nil && !p.Eliminated && !contains(g.waiting, id) {
			active = append(active, p)
		}
	}
	return active
}

// SpectatorIDs returns users watching rather than playing: queued joiners
// plus eliminated players. Empty outside the Playing phase.
func (g *Game) SpectatorIDs() []string {
	if g.Phase != PhasePlaying {
		return nil
	}
	var ids []string
	for _, id := range g.waiting {
		if _, playing := g.players[id]; !playing {
			ids = append(ids, id)
		}
	}
	for _, id := range g.order {
		if p := g.players[id]; p != nil && p.Eliminated {
			ids = append(ids, id)
		}
	}
	return ids
}

// Player returns the roster entry for a user, or nil.
func (g *Game) Player(userID string) *Player {
	return g.players[userID]
}

// PlayerCards returns the cards currently held by a user.
func (g *Game) PlayerCards(userID string) []deck.Card {
	if p := g.players[userID]; p != nil {
		return p.Cards
	}
	return nil
}

// PlayerIDs returns the roster in join order.
func (g *Game) PlayerIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// PlayerCount returns the roster size including eliminated players.
func (g *Game) PlayerCount() int {
	return len(g.players)
}

// WaitingPlayerIDs returns a copy of the queued user IDs.
func (g *Game) WaitingPlayerIDs() []string {
	out := make([]string, len(g.waiting))
	copy(out, g.waiting)
	return out
}

// CurrentRound returns the round in progress, or nil between games.
func (g *Game) CurrentRound() *Round {
	return g.current
}

// CanStart reports whether the game may begin: Waiting phase with at least
// two players.
func (g *Game) CanStart() bool {
	return g.Phase == PhaseWaiting && len(g.players) >= 2
}

// Start begins the game and deals the first round. Returns false when the
// game cannot start.
func (g *Game) Start() bool {
	if !g.CanStart() {
		return false
	}

	g.Phase = PhasePlaying
	g.RoundNumber = 0
	for _, p := range g.players {
		p.Losses = 0
		p.Eliminated = false
		p.Cards = nil
	}

	if err := g.startNewRound(); err != nil {
		g.logger.Error("failed to start first round", "error", err)
		g.Phase = PhaseWaiting
		return false
	}

	g.logger.Info("game started", "players", len(g.players))
	return true
}

// startNewRound snapshots the active roster, picks the starter, and deals.
// Round 1 starts with a random active player; later rounds rotate to the
// player after the previous starter in the snapshot.
func (g *Game) startNewRound() error {
	g.RoundNumber++
	active := g.ActivePlayers()
	if len(active) <= 1 {
		g.endGame()
		return nil
	}

	var starter *Player
	if g.RoundNumber == 1 || g.current == nil {
		starter = active[g.rng.IntN(len(active))]
	} else {
		prev := 0
		for i, p := range active {
			if p.User.ID == g.current.StartingPlayerID {
				prev = i
				break
			}
		}
		starter = active[(prev+1)%len(active)]
	}

	d := deck.New(g.rng)
	d.Shuffle()

	round := &Round{
		Number:           g.RoundNumber,
		StartingPlayerID: starter.User.ID,
		CurrentPlayerID:  starter.User.ID,
		Players:          active,
		Deck:             d,
		Phase:            RoundDealing,
	}

	if err := dealCards(round); err != nil {
		return err
	}

	g.current = round
	g.logger.Debug("round started",
		"round", round.Number,
		"starter", starter.User.Username,
		"pool", len(round.AllCards))
	return nil
}

// dealCards gives every snapshot player losses+1 cards and fixes the round's
// validation pool. The 52-card deck always suffices given the 8-player cap
// and 5-loss elimination; running out means a broken invariant.
func dealCards(r *Round) error {
	var all []deck.Card
	for _, p := range r.Players {
		n := p.NextRoundCards()
		cards := r.Deck.DealN(n)
		if len(cards) != n {
			return fmt.Errorf("deck exhausted dealing %d cards to %s", n, p.User.ID)
		}
		p.Cards = cards
		all = append(all, cards...)
	}
	r.AllCards = all
	r.Phase = RoundCalling
	return nil
}

// MakeHandCall submits userID's claim for their turn. The claim must be
// strictly higher than the current call. On success the turn advances to the
// next active player in snapshot order.
func (g *Game) MakeHandCall(userID string, h hand.Hand) (bool, string) {
	if g.current == nil || g.current.Phase != RoundCalling {
		return false, "Not in calling phase"
	}
	if g.current.CurrentPlayerID != userID {
		return false, "Not your turn"
	}

	if current := g.current.CurrentCall(); current != nil {
		if !hand.IsValidNextCall(current.Hand, h) {
			return false, "Hand call must be higher than previous call"
		}
	}

	g.current.Calls = append(g.current.Calls, HandCall{
		PlayerID:  userID,
		Hand:      h,
		Timestamp: g.clock.Now(),
	})
	g.current.CurrentPlayerID = g.current.NextPlayerID(userID)

	g.logger.Debug("hand called", "player", userID, "hand", h.String())
	return true, "Hand call made successfully"
}

// BluffResult is the outcome of a bluff challenge.
type BluffResult struct {
	OK         bool
	Reason     string
	LoserID    string
	HandExists bool
	// ClaimRanks holds the five ranks a straight-family claim asserted, for
	// display when revealing the outcome. Nil for other categories.
	ClaimRanks []deck.Rank
}

// CallBluff challenges the most recent call. The claim is checked against
// the round's full card pool: if it exists the challenger loses, otherwise
// the claimant loses. The round ends immediately and the next one begins
// (or the game ends).
func (g *Game) CallBluff(userID string) BluffResult {
	if g.current == nil || g.current.Phase != RoundCalling {
		return BluffResult{Reason: "Not in calling phase"}
	}
	if g.current.CurrentPlayerID != userID {
		return BluffResult{Reason: "Not your turn"}
	}
	call := g.current.CurrentCall()
	if call == nil {
		return BluffResult{Reason: "No hand call to bluff"}
	}

	exists, ranks := hand.Exists(call.Hand, g.current.AllCards)
	g.current.Phase = RoundBluffCalled

	loserID := userID
	if !exists {
		loserID = call.PlayerID
	}
	g.current.LoserID = loserID

	g.logger.Info("bluff called",
		"challenger", userID,
		"claim", call.Hand.String(),
		"exists", exists,
		"loser", loserID)

	g.endRound(loserID)

	reason := "Bluff called! Hand does not exist"
	if exists {
		reason = "Bluff called! Hand exists"
	}
	return BluffResult{OK: true, Reason: reason, LoserID: loserID, HandExists: exists, ClaimRanks: ranks}
}

// endRound books the loss, applies elimination, and either deals the next
// round or ends the game.
func (g *Game) endRound(loserID string) {
	if g.current == nil {
		return
	}
	g.current.Phase = RoundEnd

	if loser := g.players[loserID]; loser != nil {
		loser.Losses++
		if loser.Losses >= EliminationLosses {
			loser.Eliminated = true
			g.logger.Info("player eliminated", "user", loser.User.Username)
		}
	}

	if len(g.ActivePlayers()) <= 1 {
		g.endGame()
		return
	}
	if err := g.startNewRound(); err != nil {
		g.logger.Error("failed to start next round", "error", err)
		g.endGame()
	}
}

// endGame records the winner, reports the result, and pivots straight back
// to Waiting via Restart. Ended is never a resting state.
func (g *Game) endGame() {
	// Snapshot the survivor before leaving Playing; ActivePlayers reports
	// nobody once the phase flips.
	active := g.ActivePlayers()
	g.Phase = PhaseEnded
	if len(active) > 0 {
		g.WinnerID = active[0].User.ID
	}

	if g.recordEnded != nil {
		result := Result{WinnerID: g.WinnerID}
		for _, id := range g.order {
			result.PlayerIDs = append(result.PlayerIDs, id)
		}
		g.recordEnded(result)
	}

	g.logger.Info("game ended", "winner", g.WinnerID)
	g.Restart()
}

// Restart resets the table for a new game: fresh ID, round counter and
// player records cleared, and waiting users who are still online merged into
// the roster in join order up to the cap.
func (g *Game) Restart() {
	g.ID = uuid.NewString()
	g.Phase = PhaseWaiting
	g.current = nil
	g.RoundNumber = 0
	g.WinnerID = ""

	for _, p := range g.players {
		p.Losses = 0
		p.Eliminated = false
		p.Cards = nil
	}

	if g.users != nil {
		for _, id := range g.WaitingPlayerIDs() {
			if len(g.players) >= MaxPlayers {
				break
			}
			if user, ok := g.users.UserByID(id); ok {
				g.AddPlayer(user)
			}
		}
	}

	// Drop migrated users from the queue; the rest keep waiting.
	kept := g.waiting[:0]
	for _, id := range g.waiting {
		if _, ok := g.players[id]; !ok {
			kept = append(kept, id)
		}
	}
	g.waiting = kept
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func removePlayer(players []*Player, userID string) []*Player {
	out := players[:0]
	for _, p := range players {
		if p.User.ID != userID {
			out = append(out, p)
		}
	}
	return out
}
