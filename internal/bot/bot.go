// Package bot implements a rule-based player that connects over WebSocket
// like any other client.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/hieu-lee/bluffpoker/internal/client"
	"github.com/hieu-lee/bluffpoker/internal/deck"
	"github.com/hieu-lee/bluffpoker/internal/game"
	"github.com/hieu-lee/bluffpoker/internal/hand"
	"github.com/hieu-lee/bluffpoker/internal/server"
)

// Bot plays by claiming the smallest strictly higher hand it considers
// plausible, and challenging otherwise.
type Bot struct {
	client *client.Client
	logger *log.Logger
	rng    *rand.Rand
	clock  quartz.Clock

	minDelay time.Duration
	maxDelay time.Duration

	mu       sync.Mutex
	userID   string
	lastSeen string // signature of the last state acted on
}

// New creates a bot around a client. clock paces the think delay and may be
// a mock in tests.
func New(c *client.Client, logger *log.Logger, rng *rand.Rand, clock quartz.Clock) *Bot {
	return &Bot{
		client:   c,
		logger:   logger.WithPrefix("bot"),
		rng:      rng,
		clock:    clock,
		minDelay: 500 * time.Millisecond,
		maxDelay: 1500 * time.Millisecond,
	}
}

// SetDelay overrides the think-delay range.
func (b *Bot) SetDelay(lo, hi time.Duration) {
	b.minDelay, b.maxDelay = lo, hi
}

// Run joins the session and plays until ctx is cancelled or the connection
// drops.
func (b *Bot) Run(ctx context.Context, username, sessionID string) error {
	b.client.AddEventHandler(server.MessageTypeSessionJoined, func(msg *server.Message) {
		var data server.SessionInfoData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		b.mu.Lock()
		b.userID = data.UserID
		b.mu.Unlock()
		b.client.SetSessionID(data.SessionID)
		b.logger.Info("joined session", "session", data.SessionID, "user", data.Username)
	})

	b.client.AddEventHandler(server.MessageTypeSessionError, func(msg *server.Message) {
		var data server.SessionErrorData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return
		}
		b.logger.Error("session error", "message", data.Message)
	})

	b.client.AddEventHandler(server.MessageTypeGameStateUpdate, b.handleState)

	if err := b.client.JoinSession(username, sessionID); err != nil {
		return fmt.Errorf("joining session: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.client.Done():
		return nil
	}
}

// handleState reacts to a state push. The bot acts at most once per distinct
// turn: repeated pushes of the same position are ignored.
func (b *Bot) handleState(msg *server.Message) {
	var data server.GameStateData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return
	}

	b.mu.Lock()
	me := b.userID
	b.mu.Unlock()

	if me == "" || data.State.Phase != game.PhasePlaying || data.State.CurrentPlayerID != me {
		return
	}

	sig := turnSignature(data.State)
	b.mu.Lock()
	if b.lastSeen == sig {
		b.mu.Unlock()
		return
	}
	b.lastSeen = sig
	b.mu.Unlock()

	delay := b.minDelay
	if b.maxDelay > b.minDelay {
		delay += time.Duration(b.rng.Int64N(int64(b.maxDelay - b.minDelay)))
	}
	b.clock.AfterFunc(delay, func() { b.act(data) })
}

// turnSignature identifies one decision point within a game.
func turnSignature(s game.State) string {
	call := ""
	if s.CurrentCall != nil {
		call = s.CurrentCall.Hand
	}
	return fmt.Sprintf("%s|%d|%s", s.GameID, s.RoundNumber, call)
}

func (b *Bot) act(data server.GameStateData) {
	spec, bluff := b.Decide(data.State, data.YourCards)

	var err error
	if bluff {
		b.logger.Info("challenging", "claim", data.State.CurrentCall.Hand)
		err = b.client.CallBluff()
	} else {
		b.logger.Info("claiming", "hand", spec)
		err = b.client.CallHand(spec)
	}
	if err != nil {
		b.logger.Error("failed to act", "error", err)
	}
}

// Decide picks the move for the current position: a claim specification, or
// bluff=true to challenge.
func (b *Bot) Decide(state game.State, own []deck.Card) (spec string, bluff bool) {
	totalCards := 0
	for _, p := range state.Players {
		totalCards += p.CardCount
	}

	if state.CurrentCall == nil {
		return openingClaim(own), false
	}

	current, err := hand.Parse(state.CurrentCall.Hand)
	if err != nil {
		// The claim renders in a form the grammar cannot read back, which
		// only happens for the strongest categories. Challenge it.
		return "", true
	}

	next, ok := nextClaim(current, own)
	if !ok || !plausible(next, own, totalCards) {
		return "", true
	}
	return specFor(next), false
}

// openingClaim claims the bot's own best card, which is guaranteed to exist.
func openingClaim(own []deck.Card) string {
	best := deck.Two
	for _, c := range own {
		if c.Rank > best {
			best = c.Rank
		}
	}
	return "high card " + rankToken(best)
}

// nextClaim finds the smallest hand strictly above current that the ladder
// can express. Flush and stronger categories are never claimed.
func nextClaim(current hand.Hand, own []deck.Card) (hand.Hand, bool) {
	switch current.Category {
	case hand.HighCard:
		if r, ok := bumpRank(current.PrimaryRank, own); ok {
			return hand.Hand{Category: hand.HighCard, PrimaryRank: r}, true
		}
		return hand.Hand{Category: hand.Pair, PrimaryRank: deck.Two}, true

	case hand.Pair:
		if r, ok := bumpRank(current.PrimaryRank, own); ok {
			return hand.Hand{Category: hand.Pair, PrimaryRank: r}, true
		}
		return hand.Hand{Category: hand.TwoPairs, PrimaryRank: deck.Three, SecondaryRank: deck.Two}, true

	case hand.TwoPairs:
		// Ordering is by the (low, high) tuple, so raise the high pair
		// first, then the low.
		lo, hi := current.SecondaryRank, current.PrimaryRank
		if hi < deck.Ace {
			return hand.Hand{Category: hand.TwoPairs, PrimaryRank: hi + 1, SecondaryRank: lo}, true
		}
		if lo+1 < deck.Ace {
			return hand.Hand{Category: hand.TwoPairs, PrimaryRank: lo + 2, SecondaryRank: lo + 1}, true
		}
		return hand.Hand{Category: hand.ThreeOfAKind, PrimaryRank: deck.Two}, true

	case hand.ThreeOfAKind:
		if r, ok := bumpRank(current.PrimaryRank, own); ok {
			return hand.Hand{Category: hand.ThreeOfAKind, PrimaryRank: r}, true
		}
		return hand.Hand{Category: hand.Straight, PrimaryRank: deck.Two}, true

	case hand.Straight:
		if current.PrimaryRank < deck.Ten {
			return hand.Hand{Category: hand.Straight, PrimaryRank: current.PrimaryRank + 1}, true
		}
		return hand.Hand{Category: hand.FullHouse, PrimaryRank: deck.Two, SecondaryRank: deck.Three}, true

	case hand.FullHouse:
		if current.PrimaryRank < deck.Ace {
			pair := deck.Two
			if pair == current.PrimaryRank+1 {
				pair = deck.Three
			}
			return hand.Hand{Category: hand.FullHouse, PrimaryRank: current.PrimaryRank + 1, SecondaryRank: pair}, true
		}
		return hand.Hand{Category: hand.FourOfAKind, PrimaryRank: deck.Two}, true

	case hand.FourOfAKind:
		if current.PrimaryRank < deck.Ace {
			return hand.Hand{Category: hand.FourOfAKind, PrimaryRank: current.PrimaryRank + 1}, true
		}
		return hand.Hand{}, false

	default:
		// Flush and above: out of the bot's vocabulary.
		return hand.Hand{}, false
	}
}

// bumpRank returns the smallest rank above current, preferring one the bot
// actually holds.
func bumpRank(current deck.Rank, own []deck.Card) (deck.Rank, bool) {
	if current >= deck.Ace {
		return 0, false
	}
	best := deck.Rank(0)
	for _, c := range own {
		if c.Rank > current && (best == 0 || c.Rank < best) {
			best = c.Rank
		}
	}
	if best != 0 {
		return best, true
	}
	return current + 1, true
}

// plausible estimates whether the claim could survive a challenge: cards the
// bot holds count fully, unseen cards contribute a per-rank expectation.
func plausible(h hand.Hand, own []deck.Card, totalCards int) bool {
	needed := map[hand.Category]float64{
		hand.HighCard:     1,
		hand.Pair:         2,
		hand.TwoPairs:     4,
		hand.ThreeOfAKind: 3,
		hand.Straight:     5,
		hand.FullHouse:    5,
		hand.FourOfAKind:  4,
	}[h.Category]
	if needed == 0 {
		return false
	}

	support := 0.0
	switch h.Category {
	case hand.Straight:
		have := make(map[deck.Rank]bool)
		for _, c := range own {
			have[c.Rank] = true
		}
		for _, r := range h.StraightRanks() {
			if have[r] {
				support++
			}
		}
	case hand.TwoPairs:
		for _, c := range own {
			if c.Rank == h.PrimaryRank || c.Rank == h.SecondaryRank {
				support++
			}
		}
	case hand.FullHouse:
		for _, c := range own {
			if c.Rank == h.PrimaryRank || c.Rank == h.SecondaryRank {
				support++
			}
		}
	default:
		for _, c := range own {
			if c.Rank == h.PrimaryRank {
				support++
			}
		}
	}

	unseen := float64(totalCards - len(own))
	// Roughly one card in 13 of the unseen pool matches a given rank; a
	// straight or full house draws from five relevant ranks.
	relevantRanks := 1.0
	switch h.Category {
	case hand.Straight, hand.FullHouse:
		relevantRanks = 5
	case hand.TwoPairs:
		relevantRanks = 2
	}
	expected := support + unseen*relevantRanks/13

	return expected+0.5 >= needed
}

// specFor renders a hand in the grammar the server accepts.
func specFor(h hand.Hand) string {
	switch h.Category {
	case hand.HighCard:
		return "high card " + rankToken(h.PrimaryRank)
	case hand.Pair:
		return "pair of " + rankToken(h.PrimaryRank)
	case hand.TwoPairs:
		return fmt.Sprintf("two pairs: %s and %s", rankToken(h.PrimaryRank), rankToken(h.SecondaryRank))
	case hand.ThreeOfAKind:
		return "three of a kind " + rankToken(h.PrimaryRank)
	case hand.Straight:
		return "straight from " + rankToken(h.PrimaryRank)
	case hand.FullHouse:
		return fmt.Sprintf("full house: 3 %s and 2 %s", rankToken(h.PrimaryRank), rankToken(h.SecondaryRank))
	case hand.FourOfAKind:
		return "four of a kind " + rankToken(h.PrimaryRank)
	default:
		return ""
	}
}

func rankToken(r deck.Rank) string {
	switch r {
	case deck.Jack:
		return "jack"
	case deck.Queen:
		return "queen"
	case deck.King:
		return "king"
	case deck.Ace:
		return "ace"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}
