package game

import (
	"time"

	"github.com/hieu-lee/bluffpoker/internal/deck"
	"github.com/hieu-lee/bluffpoker/internal/hand"
)

// RoundPhase is the per-round state machine position.
type RoundPhase string

const (
	RoundDealing     RoundPhase = "dealing"
	RoundCalling     RoundPhase = "calling"
	RoundBluffCalled RoundPhase = "bluff_called"
	RoundShowing     RoundPhase = "showing_cards"
	RoundEnd         RoundPhase = "round_end"
)

// HandCall records one turn's declaration. Calls are appended to the round
// history and never mutated or removed.
type HandCall struct {
	PlayerID  string
	Hand      hand.Hand
	Timestamp time.Time
}

// Round is a single deal-to-resolution cycle. Players is a fixed snapshot of
// the active roster taken at round start; AllCards is the concatenation of
// every dealt hand and is the ground truth for bluff checks once dealing
// completes.
type Round struct {
	Number           int
	StartingPlayerID string
	CurrentPlayerID  string
	Players          []*Player
	Deck             *deck.Deck
	Calls            []HandCall
	Phase            RoundPhase
	LoserID          string
	AllCards         []deck.Card
}

// CurrentCall returns the most recent hand call, or nil before any call.
func (r *Round) CurrentCall() *HandCall {
	if len(r.Calls) == 0 {
		return nil
	}
	return &r.Calls[len(r.Calls)-1]
}

// NextPlayerID returns the player whose turn follows afterID, wrapping in
// snapshot order and skipping eliminated players. Removed players simply no
// longer appear in the snapshot, so the turn passes over them too.
func (r *Round) NextPlayerID(afterID string) string {
	active := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if !p.Eliminated {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return ""
	}

	current := 0
	for i, p := range active {
		if p.User.ID == afterID {
			current = i
			break
		}
	}
	return active[(current+1)%len(active)].User.ID
}
