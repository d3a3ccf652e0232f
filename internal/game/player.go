package game

import "github.com/hieu-lee/bluffpoker/internal/deck"

// User is the identity handed to the game by the surrounding session/user
// layer. The rules engine never touches storage or the network itself.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UserDirectory resolves user IDs to currently-online users. The game
// consults it when migrating the waiting list into the roster on restart.
type UserDirectory interface {
	UserByID(id string) (User, bool)
}

// EliminationLosses is the loss count at which a player is out of the game.
const EliminationLosses = 5

// Player tracks one user's standing within a game. It survives across rounds
// (losses accumulate) and is reset whenever the game restarts.
type Player struct {
	User       User
	Cards      []deck.Card
	Losses     int
	Eliminated bool
}

// CardCount returns the number of cards currently held.
func (p *Player) CardCount() int {
	return len(p.Cards)
}

// NextRoundCards returns how many cards the player is dealt next round:
// one plus the number of rounds lost so far.
func (p *Player) NextRoundCards() int {
	return p.Losses + 1
}
