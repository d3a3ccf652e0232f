package game

import "time"

// PlayerState is the public view of one roster entry: card counts only,
// never the cards themselves.
type PlayerState struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	CardCount  int    `json:"card_count"`
	Losses     int    `json:"losses"`
	Eliminated bool   `json:"is_eliminated"`
}

// CallState is the public view of the most recent hand call.
type CallState struct {
	PlayerID  string    `json:"player_id"`
	Hand      string    `json:"hand"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the broadcastable snapshot of a game.
type State struct {
	GameID          string        `json:"game_id"`
	Phase           Phase         `json:"phase"`
	Players         []PlayerState `json:"players"`
	RoundNumber     int           `json:"round_number"`
	CurrentPlayerID string        `json:"current_player_id,omitempty"`
	CurrentCall     *CallState    `json:"current_call,omitempty"`
	WinnerID        string        `json:"winner_id,omitempty"`
	WaitingCount    int           `json:"waiting_players_count"`
}

// State captures the game as a snapshot safe to serialize and broadcast.
func (g *Game) State() State {
	players := make([]PlayerState, 0, len(g.order))
	for _, id := range g.order {
		p := g.players[id]
		if p == nil {
			continue
		}
		players = append(players, PlayerState{
			UserID:     p.User.ID,
			Username:   p.User.Username,
			CardCount:  p.CardCount(),
			Losses:     p.Losses,
			Eliminated: p.Eliminated,
		})
	}

	state := State{
		GameID:       g.ID,
		Phase:        g.Phase,
		Players:      players,
		RoundNumber:  g.RoundNumber,
		WinnerID:     g.WinnerID,
		WaitingCount: len(g.waiting),
	}

	if g.current != nil {
		state.CurrentPlayerID = g.current.CurrentPlayerID
		if call := g.current.CurrentCall(); call != nil {
			state.CurrentCall = &CallState{
				PlayerID:  call.PlayerID,
				Hand:      call.Hand.String(),
				Timestamp: call.Timestamp,
			}
		}
	}
	return state
}
