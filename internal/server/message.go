package server

import (
	"encoding/json"
	"time"

	"github.com/hieu-lee/bluffpoker/internal/deck"
	"github.com/hieu-lee/bluffpoker/internal/game"
	"github.com/hieu-lee/bluffpoker/internal/userstore"
)

// MessageType identifies a WebSocket message.
type MessageType string

const (
	// Client to server messages
	MessageTypeCreateSession MessageType = "create_session"
	MessageTypeJoinSession   MessageType = "join_session"
	MessageTypeGameStart     MessageType = "game_start"
	MessageTypeGameRestart   MessageType = "game_restart"
	MessageTypeCallHand      MessageType = "call_hand"
	MessageTypeCallBluff     MessageType = "call_bluff"
	MessageTypeKickUser      MessageType = "kick_user"

	// Server to client messages
	MessageTypeSessionCreated  MessageType = "session_created"
	MessageTypeSessionJoined   MessageType = "session_joined"
	MessageTypeSessionError    MessageType = "session_error"
	MessageTypeWaitingForGame  MessageType = "waiting_for_game"
	MessageTypeRoundStart      MessageType = "round_start"
	MessageTypeGameStateUpdate MessageType = "game_state_update"
	MessageTypeBluffResult     MessageType = "bluff_result"
	MessageTypePlayerUpdate    MessageType = "player_update"
	MessageTypeUserLeave       MessageType = "user_leave"
	MessageTypeUserKicked      MessageType = "user_kicked"
	MessageTypeHostChanged     MessageType = "host_changed"
	MessageTypeError           MessageType = "error"
)

func (mt MessageType) String() string {
	return string(mt)
}

// Message is the envelope every WebSocket frame carries.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	SessionID string          `json:"session_id,omitempty"`
}

// NewMessage wraps data in an envelope stamped with the current time.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server payloads

type CreateSessionData struct {
	Username string `json:"username"`
}

type JoinSessionData struct {
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
}

type CallHandData struct {
	Hand string `json:"hand"`
}

type KickUserData struct {
	UserID string `json:"user_id"`
}

// Server → Client payloads

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SessionErrorData struct {
	Message string `json:"message"`
}

// SessionInfoData answers create and join requests.
type SessionInfoData struct {
	SessionID   string            `json:"session_id"`
	UserID      string            `json:"user_id"`
	Username    string            `json:"username"`
	IsHost      bool              `json:"is_host"`
	Leaderboard []userstore.Entry `json:"leaderboard,omitempty"`
}

// GameStateData is the personalized table snapshot pushed after every state
// change. YourCards is filled per recipient; AllPlayerCards only for
// spectators, who may see every hand.
type GameStateData struct {
	State          game.State             `json:"state"`
	YourCards      []deck.Card            `json:"your_cards,omitempty"`
	AllPlayerCards map[string][]deck.Card `json:"all_player_cards,omitempty"`
	IsHost         bool                   `json:"is_host"`
	WaitingPlayers []string               `json:"waiting_players,omitempty"`
}

type RoundStartData struct {
	RoundNumber    int    `json:"round_number"`
	StartingPlayer string `json:"starting_player"`
}

// BluffResultData reveals the outcome of a challenge, including every
// player's cards from the round that just ended.
type BluffResultData struct {
	ChallengerID       string                 `json:"challenger_id"`
	ClaimantID         string                 `json:"claimant_id"`
	LoserID            string                 `json:"loser_id"`
	HandExists         bool                   `json:"hand_exists"`
	Hand               string                 `json:"hand"`
	ClaimRanks         []deck.Rank            `json:"claim_ranks,omitempty"`
	PreviousRoundCards map[string][]deck.Card `json:"previous_round_cards"`
}

type PlayerUpdateData struct {
	Players      []game.PlayerState `json:"players"`
	WaitingCount int                `json:"waiting_count"`
}

type UserLeaveData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type UserKickedData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type HostChangedData struct {
	HostID   string `json:"host_id"`
	Username string `json:"username"`
}

type WaitingForGameData struct {
	Message string `json:"message"`
}
