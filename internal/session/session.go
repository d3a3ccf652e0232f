// Package session maps short join codes to running games and tracks who is
// connected to each table.
package session

import (
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/hieu-lee/bluffpoker/internal/game"
)

// Session is one table: a game plus the users connected to it. The first
// member is the host; when the host leaves the role passes to the next member
// in connection order.
//
// All mutating methods take the session lock. Callers that need to combine a
// membership change with game mutations should use Do to hold the lock across
// the whole step.
type Session struct {
	Code string
	Game *game.Game

	mu         sync.Mutex
	hostID     string
	members    []string
	lastActive time.Time
	clock      quartz.Clock
}

// Do runs fn with the session lock held, serializing all access to the game.
func (s *Session) Do(fn func(*game.Game)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.clock.Now()
	fn(s.Game)
}

// Join records userID as connected. The first member becomes host.
func (s *Session) Join(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.clock.Now()

	for _, id := range s.members {
		if id == userID {
			return
		}
	}
	s.members = append(s.members, userID)
	if s.hostID == "" {
		s.hostID = userID
	}
}

// Leave removes userID. It reports the new host (empty when unchanged or the
// session emptied) and whether the session is now empty.
func (s *Session) Leave(userID string) (newHost string, empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.clock.Now()

	kept := s.members[:0]
	for _, id := range s.members {
		if id != userID {
			kept = append(kept, id)
		}
	}
	s.members = kept

	if len(s.members) == 0 {
		s.hostID = ""
		return "", true
	}
	if s.hostID == userID {
		s.hostID = s.members[0]
		return s.hostID, false
	}
	return "", false
}

// HostID returns the current host, or "" for an empty session.
func (s *Session) HostID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostID
}

// IsHost reports whether userID currently hosts the session.
func (s *Session) IsHost(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostID != "" && s.hostID == userID
}

// IsMember reports whether userID is connected to this session.
func (s *Session) IsMember(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.members {
		if id == userID {
			return true
		}
	}
	return false
}

// Members returns the connected user IDs in connection order.
func (s *Session) Members() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.members))
	copy(out, s.members)
	return out
}

// MemberCount returns the number of connected users.
func (s *Session) MemberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActive)
}
