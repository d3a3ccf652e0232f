package session

import (
	"context"
	"errors"
	rand "math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/hieu-lee/bluffpoker/internal/game"
)

// codeAlphabet omits 0, O, 1 and I so codes survive being read aloud.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 5
)

// DefaultIdleTimeout is how long a session may sit untouched before the
// sweeper reclaims it.
const DefaultIdleTimeout = 2 * time.Hour

var ErrNoCodesLeft = errors.New("could not allocate a unique session code")

// Registry owns every live session, keyed by join code.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	rng         *rand.Rand
	clock       quartz.Clock
	logger      *log.Logger
	idleTimeout time.Duration
}

// NewRegistry creates an empty registry. clock may be a mock in tests.
func NewRegistry(rng *rand.Rand, clock quartz.Clock, logger *log.Logger) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		rng:         rng,
		clock:       clock,
		logger:      logger.WithPrefix("sessions"),
		idleTimeout: DefaultIdleTimeout,
	}
}

// SetIdleTimeout overrides the sweep threshold. Zero disables idle expiry.
func (r *Registry) SetIdleTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idleTimeout = d
}

// Create registers g under a freshly generated code and returns the session.
func (r *Registry) Create(g *game.Game) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.newCodeLocked()
	if err != nil {
		return nil, err
	}

	s := &Session{
		Code:       code,
		Game:       g,
		clock:      r.clock,
		lastActive: r.clock.Now(),
	}
	r.sessions[code] = s
	r.logger.Info("session created", "code", code)
	return s, nil
}

func (r *Registry) newCodeLocked() (string, error) {
	for attempt := 0; attempt < 100; attempt++ {
		var b strings.Builder
		for i := 0; i < codeLength; i++ {
			b.WriteByte(codeAlphabet[r.rng.IntN(len(codeAlphabet))])
		}
		code := b.String()
		if _, taken := r.sessions[code]; !taken {
			return code, nil
		}
	}
	return "", ErrNoCodesLeft
}

// Get looks up a session by code, case-insensitively.
func (r *Registry) Get(code string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[strings.ToUpper(strings.TrimSpace(code))]
	return s, ok
}

// Remove drops the session with the given code.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[code]; ok {
		delete(r.sessions, code)
		r.logger.Info("session removed", "code", code)
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions that are empty or idle past the timeout. It returns
// the removed codes.
func (r *Registry) Sweep() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	var removed []string
	for code, s := range r.sessions {
		if s.MemberCount() == 0 || (r.idleTimeout > 0 && s.idleSince(now) >= r.idleTimeout) {
			delete(r.sessions, code)
			removed = append(removed, code)
		}
	}
	if len(removed) > 0 {
		r.logger.Info("sessions swept", "count", len(removed))
	}
	return removed
}

// RunSweeper sweeps at the given interval until ctx is cancelled.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
