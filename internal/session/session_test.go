package session

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieu-lee/bluffpoker/internal/game"
	"github.com/hieu-lee/bluffpoker/internal/randutil"
)

func newTestRegistry(t *testing.T) (*Registry, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	r := NewRegistry(randutil.New(11), clock, log.New(io.Discard))
	return r, clock
}

func newGame() *game.Game {
	return game.New(nil, randutil.New(11), quartz.NewReal(), log.New(io.Discard))
}

func TestCreateAssignsUniqueCodes(t *testing.T) {
	r, _ := newTestRegistry(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s, err := r.Create(newGame())
		require.NoError(t, err)
		require.Len(t, s.Code, codeLength)
		for _, c := range s.Code {
			assert.Contains(t, codeAlphabet, string(c))
			assert.NotContains(t, "0O1I", string(c))
		}
		assert.False(t, seen[s.Code], "code %s reused", s.Code)
		seen[s.Code] = true
	}
	assert.Equal(t, 50, r.Len())
}

func TestGetIsCaseInsensitive(t *testing.T) {
	r, _ := newTestRegistry(t)
	s, err := r.Create(newGame())
	require.NoError(t, err)

	got, ok := r.Get("  " + s.Code + " ")
	require.True(t, ok)
	assert.Same(t, s, got)

	got, ok = r.Get(string([]byte(s.Code))) // exact
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.Get("ZZZZZ")
	assert.False(t, ok)
}

func TestHostAssignmentAndMigration(t *testing.T) {
	r, _ := newTestRegistry(t)
	s, err := r.Create(newGame())
	require.NoError(t, err)

	s.Join("u1")
	s.Join("u2")
	s.Join("u3")
	s.Join("u2") // duplicate join is a no-op
	assert.Equal(t, "u1", s.HostID())
	assert.True(t, s.IsHost("u1"))
	assert.False(t, s.IsHost("u2"))
	assert.Equal(t, []string{"u1", "u2", "u3"}, s.Members())
	assert.True(t, s.IsMember("u2"))
	assert.False(t, s.IsMember("stranger"))

	// Non-host leaving does not change the host.
	newHost, empty := s.Leave("u2")
	assert.Empty(t, newHost)
	assert.False(t, empty)

	// Host leaving promotes the next member in connection order.
	newHost, empty = s.Leave("u1")
	assert.Equal(t, "u3", newHost)
	assert.False(t, empty)

	newHost, empty = s.Leave("u3")
	assert.Empty(t, newHost)
	assert.True(t, empty)
	assert.Equal(t, 0, s.MemberCount())
}

func TestSweepRemovesEmptySessions(t *testing.T) {
	r, _ := newTestRegistry(t)

	empty, err := r.Create(newGame())
	require.NoError(t, err)

	occupied, err := r.Create(newGame())
	require.NoError(t, err)
	occupied.Join("u1")

	removed := r.Sweep()
	assert.Equal(t, []string{empty.Code}, removed)
	assert.Equal(t, 1, r.Len())

	_, ok := r.Get(occupied.Code)
	assert.True(t, ok)
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	r, clock := newTestRegistry(t)
	r.SetIdleTimeout(time.Hour)

	s, err := r.Create(newGame())
	require.NoError(t, err)
	s.Join("u1")

	clock.Advance(30 * time.Minute)
	assert.Empty(t, r.Sweep(), "session active within the timeout")

	// Activity resets the idle clock.
	s.Do(func(*game.Game) {})
	clock.Advance(59 * time.Minute)
	assert.Empty(t, r.Sweep())

	clock.Advance(2 * time.Minute)
	removed := r.Sweep()
	assert.Equal(t, []string{s.Code}, removed)
	assert.Zero(t, r.Len())
}
