package game

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieu-lee/bluffpoker/internal/deck"
	"github.com/hieu-lee/bluffpoker/internal/hand"
	"github.com/hieu-lee/bluffpoker/internal/randutil"
)

type stubDirectory map[string]User

func (d stubDirectory) UserByID(id string) (User, bool) {
	u, ok := d[id]
	return u, ok
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestGame(t *testing.T, dir stubDirectory, userIDs ...string) *Game {
	t.Helper()
	g := New(dir, randutil.New(7), quartz.NewMock(t), testLogger())
	for _, id := range userIDs {
		require.True(t, g.AddPlayer(User{ID: id, Username: "name-" + id}))
	}
	return g
}

func TestAddPlayerWaitingPhase(t *testing.T) {
	g := newTestGame(t, nil, "p1")

	// Duplicate join is idempotent.
	assert.True(t, g.AddPlayer(User{ID: "p1", Username: "name-p1"}))
	assert.Equal(t, 1, g.PlayerCount())

	for i := 0; i < MaxPlayers-1; i++ {
		assert.True(t, g.AddPlayer(User{ID: string(rune('a' + i))}))
	}
	assert.Equal(t, MaxPlayers, g.PlayerCount())

	// Ninth player is rejected, not queued, while waiting.
	assert.False(t, g.AddPlayer(User{ID: "overflow"}))
	assert.Empty(t, g.WaitingPlayerIDs())
}

func TestJoinDuringGameGoesToWaitingList(t *testing.T) {
	g := newTestGame(t, nil, "p1", "p2")
	require.True(t, g.Start())

	assert.False(t, g.AddPlayer(User{ID: "late"}))
	assert.Equal(t, []string{"late"}, g.WaitingPlayerIDs())
	assert.Equal(t, 2, g.PlayerCount())

	// Queueing twice keeps a single entry.
	assert.False(t, g.AddPlayer(User{ID: "late"}))
	assert.Len(t, g.WaitingPlayerIDs(), 1)
}

func TestStartRequiresTwoPlayers(t *testing.T) {
	g := newTestGame(t, nil, "p1")
	assert.False(t, g.CanStart())
	assert.False(t, g.Start())

	g.AddPlayer(User{ID: "p2"})
	assert.True(t, g.CanStart())
	assert.True(t, g.Start())
	assert.Equal(t, PhasePlaying, g.Phase)
	assert.Equal(t, 1, g.RoundNumber)
}

func TestDealingCountsAndPool(t *testing.T) {
	g := newTestGame(t, nil, "p1", "p2", "p3")
	require.True(t, g.Start())

	// Give one player extra losses and redeal so hand sizes differ.
	g.players["p2"].Losses = 2
	require.NoError(t, g.startNewRound())

	r := g.CurrentRound()
	require.NotNil(t, r)
	assert.Equal(t, RoundCalling, r.Phase)

	total := 0
	seen := make(map[deck.Card]bool)
	for _, p := range r.Players {
		assert.Equal(t, p.Losses+1, p.CardCount(), "player %s", p.User.ID)
		total += p.CardCount()
		for _, card := range p.Cards {
			assert.False(t, seen[card], "card %s dealt twice", card)
			seen[card] = true
		}
	}
	assert.Len(t, r.AllCards, total)
}

func TestMakeHandCallTurnAndOrdering(t *testing.T) {
	g := newTestGame(t, nil, "p1", "p2")
	require.True(t, g.Start())

	r := g.CurrentRound()
	first := r.CurrentPlayerID
	second := r.NextPlayerID(first)

	// Out-of-turn call rejected without state change.
	ok, reason := g.MakeHandCall(second, hand.Hand{Category: hand.Pair, PrimaryRank: deck.Ace})
	assert.False(t, ok)
	assert.Equal(t, "Not your turn", reason)
	assert.Empty(t, r.Calls)

	ok, _ = g.MakeHandCall(first, hand.Hand{Category: hand.Pair, PrimaryRank: deck.Ace})
	require.True(t, ok)
	assert.Equal(t, second, r.CurrentPlayerID)

	// Next call must be strictly higher.
	ok, reason = g.MakeHandCall(second, hand.Hand{Category: hand.Pair, PrimaryRank: deck.Ace})
	assert.False(t, ok)
	assert.Equal(t, "Hand call must be higher than previous call", reason)
	assert.Len(t, r.Calls, 1)

	ok, _ = g.MakeHandCall(second, hand.Hand{Category: hand.ThreeOfAKind, PrimaryRank: deck.King})
	require.True(t, ok)
	assert.Len(t, r.Calls, 2)
	assert.Equal(t, first, r.CurrentPlayerID, "turn wraps back to the first player")
}

func TestCallBluffResolution(t *testing.T) {
	g := newTestGame(t, nil, "p1", "p2")
	require.True(t, g.Start())

	r := g.CurrentRound()
	caller := r.CurrentPlayerID
	challenger := r.NextPlayerID(caller)

	// Challenging with no call on the table is rejected.
	res := g.CallBluff(caller)
	assert.False(t, res.OK)
	assert.Equal(t, "No hand call to bluff", res.Reason)

	claim := hand.Hand{Category: hand.ThreeOfAKind, PrimaryRank: deck.King}
	ok, _ := g.MakeHandCall(caller, claim)
	require.True(t, ok)

	// Did the claim actually exist in the round pool?
	exists, _ := hand.Exists(claim, r.AllCards)

	res = g.CallBluff(challenger)
	require.True(t, res.OK)
	assert.Equal(t, exists, res.HandExists)

	wantLoser := challenger
	if !exists {
		wantLoser = caller
	}
	assert.Equal(t, wantLoser, res.LoserID)
	assert.Equal(t, 1, g.Player(wantLoser).Losses)

	// A new round is dealt immediately.
	require.NotNil(t, g.CurrentRound())
	assert.Equal(t, 2, g.RoundNumber)
	assert.Equal(t, 2, g.Player(wantLoser).CardCount(), "loser is dealt losses+1 cards")
}

func TestRoundRotationSkipsEliminated(t *testing.T) {
	g := newTestGame(t, nil, "p1", "p2", "p3")
	require.True(t, g.Start())

	r := g.CurrentRound()
	require.Len(t, r.Players, 3)

	// Three calls wrap around to the starter.
	order := []string{r.CurrentPlayerID}
	for i := 0; i < 2; i++ {
		order = append(order, r.NextPlayerID(order[len(order)-1]))
	}
	assert.Equal(t, order[0], r.NextPlayerID(order[2]), "after the 3rd player the next is the 1st")

	// Eliminate the middle player; rotation skips them.
	g.players[order[1]].Eliminated = true
	assert.Equal(t, order[2], r.NextPlayerID(order[0]))
}

func TestEliminationAtFiveLosses(t *testing.T) {
	g := newTestGame(t, nil, "p1", "p2", "p3")
	require.True(t, g.Start())

	p := g.players["p1"]
	p.Losses = 3
	g.endRound("p1")
	assert.Equal(t, 4, p.Losses)
	assert.False(t, p.Eliminated, "a player at 4 losses is not eliminated")

	g.endRound("p1")
	assert.Equal(t, 5, p.Losses)
	assert.True(t, p.Eliminated)
}

func TestGameEndsWhenOneActiveRemains(t *testing.T) {
	var recorded []Result
	g := newTestGame(t, nil, "p1", "p2")
	g.OnResult(func(r Result) { recorded = append(recorded, r) })
	require.True(t, g.Start())

	g.RemovePlayer("p2")

	// End pivots straight back to Waiting with everything reset.
	assert.Equal(t, PhaseWaiting, g.Phase)
	assert.Equal(t, 0, g.RoundNumber)
	assert.Nil(t, g.CurrentRound())
	assert.Zero(t, g.players["p1"].Losses)

	require.Len(t, recorded, 1)
	assert.Equal(t, "p1", recorded[0].WinnerID)
}

func TestHandCallTimestampComesFromClock(t *testing.T) {
	clock := quartz.NewMock(t)
	g := New(nil, randutil.New(7), clock, testLogger())
	require.True(t, g.AddPlayer(User{ID: "p1", Username: "p1"}))
	require.True(t, g.AddPlayer(User{ID: "p2", Username: "p2"}))
	require.True(t, g.Start())

	clock.Advance(3 * time.Second)
	caller := g.current.CurrentPlayerID
	ok, _ := g.MakeHandCall(caller, hand.Hand{Category: hand.Pair, PrimaryRank: deck.Ace})
	require.True(t, ok)
	assert.True(t, g.current.CurrentCall().Timestamp.Equal(clock.Now()))
}

func TestWinnerRecordedOnElimination(t *testing.T) {
	var recorded []Result
	g := newTestGame(t, nil, "p1", "p2")
	g.OnResult(func(r Result) { recorded = append(recorded, r) })
	require.True(t, g.Start())

	g.players["p2"].Losses = 4
	g.endRound("p2")

	require.Len(t, recorded, 1)
	assert.Equal(t, "p1", recorded[0].WinnerID)
	assert.ElementsMatch(t, []string{"p1", "p2"}, recorded[0].PlayerIDs)
}

func TestWaitingPlayersMergedOnRestart(t *testing.T) {
	dir := stubDirectory{
		"late1": {ID: "late1", Username: "late1"},
		"late2": {ID: "late2", Username: "late2"},
	}
	g := newTestGame(t, dir, "p1", "p2")
	require.True(t, g.Start())

	g.AddPlayer(User{ID: "late1"})
	g.AddPlayer(User{ID: "offline"}) // not in the directory: stays queued
	g.AddPlayer(User{ID: "late2"})

	g.RemovePlayer("p2") // ends the game, triggers restart

	assert.Equal(t, PhaseWaiting, g.Phase)
	assert.NotNil(t, g.Player("late1"))
	assert.NotNil(t, g.Player("late2"))
	assert.Nil(t, g.Player("offline"))
	assert.Equal(t, []string{"offline"}, g.WaitingPlayerIDs())
}

func TestRemoveCurrentPlayerAdvancesTurn(t *testing.T) {
	g := newTestGame(t, nil, "p1", "p2", "p3")
	require.True(t, g.Start())

	r := g.CurrentRound()
	current := r.CurrentPlayerID
	next := r.NextPlayerID(current)

	g.RemovePlayer(current)

	require.Equal(t, PhasePlaying, g.Phase, "two players remain, game continues")
	assert.Equal(t, next, g.CurrentRound().CurrentPlayerID)
	assert.Len(t, g.CurrentRound().Players, 2)
}

func TestStateSnapshot(t *testing.T) {
	g := newTestGame(t, nil, "p1", "p2")
	require.True(t, g.Start())

	first := g.CurrentRound().CurrentPlayerID
	ok, _ := g.MakeHandCall(first, hand.Hand{Category: hand.Pair, PrimaryRank: deck.King})
	require.True(t, ok)

	s := g.State()
	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Equal(t, 1, s.RoundNumber)
	assert.Len(t, s.Players, 2)
	require.NotNil(t, s.CurrentCall)
	assert.Equal(t, "Pair of Kings", s.CurrentCall.Hand)
	assert.Equal(t, first, s.CurrentCall.PlayerID)
	for _, ps := range s.Players {
		assert.Equal(t, 1, ps.CardCount)
	}
}

func TestHandCallRejectedOutsidePlaying(t *testing.T) {
	g := newTestGame(t, nil, "p1", "p2")

	ok, reason := g.MakeHandCall("p1", hand.Hand{Category: hand.Pair, PrimaryRank: deck.Two})
	assert.False(t, ok)
	assert.Equal(t, "Not in calling phase", reason)

	res := g.CallBluff("p1")
	assert.False(t, res.OK)
	assert.Equal(t, "Not in calling phase", res.Reason)
}
