package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieu-lee/bluffpoker/internal/deck"
	"github.com/hieu-lee/bluffpoker/internal/game"
	"github.com/hieu-lee/bluffpoker/internal/hand"
)

func mustParse(t *testing.T, spec string) hand.Hand {
	t.Helper()
	h, err := hand.Parse(spec)
	require.NoError(t, err)
	return h
}

func TestSpecForRoundTrips(t *testing.T) {
	hands := []hand.Hand{
		{Category: hand.HighCard, PrimaryRank: deck.Ten},
		{Category: hand.Pair, PrimaryRank: deck.King},
		{Category: hand.TwoPairs, PrimaryRank: deck.Queen, SecondaryRank: deck.Four},
		{Category: hand.ThreeOfAKind, PrimaryRank: deck.Ace},
		{Category: hand.Straight, PrimaryRank: deck.Seven},
		{Category: hand.FullHouse, PrimaryRank: deck.Nine, SecondaryRank: deck.Two},
		{Category: hand.FourOfAKind, PrimaryRank: deck.Jack},
	}

	for _, h := range hands {
		spec := specFor(h)
		require.NotEmpty(t, spec)
		parsed := mustParse(t, spec)
		assert.Equal(t, 0, hand.Compare(h, parsed), "spec %q parsed differently", spec)
	}
}

func TestNextClaimIsStrictlyHigher(t *testing.T) {
	// Walk the ladder from the bottom and check every step climbs.
	current := hand.Hand{Category: hand.HighCard, PrimaryRank: deck.Two}
	for i := 0; i < 300; i++ {
		next, ok := nextClaim(current, nil)
		if !ok {
			assert.Equal(t, hand.FourOfAKind, current.Category)
			assert.Equal(t, deck.Ace, current.PrimaryRank)
			return
		}
		require.Positive(t, hand.Compare(next, current),
			"step %d: %s does not beat %s", i, next, current)
		current = next
	}
	t.Fatal("ladder did not terminate")
}

func TestNextClaimPrefersOwnedRanks(t *testing.T) {
	own := []deck.Card{
		{Suit: deck.Spades, Rank: deck.King},
		{Suit: deck.Hearts, Rank: deck.Seven},
	}

	next, ok := nextClaim(hand.Hand{Category: hand.Pair, PrimaryRank: deck.Five}, own)
	require.True(t, ok)
	assert.Equal(t, hand.Pair, next.Category)
	assert.Equal(t, deck.Seven, next.PrimaryRank, "smallest owned rank above the claim")
}

func TestNextClaimNeverClaimsFlush(t *testing.T) {
	_, ok := nextClaim(hand.Hand{Category: hand.Flush, Suit: deck.Hearts}, nil)
	assert.False(t, ok)

	_, ok = nextClaim(hand.Hand{Category: hand.RoyalFlush, Suit: deck.Spades}, nil)
	assert.False(t, ok)
}

func TestOpeningClaimUsesBestOwnCard(t *testing.T) {
	own := []deck.Card{
		{Suit: deck.Clubs, Rank: deck.Four},
		{Suit: deck.Diamonds, Rank: deck.Queen},
	}
	assert.Equal(t, "high card queen", openingClaim(own))
}

func TestPlausibility(t *testing.T) {
	ownPair := []deck.Card{
		{Suit: deck.Spades, Rank: deck.King},
		{Suit: deck.Hearts, Rank: deck.King},
	}

	// Holding the pair makes the claim safe regardless of pool size.
	assert.True(t, plausible(hand.Hand{Category: hand.Pair, PrimaryRank: deck.King}, ownPair, 4))

	// Four of a kind with no support and a tiny pool is not credible.
	assert.False(t, plausible(hand.Hand{Category: hand.FourOfAKind, PrimaryRank: deck.Two}, ownPair, 4))
}

func TestDecideOpensWithOwnHighCard(t *testing.T) {
	state := game.State{
		Phase:       game.PhasePlaying,
		Players:     []game.PlayerState{{UserID: "b", CardCount: 1}, {UserID: "o", CardCount: 1}},
		RoundNumber: 1,
	}
	own := []deck.Card{{Suit: deck.Hearts, Rank: deck.Nine}}

	b := &Bot{}
	spec, bluff := b.Decide(state, own)
	assert.False(t, bluff)
	assert.Equal(t, "high card 9", spec)
}

func TestDecideChallengesUnreadableClaim(t *testing.T) {
	// Full house claims render in a form the grammar does not read back.
	state := game.State{
		Phase:       game.PhasePlaying,
		Players:     []game.PlayerState{{CardCount: 2}, {CardCount: 2}},
		CurrentCall: &game.CallState{PlayerID: "o", Hand: "Full House: Three 8s, Two 9s"},
	}

	b := &Bot{}
	_, bluff := b.Decide(state, nil)
	assert.True(t, bluff)
}

func TestDecideChallengesImplausibleClaim(t *testing.T) {
	state := game.State{
		Phase:       game.PhasePlaying,
		Players:     []game.PlayerState{{CardCount: 1}, {CardCount: 1}},
		CurrentCall: &game.CallState{PlayerID: "o", Hand: "Four of a Kind Aces"},
	}
	own := []deck.Card{{Suit: deck.Clubs, Rank: deck.Two}}

	b := &Bot{}
	_, bluff := b.Decide(state, own)
	assert.True(t, bluff, "nothing above four aces exists")
}

func TestTurnSignatureChangesWithCalls(t *testing.T) {
	s := game.State{GameID: "g1", RoundNumber: 2}
	sigEmpty := turnSignature(s)

	s.CurrentCall = &game.CallState{Hand: "Pair of Kings"}
	sigCall := turnSignature(s)

	assert.NotEqual(t, sigEmpty, sigCall)

	s.RoundNumber = 3
	assert.NotEqual(t, sigCall, turnSignature(s))
}
