package hand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieu-lee/bluffpoker/internal/deck"
)

// ladder is a strictly increasing sequence of claims covering all ten
// categories.
var ladder = []Hand{
	{Category: HighCard, PrimaryRank: deck.Nine},
	{Category: HighCard, PrimaryRank: deck.Ace},
	{Category: Pair, PrimaryRank: deck.Two},
	{Category: Pair, PrimaryRank: deck.King},
	{Category: TwoPairs, PrimaryRank: deck.Five, SecondaryRank: deck.Three},
	{Category: TwoPairs, PrimaryRank: deck.Ace, SecondaryRank: deck.Four},
	{Category: ThreeOfAKind, PrimaryRank: deck.Two},
	{Category: Straight, PrimaryRank: deck.Four},
	{Category: Straight, PrimaryRank: deck.Ten},
	{Category: Flush, Suit: deck.Hearts, Ranks: []deck.Rank{deck.Nine, deck.Seven, deck.Five, deck.Three, deck.Two}},
	{Category: Flush, Suit: deck.Clubs, Ranks: []deck.Rank{deck.Ace, deck.Seven, deck.Five, deck.Three, deck.Two}},
	{Category: FullHouse, PrimaryRank: deck.Three, SecondaryRank: deck.Two},
	{Category: FullHouse, PrimaryRank: deck.Three, SecondaryRank: deck.Ten},
	{Category: FullHouse, PrimaryRank: deck.Ace, SecondaryRank: deck.Two},
	{Category: FourOfAKind, PrimaryRank: deck.Six},
	{Category: StraightFlush, Suit: deck.Spades, PrimaryRank: deck.Two},
	{Category: StraightFlush, Suit: deck.Hearts, PrimaryRank: deck.Nine},
	{Category: RoyalFlush, Suit: deck.Diamonds},
}

func TestCompareLadderIsStrictlyIncreasing(t *testing.T) {
	for i := range ladder {
		for j := range ladder {
			got := Compare(ladder[i], ladder[j])
			switch {
			case i < j:
				assert.Negative(t, got, "ladder[%d] should rank below ladder[%d]", i, j)
			case i > j:
				assert.Positive(t, got, "ladder[%d] should rank above ladder[%d]", i, j)
			default:
				assert.Zero(t, got, "ladder[%d] should equal itself", i)
			}
		}
	}
}

func TestCompareTransitivity(t *testing.T) {
	for i := 0; i+2 < len(ladder); i++ {
		a, b, c := ladder[i], ladder[i+1], ladder[i+2]
		require.Negative(t, Compare(a, b))
		require.Negative(t, Compare(b, c))
		assert.Negative(t, Compare(a, c))
	}
}

func TestCompareTwoPairsTupleOrder(t *testing.T) {
	// (3,5) vs (2,Ace): lower pair compares first.
	a := Hand{Category: TwoPairs, PrimaryRank: deck.Five, SecondaryRank: deck.Three}
	b := Hand{Category: TwoPairs, PrimaryRank: deck.Ace, SecondaryRank: deck.Two}
	assert.Positive(t, Compare(a, b))

	// Same lower pair, higher pair breaks the tie.
	c := Hand{Category: TwoPairs, PrimaryRank: deck.King, SecondaryRank: deck.Three}
	assert.Negative(t, Compare(a, c))

	// Storage order of the two ranks is irrelevant.
	d := Hand{Category: TwoPairs, PrimaryRank: deck.Three, SecondaryRank: deck.Five}
	assert.Zero(t, Compare(a, d))
}

func TestCompareRoyalFlushesAlwaysEqual(t *testing.T) {
	for _, s1 := range deck.Suits {
		for _, s2 := range deck.Suits {
			assert.Zero(t, Compare(Hand{Category: RoyalFlush, Suit: s1}, Hand{Category: RoyalFlush, Suit: s2}))
		}
	}
}

func TestCompareFlushByHighestRank(t *testing.T) {
	low := Hand{Category: Flush, Suit: deck.Hearts, Ranks: []deck.Rank{deck.Two, deck.Four, deck.Six, deck.Eight, deck.Jack}}
	high := Hand{Category: Flush, Suit: deck.Hearts, Ranks: []deck.Rank{deck.Two, deck.Three, deck.Four, deck.Five, deck.Queen}}
	assert.Negative(t, Compare(low, high))
}

func TestIsValidNextCall(t *testing.T) {
	pairKings := Hand{Category: Pair, PrimaryRank: deck.King}

	assert.True(t, IsValidNextCall(pairKings, Hand{Category: Pair, PrimaryRank: deck.Ace}))
	assert.True(t, IsValidNextCall(pairKings, Hand{Category: ThreeOfAKind, PrimaryRank: deck.Two}))

	// Equal or lower is rejected.
	assert.False(t, IsValidNextCall(pairKings, pairKings))
	assert.False(t, IsValidNextCall(pairKings, Hand{Category: Pair, PrimaryRank: deck.Queen}))
	assert.False(t, IsValidNextCall(pairKings, Hand{Category: HighCard, PrimaryRank: deck.Ace}))

	// Every ladder step is a valid next call over any earlier step.
	for i := 0; i+1 < len(ladder); i++ {
		assert.True(t, IsValidNextCall(ladder[i], ladder[i+1]))
		assert.False(t, IsValidNextCall(ladder[i+1], ladder[i]))
	}
}
