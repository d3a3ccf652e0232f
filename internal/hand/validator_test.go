package hand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieu-lee/bluffpoker/internal/deck"
)

func cards(pairs ...deck.Card) []deck.Card { return pairs }

func c(suit deck.Suit, rank deck.Rank) deck.Card { return deck.NewCard(suit, rank) }

func TestExistsByCount(t *testing.T) {
	pool := cards(
		c(deck.Hearts, deck.King), c(deck.Spades, deck.King), c(deck.Clubs, deck.King),
		c(deck.Hearts, deck.Four), c(deck.Diamonds, deck.Four),
		c(deck.Spades, deck.Nine),
	)

	tests := []struct {
		name string
		h    Hand
		want bool
	}{
		{"high card present", Hand{Category: HighCard, PrimaryRank: deck.Nine}, true},
		{"high card absent", Hand{Category: HighCard, PrimaryRank: deck.Ace}, false},
		{"pair present", Hand{Category: Pair, PrimaryRank: deck.Four}, true},
		{"pair absent", Hand{Category: Pair, PrimaryRank: deck.Nine}, false},
		{"three of a kind present", Hand{Category: ThreeOfAKind, PrimaryRank: deck.King}, true},
		{"three of a kind short one", Hand{Category: ThreeOfAKind, PrimaryRank: deck.Four}, false},
		{"four of a kind absent", Hand{Category: FourOfAKind, PrimaryRank: deck.King}, false},
		{"two pairs present", Hand{Category: TwoPairs, PrimaryRank: deck.King, SecondaryRank: deck.Four}, true},
		{"two pairs one side missing", Hand{Category: TwoPairs, PrimaryRank: deck.King, SecondaryRank: deck.Nine}, false},
		{"full house present", Hand{Category: FullHouse, PrimaryRank: deck.King, SecondaryRank: deck.Four}, true},
		{"full house triple missing", Hand{Category: FullHouse, PrimaryRank: deck.Four, SecondaryRank: deck.King}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Exists(tt.h, pool)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Rank counts are checked independently per group; the same physical cards
// may back both halves of a Two Pairs or Full House claim.
func TestExistsCountBasedNotCardBased(t *testing.T) {
	pool := cards(
		c(deck.Hearts, deck.Eight), c(deck.Spades, deck.Eight),
		c(deck.Clubs, deck.Eight), c(deck.Diamonds, deck.Eight),
		c(deck.Hearts, deck.Two), c(deck.Spades, deck.Two),
	)

	ok, _ := Exists(Hand{Category: TwoPairs, PrimaryRank: deck.Eight, SecondaryRank: deck.Two}, pool)
	assert.True(t, ok)

	// Count 4 at one rank does not satisfy two pairs of distinct ranks...
	ok, _ = Exists(Hand{Category: TwoPairs, PrimaryRank: deck.Eight, SecondaryRank: deck.Five}, pool)
	assert.False(t, ok)

	// ...but a full house of 8s over 8s would need count >= 3 and >= 2 of the
	// same rank, which count-based checking allows.
	ok, _ = Exists(Hand{Category: FullHouse, PrimaryRank: deck.Eight, SecondaryRank: deck.Eight}, pool)
	assert.True(t, ok)
}

func TestExistsStraight(t *testing.T) {
	pool := cards(
		c(deck.Hearts, deck.Seven), c(deck.Spades, deck.Eight), c(deck.Clubs, deck.Nine),
		c(deck.Diamonds, deck.Ten), c(deck.Hearts, deck.Jack), c(deck.Hearts, deck.Two),
	)

	ok, run := Exists(Hand{Category: Straight, PrimaryRank: deck.Seven}, pool)
	assert.True(t, ok)
	assert.Equal(t, []deck.Rank{deck.Seven, deck.Eight, deck.Nine, deck.Ten, deck.Jack}, run)

	// Gapped sequence fails.
	ok, _ = Exists(Hand{Category: Straight, PrimaryRank: deck.Eight}, pool)
	assert.False(t, ok)

	// Removing one required card breaks it.
	short := pool[1:]
	ok, _ = Exists(Hand{Category: Straight, PrimaryRank: deck.Seven}, short)
	assert.False(t, ok)
}

func TestExistsStraightRejectsWheelAndWrap(t *testing.T) {
	// A-2-3-4-5 is never a straight here, even with all cards present.
	pool := cards(
		c(deck.Hearts, deck.Ace), c(deck.Spades, deck.Two), c(deck.Clubs, deck.Three),
		c(deck.Diamonds, deck.Four), c(deck.Hearts, deck.Five),
		c(deck.Spades, deck.Jack), c(deck.Clubs, deck.Queen), c(deck.Diamonds, deck.King),
	)

	ok, _ := Exists(Hand{Category: Straight, PrimaryRank: deck.Ace}, pool)
	assert.False(t, ok, "straight starting at Ace would wrap")

	// Starting above 10 wraps past Ace.
	ok, _ = Exists(Hand{Category: Straight, PrimaryRank: deck.Jack}, pool)
	assert.False(t, ok)
}

func TestExistsFlushFamilies(t *testing.T) {
	pool := cards(
		c(deck.Hearts, deck.Ten), c(deck.Hearts, deck.Jack), c(deck.Hearts, deck.Queen),
		c(deck.Hearts, deck.King), c(deck.Hearts, deck.Ace),
		c(deck.Spades, deck.Nine), c(deck.Spades, deck.Ten),
	)

	flush := Hand{Category: Flush, Suit: deck.Hearts,
		Ranks: []deck.Rank{deck.Ten, deck.Jack, deck.Queen, deck.King, deck.Ace}}
	ok, _ := Exists(flush, pool)
	assert.True(t, ok)

	// Same ranks, wrong suit.
	wrongSuit := flush
	wrongSuit.Suit = deck.Spades
	ok, _ = Exists(wrongSuit, pool)
	assert.False(t, ok)

	ok, run := Exists(Hand{Category: StraightFlush, Suit: deck.Hearts, PrimaryRank: deck.Ten}, pool)
	assert.True(t, ok)
	assert.Equal(t, []deck.Rank{deck.Ten, deck.Jack, deck.Queen, deck.King, deck.Ace}, run)

	ok, run = Exists(Hand{Category: RoyalFlush, Suit: deck.Hearts}, pool)
	assert.True(t, ok)
	assert.Equal(t, []deck.Rank{deck.Ten, deck.Jack, deck.Queen, deck.King, deck.Ace}, run)

	ok, _ = Exists(Hand{Category: RoyalFlush, Suit: deck.Spades}, pool)
	assert.False(t, ok)
}

func TestExistsDoesNotMutateClaim(t *testing.T) {
	h := Hand{Category: Straight, PrimaryRank: deck.Seven}
	pool := cards(c(deck.Hearts, deck.Seven))

	_, run := Exists(h, pool)
	require.NotNil(t, run)
	assert.Nil(t, h.Ranks, "claim must stay immutable through validation")
}
