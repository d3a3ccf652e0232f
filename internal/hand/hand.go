// Package hand implements the claim model for the bluffing game: the ten
// poker-hand categories a player may call, a text parser for call
// specifications, an existence check against a pool of cards, and the total
// order used to enforce strictly increasing calls.
package hand

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hieu-lee/bluffpoker/internal/deck"
)

// Category identifies one of the ten callable hand shapes. The numeric value
// is the primary sort key when comparing calls.
type Category int

const (
	HighCard Category = iota + 1
	Pair
	TwoPairs
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the display name of the category
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPairs:
		return "Two Pairs"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// Hand is a claimed poker hand. Which fields are meaningful is determined by
// Category; the others stay at their zero value and are ignored everywhere.
//
//	PrimaryRank   pair/triple/quad rank, or the lowest rank of a straight
//	SecondaryRank second pair (TwoPairs) or pair rank (FullHouse)
//	Suit          flush families only
//	Ranks         flush only: the five claimed ranks
//
// A Hand is immutable once constructed.
type Hand struct {
	Category      Category
	PrimaryRank   deck.Rank
	SecondaryRank deck.Rank
	Suit          deck.Suit
	Ranks         []deck.Rank
}

// String renders the hand the way players type it, e.g.
// "Pair of Kings", "Straight from 7", "Flush of Hearts: A,10,8,4,2".
func (h Hand) String() string {
	switch h.Category {
	case HighCard:
		return fmt.Sprintf("High Card %s", h.PrimaryRank.Name())
	case Pair:
		return fmt.Sprintf("Pair of %ss", h.PrimaryRank.Name())
	case TwoPairs:
		return fmt.Sprintf("Two Pairs: %ss and %ss", h.PrimaryRank.Name(), h.SecondaryRank.Name())
	case ThreeOfAKind:
		return fmt.Sprintf("Three of a Kind: %ss", h.PrimaryRank.Name())
	case Straight:
		return fmt.Sprintf("Straight from %s", h.PrimaryRank.Name())
	case Flush:
		names := make([]string, 0, len(h.Ranks))
		for _, r := range sortedDesc(h.Ranks) {
			names = append(names, r.Name())
		}
		return fmt.Sprintf("Flush of %s: %s", h.Suit.Name(), strings.Join(names, ","))
	case FullHouse:
		return fmt.Sprintf("Full House: Three %ss, Two %ss", h.PrimaryRank.Name(), h.SecondaryRank.Name())
	case FourOfAKind:
		return fmt.Sprintf("Four of a Kind: %ss", h.PrimaryRank.Name())
	case StraightFlush:
		return fmt.Sprintf("Straight Flush %s from %s", h.Suit.Name(), h.PrimaryRank.Name())
	case RoyalFlush:
		return fmt.Sprintf("Royal Flush %s", h.Suit.Name())
	default:
		return "Unknown Hand"
	}
}

// StraightRanks returns the five consecutive ranks a straight-family claim
// asserts, lowest first. Royal flushes are always 10 through Ace. Returns nil
// for categories with no implied run.
func (h Hand) StraightRanks() []deck.Rank {
	switch h.Category {
	case Straight, StraightFlush:
		ranks := make([]deck.Rank, 5)
		for i := range ranks {
			ranks[i] = h.PrimaryRank + deck.Rank(i)
		}
		return ranks
	case RoyalFlush:
		return []deck.Rank{deck.Ten, deck.Jack, deck.Queen, deck.King, deck.Ace}
	default:
		return nil
	}
}

func sortedDesc(ranks []deck.Rank) []deck.Rank {
	out := make([]deck.Rank, len(ranks))
	copy(out, ranks)
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out
}

func maxRank(ranks []deck.Rank) deck.Rank {
	max := deck.Rank(0)
	for _, r := range ranks {
		if r > max {
			max = r
		}
	}
	return max
}
