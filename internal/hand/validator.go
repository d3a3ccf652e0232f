package hand

import "github.com/hieu-lee/bluffpoker/internal/deck"

// Exists reports whether the claimed hand can be found in the supplied pool
// of cards (a round's full multiset, every player's cards combined). For the
// straight family it also returns the five ranks the claim asserts so callers
// can display them; the claim itself is never modified.
//
// Counting is per rank, not per physical card: Two Pairs and Full House pass
// when each named rank has enough copies individually, without requiring the
// groups to be disjoint. That matches the game's "does this exist" query.
func Exists(h Hand, cards []deck.Card) (bool, []deck.Rank) {
	switch h.Category {
	case HighCard:
		return rankCounts(cards)[h.PrimaryRank] >= 1, nil
	case Pair:
		return rankCounts(cards)[h.PrimaryRank] >= 2, nil
	case TwoPairs:
		counts := rankCounts(cards)
		return counts[h.PrimaryRank] >= 2 && counts[h.SecondaryRank] >= 2, nil
	case ThreeOfAKind:
		return rankCounts(cards)[h.PrimaryRank] >= 3, nil
	case FourOfAKind:
		return rankCounts(cards)[h.PrimaryRank] >= 4, nil
	case FullHouse:
		counts := rankCounts(cards)
		return counts[h.PrimaryRank] >= 3 && counts[h.SecondaryRank] >= 2, nil
	case Straight:
		run := h.StraightRanks()
		if !runInBounds(run) {
			return false, run
		}
		counts := rankCounts(cards)
		for _, r := range run {
			if counts[r] == 0 {
				return false, run
			}
		}
		return true, run
	case Flush:
		return allInSuit(cards, h.Suit, h.Ranks), nil
	case StraightFlush:
		run := h.StraightRanks()
		if !runInBounds(run) {
			return false, run
		}
		return allInSuit(cards, h.Suit, run), run
	case RoyalFlush:
		run := h.StraightRanks()
		return allInSuit(cards, h.Suit, run), run
	default:
		return false, nil
	}
}

func rankCounts(cards []deck.Card) map[deck.Rank]int {
	counts := make(map[deck.Rank]int, len(cards))
	for _, c := range cards {
		counts[c.Rank]++
	}
	return counts
}

// runInBounds rejects straights that would start below 2 or wrap past Ace.
// There is no ace-low wheel in this game; the top straight is 10-J-Q-K-A.
func runInBounds(run []deck.Rank) bool {
	for _, r := range run {
		if !r.Valid() {
			return false
		}
	}
	return len(run) == 5
}

// allInSuit reports whether every rank in ranks appears among the cards of
// the given suit.
func allInSuit(cards []deck.Card, suit deck.Suit, ranks []deck.Rank) bool {
	if len(ranks) == 0 {
		return false
	}
	present := make(map[deck.Rank]bool)
	for _, c := range cards {
		if c.Suit == suit {
			present[c.Rank] = true
		}
	}
	for _, r := range ranks {
		if !present[r] {
			return false
		}
	}
	return true
}
