package hand

// Compare imposes the game's total order over hand claims. It returns a
// positive number when a outranks b, negative when b outranks a, and zero for
// equal-strength claims. Category decides first; same-category ties break on
// the category's own rule.
func Compare(a, b Hand) int {
	if a.Category != b.Category {
		return int(a.Category) - int(b.Category)
	}

	switch a.Category {
	case HighCard, Pair, ThreeOfAKind, FourOfAKind, Straight, StraightFlush:
		return int(a.PrimaryRank) - int(b.PrimaryRank)
	case TwoPairs:
		return compareTwoPairs(a, b)
	case FullHouse:
		if d := int(a.PrimaryRank) - int(b.PrimaryRank); d != 0 {
			return d
		}
		return int(a.SecondaryRank) - int(b.SecondaryRank)
	case Flush:
		return int(maxRank(a.Ranks)) - int(maxRank(b.Ranks))
	case RoyalFlush:
		// Suit never matters for ranking; all royal flushes tie.
		return 0
	default:
		return 0
	}
}

// compareTwoPairs orders by the (lower pair, higher pair) tuple
// lexicographically, regardless of how the claim stored the two ranks.
func compareTwoPairs(a, b Hand) int {
	aLo, aHi := minMax(a.PrimaryRank, a.SecondaryRank)
	bLo, bHi := minMax(b.PrimaryRank, b.SecondaryRank)
	if d := int(aLo) - int(bLo); d != 0 {
		return d
	}
	return int(aHi) - int(bHi)
}

func minMax[T ~int](x, y T) (lo, hi T) {
	if x < y {
		return x, y
	}
	return y, x
}

// IsValidNextCall reports whether next is a legal follow-up to current: a
// call must be strictly higher than the one it answers.
func IsValidNextCall(current, next Hand) bool {
	return Compare(next, current) > 0
}
