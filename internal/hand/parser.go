package hand

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hieu-lee/bluffpoker/internal/deck"
)

// ParseError reports a hand specification that could not be understood.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse hand specification %q: %s", e.Input, e.Reason)
}

// Pattern order matters: "straight flush" shares a prefix with both "royal
// flush"/"flush" and "straight", so the more specific forms must be tried
// first.
var (
	reRoyalFlush    = regexp.MustCompile(`^royal flush\s+(\w+)`)
	reStraightFlush = regexp.MustCompile(`^straight flush\s+(\w+)\s+from\s+(\w+)`)
	reStraight      = regexp.MustCompile(`^straight\s+from\s+(\w+)`)
	reFlush         = regexp.MustCompile(`^flush\s+(\w+)(?:\s+([\w\s]+))$`)
	reFlushLegacy   = regexp.MustCompile(`^flush\s+of\s+(\w+)[\s:\-,]*(.*)`)
	reFullHouse     = regexp.MustCompile(`^full house[\s:\-,]*3\s+(\w+)\s+and\s+2\s+(\w+)`)
	reTwoPairs      = regexp.MustCompile(`^(?:two pairs?)[\s:\-,]*(\w+)\s+and\s+(\w+)`)
	reThreeOfAKind  = regexp.MustCompile(`^(?:three of a kind|3 of a kind)[\s:\-,]*(\w+)`)
	reFourOfAKind   = regexp.MustCompile(`^(?:four of a kind|4 of a kind)[\s:\-,]*(\w+)`)
	rePair          = regexp.MustCompile(`^(?:pair of|pair)[\s:\-,]*(\w+)`)
	reHighCard      = regexp.MustCompile(`^(?:high card|highcard)[\s:\-,]*(\w+)`)
	reRankSplit     = regexp.MustCompile(`[,\s]+`)
)

// Parse converts a case-insensitive text specification into a Hand.
// Supported forms:
//
//	High Card <rank>
//	Pair of <rank>
//	Two Pairs <rank> and <rank>
//	Three of a Kind <rank>            (also "3 of a kind")
//	Straight from <rank>
//	Flush <suit> <r1> <r2> <r3> <r4> <r5>
//	Flush of <suit>: <r1>,<r2>,<r3>,<r4>,<r5>
//	Full House: 3 <rank> and 2 <rank>
//	Four of a Kind <rank>             (also "4 of a kind")
//	Straight Flush <suit> from <rank>
//	Royal Flush <suit>
func Parse(spec string) (Hand, error) {
	s := strings.ToLower(strings.TrimSpace(spec))

	if m := reRoyalFlush.FindStringSubmatch(s); m != nil {
		suit, err := parseSuit(spec, m[1])
		if err != nil {
			return Hand{}, err
		}
		return Hand{Category: RoyalFlush, Suit: suit}, nil
	}

	if m := reStraightFlush.FindStringSubmatch(s); m != nil {
		suit, err := parseSuit(spec, m[1])
		if err != nil {
			return Hand{}, err
		}
		rank, err := parseRank(spec, m[2])
		if err != nil {
			return Hand{}, err
		}
		return Hand{Category: StraightFlush, Suit: suit, PrimaryRank: rank}, nil
	}

	if m := reStraight.FindStringSubmatch(s); m != nil {
		rank, err := parseRank(spec, m[1])
		if err != nil {
			return Hand{}, err
		}
		return Hand{Category: Straight, PrimaryRank: rank}, nil
	}

	if m := reFlush.FindStringSubmatch(s); m != nil {
		return parseFlush(spec, m[1], m[2])
	}

	if m := reFlushLegacy.FindStringSubmatch(s); m != nil {
		return parseFlush(spec, m[1], m[2])
	}

	if m := reFullHouse.FindStringSubmatch(s); m != nil {
		triple, err := parseRank(spec, m[1])
		if err != nil {
			return Hand{}, err
		}
		pair, err := parseRank(spec, m[2])
		if err != nil {
			return Hand{}, err
		}
		return Hand{Category: FullHouse, PrimaryRank: triple, SecondaryRank: pair}, nil
	}

	if m := reTwoPairs.FindStringSubmatch(s); m != nil {
		r1, err := parseRank(spec, m[1])
		if err != nil {
			return Hand{}, err
		}
		r2, err := parseRank(spec, m[2])
		if err != nil {
			return Hand{}, err
		}
		hi, lo := r1, r2
		if lo > hi {
			hi, lo = lo, hi
		}
		return Hand{Category: TwoPairs, PrimaryRank: hi, SecondaryRank: lo}, nil
	}

	if m := reThreeOfAKind.FindStringSubmatch(s); m != nil {
		rank, err := parseRank(spec, m[1])
		if err != nil {
			return Hand{}, err
		}
		return Hand{Category: ThreeOfAKind, PrimaryRank: rank}, nil
	}

	if m := reFourOfAKind.FindStringSubmatch(s); m != nil {
		rank, err := parseRank(spec, m[1])
		if err != nil {
			return Hand{}, err
		}
		return Hand{Category: FourOfAKind, PrimaryRank: rank}, nil
	}

	if m := rePair.FindStringSubmatch(s); m != nil {
		rank, err := parseRank(spec, m[1])
		if err != nil {
			return Hand{}, err
		}
		return Hand{Category: Pair, PrimaryRank: rank}, nil
	}

	if m := reHighCard.FindStringSubmatch(s); m != nil {
		rank, err := parseRank(spec, m[1])
		if err != nil {
			return Hand{}, err
		}
		return Hand{Category: HighCard, PrimaryRank: rank}, nil
	}

	return Hand{}, &ParseError{Input: spec, Reason: "unrecognized hand"}
}

func parseFlush(spec, suitToken, ranksText string) (Hand, error) {
	suit, err := parseSuit(spec, suitToken)
	if err != nil {
		return Hand{}, err
	}

	tokens := reRankSplit.Split(strings.TrimSpace(ranksText), -1)
	ranks := make([]deck.Rank, 0, 5)
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		rank, err := parseRank(spec, tok)
		if err != nil {
			return Hand{}, err
		}
		ranks = append(ranks, rank)
	}
	if len(ranks) != 5 {
		return Hand{}, &ParseError{Input: spec, Reason: "flush must specify exactly 5 ranks"}
	}
	return Hand{Category: Flush, Suit: suit, Ranks: ranks}, nil
}

var rankTokens = map[string]deck.Rank{
	"2": deck.Two, "3": deck.Three, "4": deck.Four, "5": deck.Five,
	"6": deck.Six, "7": deck.Seven, "8": deck.Eight, "9": deck.Nine,
	"10":    deck.Ten,
	"jack":  deck.Jack, "j": deck.Jack,
	"queen": deck.Queen, "q": deck.Queen,
	"king": deck.King, "k": deck.King,
	"ace": deck.Ace, "a": deck.Ace,
}

var suitTokens = map[string]deck.Suit{
	"heart":   deck.Hearts,
	"diamond": deck.Diamonds,
	"club":    deck.Clubs,
	"spade":   deck.Spades,
}

// parseRank resolves a rank token, tolerating plurals ("kings", "10s").
func parseRank(spec, token string) (deck.Rank, error) {
	token = strings.TrimRight(strings.ToLower(token), "s")
	rank, ok := rankTokens[token]
	if !ok {
		return 0, &ParseError{Input: spec, Reason: fmt.Sprintf("unknown rank %q", token)}
	}
	return rank, nil
}

func parseSuit(spec, token string) (deck.Suit, error) {
	token = strings.TrimRight(strings.ToLower(token), "s")
	suit, ok := suitTokens[token]
	if !ok {
		return 0, &ParseError{Input: spec, Reason: fmt.Sprintf("unknown suit %q", token)}
	}
	return suit, nil
}
