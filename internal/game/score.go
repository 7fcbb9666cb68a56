package game

import (
	"fmt"

	"github.com/vegaslive/server/internal/deck"
)

// Rule is the Ace-value rule a player declares under: Aces count 1 under
// min and 11 under max.
type Rule int

const (
	RuleNone Rule = iota
	RuleMin
	RuleMax
)

// String returns the wire representation of a rule
func (r Rule) String() string {
	switch r {
	case RuleMin:
		return "min"
	case RuleMax:
		return "max"
	default:
		return ""
	}
}

// ParseRule parses a wire rule string
func ParseRule(s string) (Rule, error) {
	switch s {
	case "min":
		return RuleMin, nil
	case "max":
		return RuleMax, nil
	default:
		return RuleNone, fmt.Errorf("invalid rule %q", s)
	}
}

// Score sums a hand under the given rule: numeral cards 2-10 contribute
// their face value, J/Q/K contribute 10, Aces contribute 1 (min) or
// 11 (max). An empty hand scores 0. Pure: any party holding the same hand
// and rule re-derives the same score, which is the basis of declaration
// validation.
func Score(hand []deck.Card, rule Rule) int {
	total := 0
	for _, c := range hand {
		switch {
		case c.Value == deck.Ace:
			if rule == RuleMax {
				total += 11
			} else {
				total += 1
			}
		case c.Value.IsFace():
			total += 10
		default:
			total += int(c.Value)
		}
	}
	return total
}
