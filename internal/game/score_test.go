package game

import (
	"testing"

	"github.com/vegaslive/server/internal/deck"
)

func TestScoreEmptyHandIsZero(t *testing.T) {
	if got := Score(nil, RuleMin); got != 0 {
		t.Errorf("empty hand min score = %d, want 0", got)
	}
	if got := Score(nil, RuleMax); got != 0 {
		t.Errorf("empty hand max score = %d, want 0", got)
	}
}

func TestScoreAceKingSeven(t *testing.T) {
	hand := []deck.Card{
		deck.NewCard(deck.Ace, deck.Spades),
		deck.NewCard(deck.King, deck.Hearts),
		deck.NewCard(deck.Seven, deck.Clubs),
	}

	if got := Score(hand, RuleMin); got != 18 {
		t.Errorf("min score = %d, want 18", got)
	}
	if got := Score(hand, RuleMax); got != 28 {
		t.Errorf("max score = %d, want 28", got)
	}
}

func TestScoreFaceCardsWorthTen(t *testing.T) {
	hand := []deck.Card{
		deck.NewCard(deck.Jack, deck.Spades),
		deck.NewCard(deck.Queen, deck.Hearts),
		deck.NewCard(deck.King, deck.Diamonds),
	}
	if got := Score(hand, RuleMin); got != 30 {
		t.Errorf("face card score = %d, want 30", got)
	}
}

func TestScoreMinNeverExceedsMax(t *testing.T) {
	// Every hand: min <= max, equal exactly when the hand has no Ace
	full := deck.New()
	for i := 0; i < len(full)-2; i++ {
		hand := full[i : i+3]
		minScore := Score(hand, RuleMin)
		maxScore := Score(hand, RuleMax)

		if minScore > maxScore {
			t.Fatalf("hand %v: min %d > max %d", hand, minScore, maxScore)
		}

		aces := 0
		for _, c := range hand {
			if c.Value == deck.Ace {
				aces++
			}
		}
		if aces == 0 && minScore != maxScore {
			t.Fatalf("hand %v has no ace but min %d != max %d", hand, minScore, maxScore)
		}
		if aces > 0 && maxScore-minScore != 10*aces {
			t.Fatalf("hand %v: %d aces but spread %d", hand, aces, maxScore-minScore)
		}
	}
}

func TestParseRule(t *testing.T) {
	if r, err := ParseRule("min"); err != nil || r != RuleMin {
		t.Errorf("ParseRule(min) = %v, %v", r, err)
	}
	if r, err := ParseRule("max"); err != nil || r != RuleMax {
		t.Errorf("ParseRule(max) = %v, %v", r, err)
	}
	if _, err := ParseRule("avg"); err == nil {
		t.Error("expected error for unknown rule")
	}
}
