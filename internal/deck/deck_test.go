package deck

import (
	"math/rand"
	"testing"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	cards := New()
	if len(cards) != 52 {
		t.Fatalf("expected 52 cards, got %d", len(cards))
	}

	seen := make(map[Card]bool)
	for _, c := range cards {
		if seen[c] {
			t.Errorf("duplicate card %s", c)
		}
		seen[c] = true
	}
}

func TestNewDeckGenerationOrderIsFixed(t *testing.T) {
	a := New()
	b := New()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("generation order differs at index %d: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	original := New()
	snapshot := make([]Card, len(original))
	copy(snapshot, original)

	rng := rand.New(rand.NewSource(1))
	shuffled := Shuffle(original, rng)

	for i := range original {
		if original[i] != snapshot[i] {
			t.Fatalf("input deck mutated at index %d", i)
		}
	}
	if len(shuffled) != len(original) {
		t.Fatalf("shuffle changed deck size: %d", len(shuffled))
	}

	// Same multiset of cards
	seen := make(map[Card]int)
	for _, c := range shuffled {
		seen[c]++
	}
	for _, c := range original {
		if seen[c] != 1 {
			t.Errorf("card %s appears %d times after shuffle", c, seen[c])
		}
	}
}

func TestShuffleIsDeterministicForSameSeed(t *testing.T) {
	a := Shuffle(New(), rand.New(rand.NewSource(42)))
	b := Shuffle(New(), rand.New(rand.NewSource(42)))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seeded shuffles diverge at index %d", i)
		}
	}
}

func TestHandForIsStableWithinARound(t *testing.T) {
	first := HandFor("player-1", "round-abc", 5)
	second := HandFor("player-1", "round-abc", 5)

	if len(first) != 5 {
		t.Fatalf("expected 5 cards, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("re-derived hand differs at index %d: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestHandForDiffersAcrossRoundsAndPlayers(t *testing.T) {
	base := HandFor("player-1", "round-abc", 7)
	otherRound := HandFor("player-1", "round-def", 7)
	otherPlayer := HandFor("player-2", "round-abc", 7)

	same := func(a, b []Card) bool {
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}

	if same(base, otherRound) {
		t.Error("hand did not change across rounds")
	}
	if same(base, otherPlayer) {
		t.Error("hand did not change across players")
	}
}

func TestHandForContainsNoDuplicates(t *testing.T) {
	hand := HandFor("p", "r", 7)
	seen := make(map[Card]bool)
	for _, c := range hand {
		if seen[c] {
			t.Errorf("duplicate card %s in derived hand", c)
		}
		seen[c] = true
	}
}

func TestDrawCommunityExcludesUsedValues(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	excluded := map[Value]bool{Five: true, King: true, Ace: true}

	for i := 0; i < 200; i++ {
		card, ok := DrawCommunity(rng, excluded)
		if !ok {
			t.Fatal("draw failed with values remaining")
		}
		if excluded[card.Value] {
			t.Fatalf("drew excluded value %s", card)
		}
	}
}

func TestDrawCommunityExhaustsAllValues(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	excluded := make(map[Value]bool)
	for v := Ace; v <= King; v++ {
		excluded[v] = true
	}

	if _, ok := DrawCommunity(rng, excluded); ok {
		t.Fatal("expected draw to fail with all values excluded")
	}
}
