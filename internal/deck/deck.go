package deck

import "math/rand"

// New returns the 52 (value, suit) combinations exactly once each, in a
// fixed generation order. No shuffling is performed here.
func New() []Card {
	cards := make([]Card, 0, 52)
	for suit := Spades; suit <= Clubs; suit++ {
		for value := Ace; value <= King; value++ {
			cards = append(cards, NewCard(value, suit))
		}
	}
	return cards
}

// Shuffle returns a uniform random permutation of cards using the
// Fisher-Yates algorithm. The input slice is not mutated; callers that
// need determinism pass a seeded rng.
func Shuffle(cards []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// DrawCommunity draws one shared card uniformly from the value×suit space,
// excluding every value in excluded. Returns false when all 13 values are
// exhausted. Revealed-value uniqueness within a round is enforced by the
// caller passing the already-revealed values.
func DrawCommunity(rng *rand.Rand, excluded map[Value]bool) (Card, bool) {
	candidates := make([]Card, 0, 52)
	for _, c := range New() {
		if !excluded[c.Value] {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return Card{}, false
	}
	return candidates[rng.Intn(len(candidates))], true
}
