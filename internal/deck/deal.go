package deck

import (
	"hash/fnv"
	"math/rand"
)

// Seed derives the PRNG seed for a player's hand in a given round.
// FNV-1a 64 over "playerID:roundID"; any party holding both identifiers
// recomputes the same seed, so hands never need to be transmitted or
// stored to be re-derivable.
func Seed(playerID, roundID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(playerID))
	_, _ = h.Write([]byte(":"))
	_, _ = h.Write([]byte(roundID))
	return int64(h.Sum64())
}

// HandFor deterministically derives a player's private hand for a round:
// a seeded Fisher-Yates shuffle of a fresh deck keyed by (playerID, roundID),
// taking the first handSize cards. The roundID must change exactly once per
// new round so re-derivation is stable within a round and different across
// rounds.
func HandFor(playerID, roundID string, handSize int) []Card {
	if handSize <= 0 {
		return nil
	}
	if handSize > 52 {
		handSize = 52
	}
	rng := rand.New(rand.NewSource(Seed(playerID, roundID)))
	shuffled := Shuffle(New(), rng)
	hand := make([]Card, handSize)
	copy(hand, shuffled[:handSize])
	return hand
}
