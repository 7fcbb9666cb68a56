package game

import (
	"github.com/vegaslive/server/internal/deck"
)

// rescanDiscards removes from every player's hand every card whose value
// matches any revealed shared card, appending removals to the player's
// audit list. A full rescan against all revealed values is self-healing
// and idempotent: running it again removes nothing new. The table's
// revealedCards sequence is never touched.
//
// Returns the players whose hands reached zero cards during this rescan.
func (t *Table) rescanDiscards() []*Player {
	revealed := make(map[deck.Value]bool, len(t.revealed))
	for _, c := range t.revealed {
		revealed[c.Value] = true
	}

	var emptied []*Player
	for _, p := range t.players {
		kept := p.Hand[:0:len(p.Hand)]
		removed := false
		for _, c := range p.Hand {
			if revealed[c.Value] {
				if !hasCard(p.DiscardedCards, c) {
					p.DiscardedCards = append(p.DiscardedCards, c)
				}
				removed = true
				continue
			}
			kept = append(kept, c)
		}
		p.Hand = kept
		if removed && len(p.Hand) == 0 {
			emptied = append(emptied, p)
		}
	}
	return emptied
}

func hasCard(cards []deck.Card, c deck.Card) bool {
	for _, existing := range cards {
		if existing == c {
			return true
		}
	}
	return false
}
