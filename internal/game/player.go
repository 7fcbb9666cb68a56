package game

import (
	"github.com/vegaslive/server/internal/deck"
)

// Cents is a money amount in integer cents of the table currency.
type Cents int64

// Player is a seat at the table. The record persists across rounds,
// carrying the balance forward; round-scoped fields are reset at the start
// of every round.
type Player struct {
	ID       string
	Username string
	Balance  Cents
	IsAdmin  bool
	IsBot    bool
	Position int

	// Round-scoped fields
	LastBet          Cents // contribution level in the current betting segment
	TotalBetThisHand Cents // cumulative contribution across segments, refunded on abort
	HasActed         bool  // reset whenever the required bet level changes
	Folded           bool
	Hand             []deck.Card // current, post-discard
	OriginalHand     []deck.Card // as dealt, pre-discard
	DiscardedCards   []deck.Card
	Choice           Rule // immutable once set for the round
	FinalScore       *int // declared and validated score
}

// resetForRound clears every round-scoped field. Balance, identity and
// role flags carry forward.
func (p *Player) resetForRound() {
	p.LastBet = 0
	p.TotalBetThisHand = 0
	p.HasActed = false
	p.Folded = false
	p.Hand = nil
	p.OriginalHand = nil
	p.DiscardedCards = nil
	p.Choice = RuleNone
	p.FinalScore = nil
}

// HasDeclared reports whether the player has a validated final declaration
func (p *Player) HasDeclared() bool {
	return p.Choice != RuleNone && p.FinalScore != nil
}

// Owes returns what the player must add to match the required bet level
func (p *Player) Owes(currentBet Cents) Cents {
	if currentBet <= p.LastBet {
		return 0
	}
	return currentBet - p.LastBet
}
