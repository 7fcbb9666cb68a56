package deck

import "fmt"

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// String returns the suit symbol
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Value represents a card value. Aces are low in generation order;
// their scoring value depends on the min/max rule and lives in the
// game package, not here.
type Value int

const (
	Ace Value = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// String returns the string representation of a value
func (v Value) String() string {
	switch v {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		if v >= Two && v <= Ten {
			return fmt.Sprintf("%d", int(v))
		}
		return "?"
	}
}

// IsFace returns true for J, Q and K
func (v Value) IsFace() bool {
	return v >= Jack && v <= King
}

// Card represents a playing card. Immutable once drawn.
type Card struct {
	Value Value `json:"value"`
	Suit  Suit  `json:"suit"`
}

// NewCard creates a new card
func NewCard(value Value, suit Suit) Card {
	return Card{Value: value, Suit: suit}
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Value, c.Suit)
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// Color returns the display color derived from the suit
func (c Card) Color() string {
	if c.IsRed() {
		return "red"
	}
	return "black"
}
