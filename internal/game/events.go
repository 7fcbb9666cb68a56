package game

import (
	"time"

	"github.com/vegaslive/server/internal/deck"
)

// EventType represents a game event type with type safety
type EventType string

const (
	EventTypeRoundStarted    EventType = "round_started"
	EventTypeDealerConfirmed EventType = "dealer_confirmed"
	EventTypePlayerActed     EventType = "player_acted"
	EventTypeSegmentComplete EventType = "segment_complete"
	EventTypeCardRevealed    EventType = "card_revealed"
	EventTypeHandEmptied     EventType = "hand_emptied"
	EventTypeDeclared        EventType = "declared"
	EventTypeSettled         EventType = "settled"
	EventTypeReset           EventType = "reset"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event represents any event that occurs at the table
type Event interface {
	EventType() EventType
	Timestamp() time.Time
}

// EventSink receives table events. The server's broadcaster implements
// this to push state to connected clients.
type EventSink interface {
	OnEvent(Event)
}

// Action is a betting-segment action a player can take
type Action int

const (
	ActionBet Action = iota
	ActionCheck
	ActionFold
)

func (a Action) String() string {
	return [...]string{"bet", "check", "fold"}[a]
}

// RoundStartedEvent is published when a new round is dealt
type RoundStartedEvent struct {
	RoundID        string
	TotalCards     int
	HandSize       int
	DealerPosition int
	timestamp      time.Time
}

func (e RoundStartedEvent) EventType() EventType { return EventTypeRoundStarted }
func (e RoundStartedEvent) Timestamp() time.Time { return e.timestamp }

// DealerConfirmedEvent is published when an admin clears the dealer gate
type DealerConfirmedEvent struct {
	Position  int
	timestamp time.Time
}

func (e DealerConfirmedEvent) EventType() EventType { return EventTypeDealerConfirmed }
func (e DealerConfirmedEvent) Timestamp() time.Time { return e.timestamp }

// PlayerActedEvent is published after every accepted bet, check or fold
type PlayerActedEvent struct {
	Player    *Player
	Action    Action
	Amount    Cents
	PotAfter  Cents
	timestamp time.Time
}

func (e PlayerActedEvent) EventType() EventType { return EventTypePlayerActed }
func (e PlayerActedEvent) Timestamp() time.Time { return e.timestamp }

// SegmentCompleteEvent is published when every non-folded player has acted
// and matched the required bet; the next shared card may be revealed.
type SegmentCompleteEvent struct {
	RevealedCount int
	timestamp     time.Time
}

func (e SegmentCompleteEvent) EventType() EventType { return EventTypeSegmentComplete }
func (e SegmentCompleteEvent) Timestamp() time.Time { return e.timestamp }

// CardRevealedEvent is published after a shared card is drawn and the
// discard rescan has been applied.
type CardRevealedEvent struct {
	Card      deck.Card
	Phase     Phase
	timestamp time.Time
}

func (e CardRevealedEvent) EventType() EventType { return EventTypeCardRevealed }
func (e CardRevealedEvent) Timestamp() time.Time { return e.timestamp }

// HandEmptiedEvent is published when a discard leaves a player with zero
// cards. Not an error: the admin may respond with the jackpot override.
type HandEmptiedEvent struct {
	Player    *Player
	timestamp time.Time
}

func (e HandEmptiedEvent) EventType() EventType { return EventTypeHandEmptied }
func (e HandEmptiedEvent) Timestamp() time.Time { return e.timestamp }

// DeclaredEvent is published when a player's final declaration validates
type DeclaredEvent struct {
	Player    *Player
	Rule      Rule
	Score     int
	timestamp time.Time
}

func (e DeclaredEvent) EventType() EventType { return EventTypeDeclared }
func (e DeclaredEvent) Timestamp() time.Time { return e.timestamp }

// SettledEvent is published after every settlement, normal or jackpot
type SettledEvent struct {
	Entry     HistoryEntry
	timestamp time.Time
}

func (e SettledEvent) EventType() EventType { return EventTypeSettled }
func (e SettledEvent) Timestamp() time.Time { return e.timestamp }

// ResetEvent is published after an administrative round abort
type ResetEvent struct {
	Refunds   map[string]Cents // playerID -> refunded amount
	timestamp time.Time
}

func (e ResetEvent) EventType() EventType { return EventTypeReset }
func (e ResetEvent) Timestamp() time.Time { return e.timestamp }
