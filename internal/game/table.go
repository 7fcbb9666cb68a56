package game

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vegaslive/server/internal/deck"
)

// Phase is the round state machine phase
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseBetting
	PhaseRevealing
	PhaseFinal
	PhaseResults
)

func (p Phase) String() string {
	return [...]string{"lobby", "betting", "revealing", "final", "results"}[p]
}

// Config holds the table's numeric rules
type Config struct {
	BetFloor        Cents // configured minimum bet
	BetCap          Cents // fixed per-round ceiling, independent of balance
	StartingBalance Cents
	TotalCards      int // shared cards per round
	HandSize        int // private cards dealt per player
}

// DefaultConfig returns the standard table configuration
func DefaultConfig() Config {
	return Config{
		BetFloor:        10,
		BetCap:          200,
		StartingBalance: 10000,
		TotalCards:      5,
		HandSize:        6,
	}
}

// Table is the authoritative state for the single active round. It is not
// safe for concurrent use; the owning service serializes access.
type Table struct {
	cfg    Config
	logger *log.Logger
	rng    *rand.Rand
	sink   EventSink

	phase         Phase
	pot           Cents
	currentBet    Cents
	revealed      []deck.Card
	totalCards    int
	handSize      int
	dealerPos     int
	turnPlayerID  string
	roundID       string
	dealerPending bool
	generation    uint64

	players []*Player // ordered by dense position
}

// Option configures a Table
type Option func(*Table)

// WithRNG sets the random source used for community draws and bot pacing
func WithRNG(rng *rand.Rand) Option {
	return func(t *Table) { t.rng = rng }
}

// WithEventSink sets the sink that receives table events
func WithEventSink(sink EventSink) Option {
	return func(t *Table) { t.sink = sink }
}

// NewTable creates an empty table in the lobby phase
func NewTable(cfg Config, logger *log.Logger, opts ...Option) *Table {
	t := &Table{
		cfg:           cfg,
		logger:        logger.WithPrefix("table"),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		phase:         PhaseLobby,
		totalCards:    cfg.TotalCards,
		handSize:      cfg.HandSize,
		dealerPending: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Accessors

func (t *Table) Phase() Phase          { return t.phase }
func (t *Table) Pot() Cents            { return t.pot }
func (t *Table) CurrentBet() Cents     { return t.currentBet }
func (t *Table) TotalCards() int       { return t.totalCards }
func (t *Table) HandSize() int         { return t.handSize }
func (t *Table) DealerPosition() int   { return t.dealerPos }
func (t *Table) TurnPlayerID() string  { return t.turnPlayerID }
func (t *Table) RoundID() string       { return t.roundID }
func (t *Table) DealerPending() bool   { return t.dealerPending }
func (t *Table) Generation() uint64    { return t.generation }
func (t *Table) Config() Config        { return t.cfg }

// Revealed returns a copy of the shared cards revealed so far this round
func (t *Table) Revealed() []deck.Card {
	out := make([]deck.Card, len(t.revealed))
	copy(out, t.revealed)
	return out
}

// Players returns the seated players in position order
func (t *Table) Players() []*Player {
	out := make([]*Player, len(t.players))
	copy(out, t.players)
	return out
}

// PlayerByID returns the player with the given id, or nil
func (t *Table) PlayerByID(id string) *Player {
	for _, p := range t.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (t *Table) playerAt(position int) *Player {
	for _, p := range t.players {
		if p.Position == position {
			return p
		}
	}
	return nil
}

// bump marks a successful mutation; pending timers scheduled against an
// older generation must treat themselves as stale.
func (t *Table) bump() {
	t.generation++
}

func (t *Table) emit(e Event) {
	if t.sink != nil {
		t.sink.OnEvent(e)
	}
}

func (t *Table) requireAdmin(callerID string) (*Player, error) {
	caller := t.PlayerByID(callerID)
	if caller == nil {
		return nil, ErrUnknownPlayer
	}
	if !caller.IsAdmin {
		return nil, ErrNotAdmin
	}
	return caller, nil
}

// Join seats a new player. Usernames must be unique, case-insensitively,
// among currently non-folded players; the check runs at join time only.
// New seats open only between rounds: a mid-round joiner would hold no
// hand yet count against segment and declaration completion. Returning
// players reattach through Rejoin instead.
func (t *Table) Join(username string, isAdmin bool) (*Player, error) {
	if t.phase != PhaseLobby && t.phase != PhaseResults {
		return nil, fmt.Errorf("%w: joins open between rounds", ErrRoundInProgress)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	for _, p := range t.players {
		if !p.Folded && strings.EqualFold(p.Username, username) {
			return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
		}
	}

	p := &Player{
		ID:       uuid.NewString(),
		Username: username,
		Balance:  t.cfg.StartingBalance,
		IsAdmin:  isAdmin,
		Position: len(t.players),
	}
	t.players = append(t.players, p)
	t.bump()
	t.logger.Info("player joined", "username", username, "position", p.Position, "admin", isAdmin)
	return p, nil
}

// Rejoin reattaches a returning client to its existing seat by id
func (t *Table) Rejoin(id string) (*Player, bool) {
	p := t.PlayerByID(id)
	return p, p != nil
}

// AddBot seats a bot player on behalf of an admin. Bot turns are driven
// by the server after a short delay.
func (t *Table) AddBot(callerID, name string) (*Player, error) {
	if _, err := t.requireAdmin(callerID); err != nil {
		return nil, err
	}
	return t.AddHouseBot(name)
}

// AddHouseBot seats a bot without an admin caller. Used by the server at
// startup when the config asks for pre-seeded bots.
func (t *Table) AddHouseBot(name string) (*Player, error) {
	if name == "" {
		name = fmt.Sprintf("bot-%s", uuid.NewString()[:8])
	}
	p, err := t.Join(name, false)
	if err != nil {
		return nil, err
	}
	p.IsBot = true
	t.logger.Info("bot added", "username", p.Username, "position", p.Position)
	return p, nil
}

// StartRound deals a new round: resets all round-scoped player fields,
// clears revealed cards, zeroes pot and required bet, derives every
// player's hand from the fresh roundID, and enters betting behind the
// dealer-assignment gate.
func (t *Table) StartRound(callerID string, totalCards, handSize int) error {
	caller, err := t.requireAdmin(callerID)
	if err != nil {
		return err
	}
	if t.phase != PhaseLobby && t.phase != PhaseResults {
		return fmt.Errorf("%w: cannot start round from %s", ErrWrongPhase, t.phase)
	}
	if len(t.players) < 2 {
		return ErrNotEnoughPlayers
	}
	if totalCards <= 0 {
		totalCards = t.cfg.TotalCards
	}
	if handSize <= 0 {
		handSize = t.cfg.HandSize
	}
	if totalCards > 13 {
		// revealed values are unique within a round, so the value space
		// caps the number of shared cards
		return fmt.Errorf("total cards %d exceeds the 13 distinct values", totalCards)
	}

	t.roundID = uuid.NewString()
	t.totalCards = totalCards
	t.handSize = handSize
	t.pot = 0
	t.currentBet = 0
	t.revealed = nil

	for _, p := range t.players {
		p.resetForRound()
		p.Hand = deck.HandFor(p.ID, t.roundID, handSize)
		p.OriginalHand = make([]deck.Card, len(p.Hand))
		copy(p.OriginalHand, p.Hand)
	}

	t.dealerPos = caller.Position
	t.dealerPending = true
	t.turnPlayerID = ""
	t.phase = PhaseBetting
	t.bump()

	t.logger.Info("round started",
		"roundId", t.roundID,
		"totalCards", totalCards,
		"handSize", handSize,
		"players", len(t.players))
	t.emit(RoundStartedEvent{
		RoundID:        t.roundID,
		TotalCards:     totalCards,
		HandSize:       handSize,
		DealerPosition: t.dealerPos,
		timestamp:      time.Now(),
	})
	return nil
}

// ConfirmDealer clears the dealer-assignment gate. All betting and turn
// actions, including bot timers, are blocked until an admin confirms a
// dealer so the turn pointer never silently defaults to position 0.
func (t *Table) ConfirmDealer(callerID string, position int) error {
	if _, err := t.requireAdmin(callerID); err != nil {
		return err
	}
	if t.phase != PhaseBetting {
		return fmt.Errorf("%w: no betting in %s", ErrWrongPhase, t.phase)
	}
	dealer := t.playerAt(position)
	if dealer == nil || dealer.Folded {
		return ErrUnknownPlayer
	}

	t.dealerPos = position
	t.dealerPending = false
	t.turnPlayerID = dealer.ID
	t.bump()

	t.logger.Info("dealer confirmed", "position", position, "username", dealer.Username)
	t.emit(DealerConfirmedEvent{Position: position, timestamp: time.Now()})
	return nil
}

// RevealCard draws the next shared card, applies the silent discard rescan,
// resets the betting segment and advances the phase: back to betting with
// the dealer to act, or to final once all shared cards are out.
func (t *Table) RevealCard(callerID string) error {
	if _, err := t.requireAdmin(callerID); err != nil {
		return err
	}
	if t.phase != PhaseRevealing {
		return fmt.Errorf("%w: cannot reveal in %s", ErrWrongPhase, t.phase)
	}

	used := make(map[deck.Value]bool, len(t.revealed))
	for _, c := range t.revealed {
		used[c.Value] = true
	}
	card, ok := deck.DrawCommunity(t.rng, used)
	if !ok {
		return ErrDeckExhausted
	}
	t.revealed = append(t.revealed, card)

	emptied := t.rescanDiscards()

	for _, p := range t.players {
		p.LastBet = 0
		p.HasActed = false
	}
	t.currentBet = 0

	if len(t.revealed) >= t.totalCards {
		t.phase = PhaseFinal
		t.turnPlayerID = ""
	} else {
		t.phase = PhaseBetting
		t.turnPlayerID = t.firstToAct()
	}
	t.bump()

	t.logger.Info("card revealed",
		"card", card.String(),
		"revealed", len(t.revealed),
		"of", t.totalCards,
		"phase", t.phase)
	t.emit(CardRevealedEvent{Card: card, Phase: t.phase, timestamp: time.Now()})
	for _, p := range emptied {
		t.logger.Warn("all cards discarded", "username", p.Username)
		t.emit(HandEmptiedEvent{Player: p, timestamp: time.Now()})
	}
	return nil
}

// firstToAct returns the id of the player opening the next betting
// segment: the dealer, or the next active player after the dealer's seat
// if the dealer has folded.
func (t *Table) firstToAct() string {
	dealer := t.playerAt(t.dealerPos)
	if dealer == nil {
		return ""
	}
	if !dealer.Folded {
		return dealer.ID
	}
	return t.nextActivePlayer(dealer.ID)
}

// Reset aborts the round from any phase: every player's cumulative
// contribution this round is refunded, round-scoped state clears and the
// table returns to the lobby behind the dealer gate.
func (t *Table) Reset(callerID string) error {
	if _, err := t.requireAdmin(callerID); err != nil {
		return err
	}

	refunds := make(map[string]Cents, len(t.players))
	for _, p := range t.players {
		if p.TotalBetThisHand > 0 {
			p.Balance += p.TotalBetThisHand
			refunds[p.ID] = p.TotalBetThisHand
		}
		p.resetForRound()
	}

	t.pot = 0
	t.currentBet = 0
	t.revealed = nil
	t.roundID = ""
	t.turnPlayerID = ""
	t.dealerPending = true
	t.phase = PhaseLobby
	t.bump()

	t.logger.Info("round reset", "refunds", len(refunds))
	t.emit(ResetEvent{Refunds: refunds, timestamp: time.Now()})
	return nil
}

// PurgePlayer removes a seat entirely. Positions stay dense afterwards.
func (t *Table) PurgePlayer(callerID, playerID string) error {
	if _, err := t.requireAdmin(callerID); err != nil {
		return err
	}
	idx := -1
	for i, p := range t.players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrUnknownPlayer
	}

	purged := t.players[idx]
	t.players = append(t.players[:idx], t.players[idx+1:]...)
	for i, p := range t.players {
		p.Position = i
	}
	if t.turnPlayerID == playerID {
		t.turnPlayerID = t.nextActivePlayer(playerID)
	}
	if t.dealerPos >= len(t.players) {
		t.dealerPos = 0
		if t.phase == PhaseBetting {
			t.dealerPending = true
			t.turnPlayerID = ""
		}
	}
	t.bump()
	t.logger.Info("player purged", "username", purged.Username)
	return nil
}

// Wipe clears every seat and returns the table to a fresh lobby
func (t *Table) Wipe(callerID string) error {
	if _, err := t.requireAdmin(callerID); err != nil {
		return err
	}
	t.players = nil
	t.pot = 0
	t.currentBet = 0
	t.revealed = nil
	t.roundID = ""
	t.turnPlayerID = ""
	t.dealerPos = 0
	t.dealerPending = true
	t.phase = PhaseLobby
	t.bump()
	t.logger.Warn("table wiped")
	return nil
}
