package server

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/vegaslive/server/internal/deck"
	"github.com/vegaslive/server/internal/game"
	"github.com/vegaslive/server/internal/store"
)

const (
	snapshotPath = "table"

	// History lives outside the snapshot subtree: Replace(snapshotPath)
	// drops every descendant, and settlement records must outlive syncs.
	historyPath = "history"

	// UX pacing for bot turns and card reveals
	minActionDelay    = time.Second
	actionDelaySpread = time.Second
)

// GameService is the authoritative session: every mutation is validated
// against the single table under one lock, persisted through the store,
// and broadcast to connected clients. This collapses the "any client can
// write anything" model into request/validate/apply while keeping the
// round rules intact.
type GameService struct {
	mu     sync.Mutex
	table  *game.Table
	server *Server
	store  store.Store
	clock  quartz.Clock
	logger *log.Logger
	rng    *rand.Rand
}

// NewGameService creates the service and its table
func NewGameService(cfg game.Config, srv *Server, st store.Store, clock quartz.Clock, logger *log.Logger) *GameService {
	s := &GameService{
		server: srv,
		store:  st,
		clock:  clock,
		logger: logger.WithPrefix("service"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.table = game.NewTable(cfg, logger, game.WithEventSink(s))
	return s
}

// Table exposes the underlying table for in-process drivers (simulate)
func (s *GameService) Table() *game.Table {
	return s.table
}

// Join seats a new player, or reattaches a returning client that presents
// a previously issued player id.
func (s *GameService) Join(username string, admin bool, rejoinID string) (JoinedData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rejoinID != "" {
		if p, ok := s.table.Rejoin(rejoinID); ok {
			s.logger.Info("player rejoined", "username", p.Username)
			return JoinedData{
				PlayerID: p.ID,
				Username: p.Username,
				Position: p.Position,
				Admin:    p.IsAdmin,
				Rejoined: true,
			}, nil
		}
	}

	p, err := s.table.Join(username, admin)
	if err != nil {
		return JoinedData{}, err
	}
	s.syncLocked()
	return JoinedData{
		PlayerID: p.ID,
		Username: p.Username,
		Position: p.Position,
		Admin:    p.IsAdmin,
	}, nil
}

// AddBot seats a server-driven bot
func (s *GameService) AddBot(callerID, name string) (BotAddedData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.table.AddBot(callerID, name)
	if err != nil {
		return BotAddedData{}, err
	}
	s.syncLocked()
	return BotAddedData{PlayerID: p.ID, Username: p.Username, Position: p.Position}, nil
}

// SeedBots fills n bot seats at startup, before any admin has joined
func (s *GameService) SeedBots(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < n; i++ {
		if _, err := s.table.AddHouseBot(""); err != nil {
			return err
		}
	}
	if n > 0 {
		s.syncLocked()
	}
	return nil
}

// RevealCard draws the next shared card on an admin's request, ahead of
// the auto-reveal timer.
func (s *GameService) RevealCard(callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.table.RevealCard(callerID); err != nil {
		return err
	}
	s.syncLocked()
	return nil
}

// StartRound deals a new round and sends every connected player their
// private hand.
func (s *GameService) StartRound(callerID string, totalCards, handSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.table.StartRound(callerID, totalCards, handSize); err != nil {
		return err
	}
	s.sendHandsLocked()
	s.syncLocked()
	return nil
}

// ConfirmDealer clears the dealer gate
func (s *GameService) ConfirmDealer(callerID string, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.table.ConfirmDealer(callerID, position); err != nil {
		return err
	}
	s.syncLocked()
	return nil
}

// HandleAction applies a bet, check or fold for playerID on behalf of
// callerID (which may be an admin override).
func (s *GameService) HandleAction(callerID, playerID, action string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if playerID == "" {
		playerID = callerID
	}

	var err error
	switch action {
	case "bet":
		err = s.table.Bet(callerID, playerID, game.Cents(amount))
	case "check":
		err = s.table.Check(callerID, playerID)
	case "fold":
		err = s.table.Fold(callerID, playerID)
	default:
		return fmt.Errorf("unknown action: %s", action)
	}
	if err != nil {
		return err
	}
	s.updateBettingLocked(playerID)
	s.scheduleLocked()
	s.broadcastStateLocked()
	return nil
}

// Declare submits a final (choice, score) claim
func (s *GameService) Declare(callerID, playerID, rule string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if playerID == "" {
		playerID = callerID
	}
	parsed, err := game.ParseRule(rule)
	if err != nil {
		return err
	}
	if err := s.table.Declare(callerID, playerID, parsed, score); err != nil {
		return err
	}
	s.syncLocked()
	return nil
}

// Jackpot awards the whole pot to one player, bypassing settlement
func (s *GameService) Jackpot(callerID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.table.Jackpot(callerID, playerID); err != nil {
		return err
	}
	s.syncLocked()
	return nil
}

// Reset aborts the round and refunds contributions
func (s *GameService) Reset(callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.table.Reset(callerID); err != nil {
		return err
	}
	s.syncLocked()
	return nil
}

// PurgePlayer removes a seat
func (s *GameService) PurgePlayer(callerID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.table.PurgePlayer(callerID, playerID); err != nil {
		return err
	}
	s.syncLocked()
	return nil
}

// Wipe clears the whole table
func (s *GameService) Wipe(callerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.table.Wipe(callerID); err != nil {
		return err
	}
	s.syncLocked()
	return nil
}

// Snapshot returns the public table state under the service lock
func (s *GameService) Snapshot() TableStateData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TableStateFromGame(s.table)
}

// Hand returns a copy of a player's current private cards
func (s *GameService) Hand(playerID string) []deck.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.table.PlayerByID(playerID)
	if p == nil {
		return nil
	}
	out := make([]deck.Card, len(p.Hand))
	copy(out, p.Hand)
	return out
}

// History returns the most recent settlement records
func (s *GameService) History(n int) ([]store.Entry, error) {
	if n <= 0 {
		n = 10
	}
	return s.store.Recent(context.Background(), historyPath, n)
}

// OnEvent implements game.EventSink: table events become client messages
// and history records. Called with the service lock held.
func (s *GameService) OnEvent(event game.Event) {
	switch e := event.(type) {
	case game.RoundStartedEvent:
		s.broadcast(MessageTypeRoundStarted, RoundStartedData{
			RoundID:        e.RoundID,
			TotalCards:     e.TotalCards,
			HandSize:       e.HandSize,
			DealerPosition: e.DealerPosition,
		})

	case game.CardRevealedEvent:
		s.broadcast(MessageTypeCardRevealed, CardRevealedData{
			Card:     CardInfoFromDeck(e.Card),
			Revealed: len(s.table.Revealed()),
			Of:       s.table.TotalCards(),
			Phase:    e.Phase.String(),
		})
		// Discards may have changed hands; refresh private views
		s.sendHandsLocked()

	case game.HandEmptiedEvent:
		s.broadcast(MessageTypeHandEmptied, HandEmptiedData{
			PlayerID: e.Player.ID,
			Username: e.Player.Username,
		})

	case game.SettledEvent:
		if _, err := s.store.Push(context.Background(), historyPath, e.Entry); err != nil {
			s.logger.Error("failed to append history entry", "error", err)
		}
		s.broadcast(MessageTypeSettled, SettledDataFromEntry(e.Entry))
	}
}

// syncLocked persists the current snapshot, schedules any pending timers
// and broadcasts the new table state.
func (s *GameService) syncLocked() {
	if err := s.store.Replace(context.Background(), snapshotPath, TableStateFromGame(s.table)); err != nil {
		s.logger.Error("failed to persist snapshot", "error", err)
	}
	s.scheduleLocked()
	s.broadcastStateLocked()
}

// updateBettingLocked writes only the paths a betting action touches.
// Deltas are computed from the state as of commit, never from an earlier
// snapshot, so concurrent observers cannot double-count.
func (s *GameService) updateBettingLocked(playerID string) {
	values := map[string]interface{}{
		snapshotPath + "/pot":        int64(s.table.Pot()),
		snapshotPath + "/currentBet": int64(s.table.CurrentBet()),
		snapshotPath + "/phase":      s.table.Phase().String(),
		snapshotPath + "/turn":       s.table.TurnPlayerID(),
	}
	if p := s.table.PlayerByID(playerID); p != nil {
		values[snapshotPath+"/players/"+p.ID] = PlayerStateFromGame(p)
	}
	if err := s.store.Update(context.Background(), values); err != nil {
		s.logger.Error("failed to persist betting update", "error", err)
	}
}

// scheduleLocked arms the timers the current state calls for. Every timer
// captures the table generation at scheduling time and is a no-op if any
// other mutation lands first; syncLocked re-arms fresh timers after each
// mutation, so nothing is lost by discarding stale ones.
func (s *GameService) scheduleLocked() {
	gen := s.table.Generation()

	switch s.table.Phase() {
	case game.PhaseRevealing:
		admin := s.adminLocked()
		if admin == nil {
			return
		}
		adminID := admin.ID
		s.clock.AfterFunc(s.delayLocked(), func() { s.autoReveal(gen, adminID) })

	case game.PhaseBetting:
		if s.table.DealerPending() {
			return
		}
		p := s.table.PlayerByID(s.table.TurnPlayerID())
		if p == nil || !p.IsBot {
			return
		}
		botID := p.ID
		s.clock.AfterFunc(s.delayLocked(), func() { s.botAct(gen, botID) })

	case game.PhaseFinal:
		for _, p := range s.table.Players() {
			if p.IsBot && !p.Folded && !p.HasDeclared() {
				botID := p.ID
				s.clock.AfterFunc(s.delayLocked(), func() { s.botDeclare(gen, botID) })
			}
		}
	}
}

// autoReveal draws the next shared card once the pacing delay elapses
func (s *GameService) autoReveal(gen uint64, adminID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table.Generation() != gen {
		return // stale timer
	}
	if err := s.table.RevealCard(adminID); err != nil {
		s.logger.Error("auto reveal failed", "error", err)
		return
	}
	s.syncLocked()
}

// botAct runs the fixed bot policy for the bot currently holding the turn
func (s *GameService) botAct(gen uint64, botID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table.Generation() != gen {
		return // stale timer
	}

	action, amount := s.table.BotDecision(botID)
	var err error
	switch action {
	case game.ActionCheck:
		err = s.table.Check(botID, botID)
	case game.ActionBet:
		err = s.table.Bet(botID, botID, amount)
	case game.ActionFold:
		err = s.table.Fold(botID, botID)
	}
	if err != nil {
		s.logger.Error("bot action failed", "bot", botID, "action", action, "error", err)
		return
	}
	s.updateBettingLocked(botID)
	s.scheduleLocked()
	s.broadcastStateLocked()
}

// botDeclare auto-fills a bot's declaration with a random rule and the
// recomputed (therefore always valid) score.
func (s *GameService) botDeclare(gen uint64, botID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table.Generation() != gen {
		return // stale timer
	}
	p := s.table.PlayerByID(botID)
	if p == nil || p.Folded || p.HasDeclared() {
		return
	}

	rule := game.RuleMin
	if s.rng.Intn(2) == 1 {
		rule = game.RuleMax
	}
	score := game.Score(p.Hand, rule)
	if err := s.table.Declare(botID, botID, rule, score); err != nil {
		s.logger.Error("bot declaration failed", "bot", botID, "error", err)
		return
	}
	s.syncLocked()
}

func (s *GameService) adminLocked() *game.Player {
	for _, p := range s.table.Players() {
		if p.IsAdmin {
			return p
		}
	}
	return nil
}

func (s *GameService) delayLocked() time.Duration {
	return minActionDelay + time.Duration(s.rng.Int63n(int64(actionDelaySpread)))
}

// sendHandsLocked delivers each connected player their private hand
func (s *GameService) sendHandsLocked() {
	if s.server == nil {
		return
	}
	for _, p := range s.table.Players() {
		msg, err := NewMessage(MessageTypeHand, HandData{Cards: cardInfos(p.Hand)})
		if err != nil {
			continue
		}
		_ = s.server.SendToPlayer(p.ID, msg) // bots and absent players have no connection
	}
}

func (s *GameService) broadcastStateLocked() {
	s.broadcast(MessageTypeTableState, TableStateFromGame(s.table))
}

func (s *GameService) broadcast(messageType MessageType, data interface{}) {
	if s.server == nil {
		return
	}
	msg, err := NewMessage(messageType, data)
	if err != nil {
		s.logger.Error("failed to create message", "type", messageType, "error", err)
		return
	}
	s.server.Broadcast(msg)
}
