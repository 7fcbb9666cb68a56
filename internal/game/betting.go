package game

import (
	"fmt"
	"time"
)

// requireActionable validates a betting-segment action request: the table
// must be betting with the dealer gate clear, the target player must be
// seated and not folded, and a non-admin caller may act only for itself
// and only on its turn. An admin caller may act on anyone's behalf; that
// administrative override is the trust model, not a bug.
func (t *Table) requireActionable(callerID, playerID string) (*Player, error) {
	if t.phase != PhaseBetting {
		return nil, fmt.Errorf("%w: no betting in %s", ErrWrongPhase, t.phase)
	}
	if t.dealerPending {
		return nil, ErrDealerNotConfirmed
	}
	caller := t.PlayerByID(callerID)
	if caller == nil {
		return nil, ErrUnknownPlayer
	}
	p := t.PlayerByID(playerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if p.Folded {
		return nil, ErrPlayerFolded
	}
	if !caller.IsAdmin {
		if callerID != playerID {
			return nil, ErrNotAdmin
		}
		if t.turnPlayerID != playerID {
			return nil, ErrNotYourTurn
		}
	}
	return p, nil
}

// TableMinimum is the lowest amount a bet may name right now: the
// configured floor, or the current required level once raised above it.
// Bets never go below the table's required level, which is what makes
// raises monotonic.
func (t *Table) TableMinimum() Cents {
	if t.currentBet > t.cfg.BetFloor {
		return t.currentBet
	}
	return t.cfg.BetFloor
}

// Bet places or raises a bet. The amount is clamped to
// [TableMinimum, BetCap]; the player pays the difference between the
// clamped amount and their current segment contribution. A raise above the
// required level forces every other player to act again.
func (t *Table) Bet(callerID, playerID string, amount Cents) error {
	p, err := t.requireActionable(callerID, playerID)
	if err != nil {
		return err
	}

	if min := t.TableMinimum(); amount < min {
		amount = min
	}
	if amount > t.cfg.BetCap {
		amount = t.cfg.BetCap
	}

	diff := amount - p.LastBet
	if diff > p.Balance {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientBalance, diff, p.Balance)
	}

	p.Balance -= diff
	p.LastBet = amount
	p.TotalBetThisHand += diff
	p.HasActed = true
	t.pot += diff

	if amount > t.currentBet {
		// a raise: everyone else must act again at the new level
		for _, other := range t.players {
			if other.ID != p.ID {
				other.HasActed = false
			}
		}
		t.currentBet = amount
	}
	t.bump()

	t.logger.Debug("bet placed",
		"username", p.Username,
		"amount", amount,
		"diff", diff,
		"pot", t.pot,
		"currentBet", t.currentBet)
	t.emit(PlayerActedEvent{Player: p, Action: ActionBet, Amount: amount, PotAfter: t.pot, timestamp: time.Now()})

	t.advanceOrFinish(p)
	return nil
}

// Check passes the action without betting; valid only when nothing is owed
func (t *Table) Check(callerID, playerID string) error {
	p, err := t.requireActionable(callerID, playerID)
	if err != nil {
		return err
	}
	if p.LastBet != t.currentBet {
		return fmt.Errorf("%w: owe %d", ErrCannotCheck, t.currentBet-p.LastBet)
	}

	p.HasActed = true
	t.bump()

	t.logger.Debug("check", "username", p.Username)
	t.emit(PlayerActedEvent{Player: p, Action: ActionCheck, Amount: 0, PotAfter: t.pot, timestamp: time.Now()})

	t.advanceOrFinish(p)
	return nil
}

// Fold removes the player from the round. Terminal: the seat keeps its
// contribution (no refund) and is excluded from turn order and settlement.
func (t *Table) Fold(callerID, playerID string) error {
	p, err := t.requireActionable(callerID, playerID)
	if err != nil {
		return err
	}

	p.Folded = true
	p.HasActed = true
	t.bump()

	t.logger.Debug("fold", "username", p.Username)
	t.emit(PlayerActedEvent{Player: p, Action: ActionFold, Amount: 0, PotAfter: t.pot, timestamp: time.Now()})

	t.advanceOrFinish(p)
	return nil
}

// advanceOrFinish moves the turn pointer, or closes the betting segment
// once every non-folded player has acted at the required level.
func (t *Table) advanceOrFinish(p *Player) {
	if t.segmentComplete() {
		t.phase = PhaseRevealing
		t.turnPlayerID = ""
		t.bump()
		t.logger.Info("betting segment complete", "pot", t.pot, "revealed", len(t.revealed))
		t.emit(SegmentCompleteEvent{RevealedCount: len(t.revealed), timestamp: time.Now()})
		return
	}
	next := t.nextActivePlayer(p.ID)
	if next == "" {
		// a single active player keeps the action until they match
		next = p.ID
	}
	t.turnPlayerID = next
}

// segmentComplete reports whether every non-folded player has acted since
// the required level last changed and matches it.
func (t *Table) segmentComplete() bool {
	for _, p := range t.players {
		if p.Folded {
			continue
		}
		if !p.HasActed || p.LastBet != t.currentBet {
			return false
		}
	}
	return true
}

// nextActivePlayer returns the id of the next non-folded player after
// currentID in ascending position order, wrapping around. Returns "" when
// fewer than two players remain active.
func (t *Table) nextActivePlayer(currentID string) string {
	active := make([]*Player, 0, len(t.players))
	for _, p := range t.players {
		if !p.Folded {
			active = append(active, p)
		}
	}
	if len(active) <= 1 {
		return ""
	}

	current := t.PlayerByID(currentID)
	if current == nil {
		return active[0].ID
	}
	for _, p := range active {
		if p.Position > current.Position {
			return p.ID
		}
	}
	return active[0].ID
}

// BotDecision is the fixed bot policy: check when nothing is owed, fold
// when the call is unaffordable, otherwise call the required level.
func (t *Table) BotDecision(playerID string) (Action, Cents) {
	p := t.PlayerByID(playerID)
	if p == nil || p.Folded {
		return ActionFold, 0
	}
	owed := p.Owes(t.currentBet)
	if owed == 0 {
		return ActionCheck, 0
	}
	if owed > p.Balance {
		return ActionFold, 0
	}
	return ActionBet, t.currentBet
}
