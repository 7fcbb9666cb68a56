package game

import (
	"fmt"
	"strings"
	"time"
)

// Payout is one player's share of a settlement
type Payout struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Rule     string `json:"rule,omitempty"`
	Score    int    `json:"score"`
	Amount   Cents  `json:"amount"`
}

// HistoryEntry is the record appended after every settlement, normal or
// jackpot override.
type HistoryEntry struct {
	Description string    `json:"description"`
	Pot         Cents     `json:"pot"`
	Winners     []Payout  `json:"winners"`
	Jackpot     bool      `json:"jackpot,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Declare submits a player's final (choice, score) claim. The score is
// recomputed from the player's own surviving hand and rejected on any
// mismatch; the numeric claim is never trusted. The choice is immutable
// once accepted for the round.
func (t *Table) Declare(callerID, playerID string, rule Rule, declared int) error {
	caller := t.PlayerByID(callerID)
	if caller == nil {
		return ErrUnknownPlayer
	}
	if t.phase != PhaseFinal {
		return fmt.Errorf("%w: no declarations in %s", ErrWrongPhase, t.phase)
	}
	p := t.PlayerByID(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if callerID != playerID && !caller.IsAdmin {
		return ErrNotAdmin
	}
	if p.Folded {
		return ErrPlayerFolded
	}
	if p.HasDeclared() {
		return ErrAlreadyDeclared
	}
	if rule != RuleMin && rule != RuleMax {
		return fmt.Errorf("invalid rule")
	}

	recomputed := Score(p.Hand, rule)
	if declared != recomputed {
		return fmt.Errorf("%w: declared %d", ErrScoreMismatch, declared)
	}

	p.Choice = rule
	score := recomputed
	p.FinalScore = &score
	t.bump()

	t.logger.Info("declaration accepted", "username", p.Username, "rule", rule, "score", score)
	t.emit(DeclaredEvent{Player: p, Rule: rule, Score: score, timestamp: time.Now()})

	if t.allDeclared() {
		// every eligible player is in; settlement runs immediately
		return t.Settle()
	}
	return nil
}

// allDeclared reports whether every non-folded player has a validated
// declaration.
func (t *Table) allDeclared() bool {
	for _, p := range t.players {
		if !p.Folded && !p.HasDeclared() {
			return false
		}
	}
	return true
}

// Settle splits the pot across the min and max declaration groups. Both
// groups present: each competes for half the pot independently; a single
// group takes it all. Within a group, everyone matching the extreme score
// ties and splits equally; leftover cents from integer splits are accepted
// rounding loss. On success the phase moves to results and the pot resets.
func (t *Table) Settle() error {
	if t.phase != PhaseFinal {
		return fmt.Errorf("%w: cannot settle in %s", ErrWrongPhase, t.phase)
	}

	var minGroup, maxGroup []*Player
	for _, p := range t.players {
		if p.Folded || !p.HasDeclared() {
			continue
		}
		if p.Choice == RuleMin {
			minGroup = append(minGroup, p)
		} else {
			maxGroup = append(maxGroup, p)
		}
	}
	if len(minGroup) == 0 && len(maxGroup) == 0 {
		t.logger.Warn("settlement aborted: no valid declarations")
		return ErrNoWinners
	}

	pot := t.pot
	minShare, maxShare := pot, pot
	if len(minGroup) > 0 && len(maxGroup) > 0 {
		minShare = pot / 2
		maxShare = pot / 2
	}

	var payouts []Payout
	if len(minGroup) > 0 {
		payouts = append(payouts, t.payGroup(minGroup, RuleMin, minShare)...)
	}
	if len(maxGroup) > 0 {
		payouts = append(payouts, t.payGroup(maxGroup, RuleMax, maxShare)...)
	}

	entry := HistoryEntry{
		Description: describePayouts(payouts),
		Pot:         pot,
		Winners:     payouts,
		Timestamp:   time.Now(),
	}

	t.pot = 0
	t.turnPlayerID = ""
	t.phase = PhaseResults
	t.bump()

	t.logger.Info("round settled", "pot", pot, "winners", len(payouts))
	t.emit(SettledEvent{Entry: entry, timestamp: entry.Timestamp})
	return nil
}

// payGroup credits every player tying at the group's extreme score with an
// equal split of the group share.
func (t *Table) payGroup(group []*Player, rule Rule, share Cents) []Payout {
	best := *group[0].FinalScore
	for _, p := range group[1:] {
		s := *p.FinalScore
		if (rule == RuleMin && s < best) || (rule == RuleMax && s > best) {
			best = s
		}
	}

	var winners []*Player
	for _, p := range group {
		if *p.FinalScore == best {
			winners = append(winners, p)
		}
	}

	each := share / Cents(len(winners))
	payouts := make([]Payout, 0, len(winners))
	for _, p := range winners {
		p.Balance += each
		payouts = append(payouts, Payout{
			PlayerID: p.ID,
			Username: p.Username,
			Rule:     rule.String(),
			Score:    best,
			Amount:   each,
		})
	}
	return payouts
}

// Jackpot is the administrative override awarding the entire current pot
// to one named player, bypassing score-based settlement. Used for the
// empty-hand special case.
func (t *Table) Jackpot(callerID, playerID string) error {
	if _, err := t.requireAdmin(callerID); err != nil {
		return err
	}
	switch t.phase {
	case PhaseBetting, PhaseRevealing, PhaseFinal:
	default:
		return fmt.Errorf("%w: no round to settle in %s", ErrWrongPhase, t.phase)
	}
	p := t.PlayerByID(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}

	pot := t.pot
	p.Balance += pot

	entry := HistoryEntry{
		Description: fmt.Sprintf("jackpot: %s takes %s", p.Username, formatCents(pot)),
		Pot:         pot,
		Winners: []Payout{{
			PlayerID: p.ID,
			Username: p.Username,
			Amount:   pot,
		}},
		Jackpot:   true,
		Timestamp: time.Now(),
	}

	t.pot = 0
	t.turnPlayerID = ""
	t.phase = PhaseResults
	t.bump()

	t.logger.Info("jackpot awarded", "username", p.Username, "amount", pot)
	t.emit(SettledEvent{Entry: entry, timestamp: entry.Timestamp})
	return nil
}

func describePayouts(payouts []Payout) string {
	parts := make([]string, len(payouts))
	for i, p := range payouts {
		parts[i] = fmt.Sprintf("%s (%s %d) +%s", p.Username, p.Rule, p.Score, formatCents(p.Amount))
	}
	return strings.Join(parts, ", ")
}

func formatCents(c Cents) string {
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}
