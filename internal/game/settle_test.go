package game

import (
	"errors"
	"testing"

	"github.com/vegaslive/server/internal/deck"
)

func declare(p *Player, rule Rule, score int) {
	p.Choice = rule
	s := score
	p.FinalScore = &s
}

func TestSettleSplitsPotAcrossGroups(t *testing.T) {
	table, players := newTestTable(t, "alice", "bob", "carol")
	alice, bob, carol := players[0], players[1], players[2]

	table.phase = PhaseFinal
	table.pot = 1000
	declare(alice, RuleMin, 5)
	declare(bob, RuleMin, 5)
	declare(carol, RuleMax, 20)

	start := table.cfg.StartingBalance
	if err := table.Settle(); err != nil {
		t.Fatalf("settle: %v", err)
	}

	// Both groups present: each competes for half. Alice and Bob tie the
	// min group and split 500; Carol takes the whole max half.
	if alice.Balance != start+250 {
		t.Errorf("alice balance = %d, want +250", alice.Balance)
	}
	if bob.Balance != start+250 {
		t.Errorf("bob balance = %d, want +250", bob.Balance)
	}
	if carol.Balance != start+500 {
		t.Errorf("carol balance = %d, want +500", carol.Balance)
	}
	if table.Pot() != 0 {
		t.Errorf("pot = %d, want 0", table.Pot())
	}
	if table.Phase() != PhaseResults {
		t.Errorf("phase = %s, want results", table.Phase())
	}
}

func TestSettleSingleGroupTakesWholePot(t *testing.T) {
	table, players := newTestTable(t, "alice", "bob")
	alice, bob := players[0], players[1]

	table.phase = PhaseFinal
	table.pot = 600
	declare(alice, RuleMax, 30)
	declare(bob, RuleMax, 25)

	start := table.cfg.StartingBalance
	if err := table.Settle(); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if alice.Balance != start+600 {
		t.Errorf("alice balance = %d, want +600", alice.Balance)
	}
	if bob.Balance != start {
		t.Errorf("bob balance = %d, want unchanged", bob.Balance)
	}
}

func TestSettleExcludesFoldedPlayers(t *testing.T) {
	table, players := newTestTable(t, "alice", "bob")
	alice, bob := players[0], players[1]

	table.phase = PhaseFinal
	table.pot = 400
	declare(alice, RuleMin, 12)
	declare(bob, RuleMin, 3) // better score, but folded
	bob.Folded = true

	start := table.cfg.StartingBalance
	if err := table.Settle(); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if alice.Balance != start+400 {
		t.Errorf("alice balance = %d, want +400", alice.Balance)
	}
	if bob.Balance != start {
		t.Errorf("folded bob balance = %d, want unchanged", bob.Balance)
	}
}

func TestSettleWithNoDeclarationsStaysFinal(t *testing.T) {
	table, _ := newTestTable(t, "alice", "bob")
	table.phase = PhaseFinal
	table.pot = 500

	err := table.Settle()
	if !errors.Is(err, ErrNoWinners) {
		t.Fatalf("err = %v, want ErrNoWinners", err)
	}
	if table.Phase() != PhaseFinal {
		t.Errorf("phase = %s, want to remain final", table.Phase())
	}
	if table.Pot() != 500 {
		t.Errorf("pot = %d, want unchanged", table.Pot())
	}
}

func TestDeclareRejectsMismatchedScore(t *testing.T) {
	table, players := newTestTable(t, "alice", "bob")
	alice := players[0]

	table.phase = PhaseFinal
	alice.Hand = []deck.Card{
		deck.NewCard(deck.Ace, deck.Spades),
		deck.NewCard(deck.King, deck.Hearts),
		deck.NewCard(deck.Seven, deck.Clubs),
	}

	// Off by one is rejected
	err := table.Declare(alice.ID, alice.ID, RuleMin, 19)
	if !errors.Is(err, ErrScoreMismatch) {
		t.Fatalf("err = %v, want ErrScoreMismatch", err)
	}
	if alice.HasDeclared() {
		t.Error("rejected declaration mutated player state")
	}

	// Exact match is accepted
	if err := table.Declare(alice.ID, alice.ID, RuleMin, 18); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if alice.Choice != RuleMin || *alice.FinalScore != 18 {
		t.Errorf("declaration = %s %v", alice.Choice, alice.FinalScore)
	}
}

func TestDeclareChoiceIsImmutable(t *testing.T) {
	table, players := newTestTable(t, "alice", "bob")
	alice := players[0]

	table.phase = PhaseFinal
	alice.Hand = []deck.Card{deck.NewCard(deck.Nine, deck.Spades)}

	if err := table.Declare(alice.ID, alice.ID, RuleMin, 9); err != nil {
		t.Fatalf("declare: %v", err)
	}
	err := table.Declare(alice.ID, alice.ID, RuleMax, 9)
	if !errors.Is(err, ErrAlreadyDeclared) {
		t.Fatalf("err = %v, want ErrAlreadyDeclared", err)
	}
}

func TestLastDeclarationTriggersSettlement(t *testing.T) {
	table, players := newTestTable(t, "alice", "bob")
	alice, bob := players[0], players[1]

	table.phase = PhaseFinal
	table.pot = 200
	alice.Hand = []deck.Card{deck.NewCard(deck.Nine, deck.Spades)}
	bob.Hand = []deck.Card{deck.NewCard(deck.Four, deck.Spades)}

	if err := table.Declare(alice.ID, alice.ID, RuleMin, 9); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if table.Phase() != PhaseFinal {
		t.Fatalf("phase = %s, settlement ran early", table.Phase())
	}
	if err := table.Declare(bob.ID, bob.ID, RuleMin, 4); err != nil {
		t.Fatalf("declare: %v", err)
	}

	if table.Phase() != PhaseResults {
		t.Errorf("phase = %s, want results after last declaration", table.Phase())
	}
	if bob.Balance != table.cfg.StartingBalance+200 {
		t.Errorf("bob balance = %d, want the whole pot (lowest min score)", bob.Balance)
	}
}

func TestJackpotOverrideAwardsWholePot(t *testing.T) {
	table, players := newTestTable(t, "alice", "bob")
	alice, bob := players[0], players[1]
	startRound(t, table, alice, 5, 6)

	if err := table.Bet(alice.ID, alice.ID, 100); err != nil {
		t.Fatalf("bet: %v", err)
	}
	if err := table.Bet(bob.ID, bob.ID, 100); err != nil {
		t.Fatalf("call: %v", err)
	}

	balanceBefore := bob.Balance
	if err := table.Jackpot(alice.ID, bob.ID); err != nil {
		t.Fatalf("jackpot: %v", err)
	}

	if bob.Balance != balanceBefore+200 {
		t.Errorf("bob balance = %d, want +200", bob.Balance)
	}
	if table.Pot() != 0 {
		t.Errorf("pot = %d, want 0", table.Pot())
	}
	if table.Phase() != PhaseResults {
		t.Errorf("phase = %s, want results", table.Phase())
	}
}

func TestJackpotRequiresAdmin(t *testing.T) {
	table, players := newTestTable(t, "alice", "bob")
	alice, bob := players[0], players[1]
	startRound(t, table, alice, 5, 6)

	err := table.Jackpot(bob.ID, bob.ID)
	if !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("err = %v, want ErrNotAdmin", err)
	}
}

func TestSettleEmitsHistoryEntry(t *testing.T) {
	var got []Event
	sink := eventRecorder{events: &got}

	table, players := newTestTable(t, "alice", "bob")
	table.sink = sink
	alice, bob := players[0], players[1]

	table.phase = PhaseFinal
	table.pot = 300
	declare(alice, RuleMin, 10)
	declare(bob, RuleMax, 22)

	if err := table.Settle(); err != nil {
		t.Fatalf("settle: %v", err)
	}

	var entry *HistoryEntry
	for _, e := range got {
		if se, ok := e.(SettledEvent); ok {
			entry = &se.Entry
		}
	}
	if entry == nil {
		t.Fatal("no settled event emitted")
	}
	if entry.Pot != 300 {
		t.Errorf("entry pot = %d, want 300", entry.Pot)
	}
	if len(entry.Winners) != 2 {
		t.Errorf("entry winners = %d, want 2", len(entry.Winners))
	}
	if entry.Description == "" {
		t.Error("entry description empty")
	}
}

type eventRecorder struct {
	events *[]Event
}

func (r eventRecorder) OnEvent(e Event) {
	*r.events = append(*r.events, e)
}
