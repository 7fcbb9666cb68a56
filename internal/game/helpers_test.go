package game

import (
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
)

// newTestTable seats the given players; the first is the admin.
func newTestTable(tb testing.TB, names ...string) (*Table, []*Player) {
	tb.Helper()
	table := NewTable(DefaultConfig(), log.New(io.Discard), WithRNG(rand.New(rand.NewSource(1))))
	players := make([]*Player, 0, len(names))
	for i, name := range names {
		p, err := table.Join(name, i == 0)
		if err != nil {
			tb.Fatalf("join %s: %v", name, err)
		}
		players = append(players, p)
	}
	return table, players
}

// startRound starts a round and confirms the admin as dealer
func startRound(tb testing.TB, table *Table, admin *Player, totalCards, handSize int) {
	tb.Helper()
	if err := table.StartRound(admin.ID, totalCards, handSize); err != nil {
		tb.Fatalf("start round: %v", err)
	}
	if err := table.ConfirmDealer(admin.ID, admin.Position); err != nil {
		tb.Fatalf("confirm dealer: %v", err)
	}
}
