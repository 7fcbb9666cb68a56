package server

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegaslive/server/internal/game"
	"github.com/vegaslive/server/internal/store"
)

func newTestService(t *testing.T) (*GameService, *store.MemoryStore, *quartz.Mock) {
	t.Helper()

	st := store.NewMemoryStore()
	mockClock := quartz.NewMock(t)
	logger := log.New(io.Discard)

	cfg := game.Config{
		BetFloor:        10,
		BetCap:          200,
		StartingBalance: 10000,
		TotalCards:      3,
		HandSize:        4,
	}
	svc := NewGameService(cfg, nil, st, mockClock, logger)
	return svc, st, mockClock
}

func TestJoinPersistsSnapshot(t *testing.T) {
	svc, st, _ := newTestService(t)

	joined, err := svc.Join("alice", true, "")
	require.NoError(t, err)
	assert.NotEmpty(t, joined.PlayerID)
	assert.True(t, joined.Admin)
	assert.False(t, joined.Rejoined)

	raw, ok := st.Get("table")
	require.True(t, ok, "snapshot must be written on join")

	var state TableStateData
	require.NoError(t, json.Unmarshal(raw, &state))
	assert.Equal(t, "lobby", state.Phase)
	require.Len(t, state.Players, 1)
	assert.Equal(t, "alice", state.Players[0].Username)
}

func TestRejoinReclaimsSeat(t *testing.T) {
	svc, _, _ := newTestService(t)

	joined, err := svc.Join("alice", true, "")
	require.NoError(t, err)

	// Duplicate username is rejected for a fresh join
	_, err = svc.Join("ALICE", false, "")
	assert.ErrorIs(t, err, game.ErrUsernameTaken)

	// Presenting the issued id reattaches instead
	again, err := svc.Join("alice", false, joined.PlayerID)
	require.NoError(t, err)
	assert.True(t, again.Rejoined)
	assert.Equal(t, joined.PlayerID, again.PlayerID)
	assert.True(t, again.Admin, "seat keeps its original role")
}

func TestBotActsAfterDelay(t *testing.T) {
	svc, _, mockClock := newTestService(t)
	ctx := context.Background()

	admin, err := svc.Join("alice", true, "")
	require.NoError(t, err)
	bot, err := svc.AddBot(admin.PlayerID, "rusty")
	require.NoError(t, err)

	require.NoError(t, svc.StartRound(admin.PlayerID, 3, 4))

	// Bot deals first, so confirming it as dealer hands it the turn
	require.NoError(t, svc.ConfirmDealer(admin.PlayerID, bot.Position))
	require.Equal(t, bot.PlayerID, svc.Table().TurnPlayerID())

	_, w := mockClock.AdvanceNext()
	w.MustWait(ctx)

	// Nothing owed, so the bot checks and play moves on
	assert.Equal(t, admin.PlayerID, svc.Table().TurnPlayerID())
	botPlayer := svc.Table().PlayerByID(bot.PlayerID)
	require.NotNil(t, botPlayer)
	assert.True(t, botPlayer.HasActed)
}

func TestStaleTimerIsNoOp(t *testing.T) {
	svc, _, mockClock := newTestService(t)
	ctx := context.Background()

	admin, err := svc.Join("alice", true, "")
	require.NoError(t, err)
	bot, err := svc.AddBot(admin.PlayerID, "rusty")
	require.NoError(t, err)

	require.NoError(t, svc.StartRound(admin.PlayerID, 3, 4))
	require.NoError(t, svc.ConfirmDealer(admin.PlayerID, bot.Position))

	// Admin overrides before the bot timer fires
	require.NoError(t, svc.HandleAction(admin.PlayerID, bot.PlayerID, "bet", 50))

	potBefore := svc.Table().Pot()
	turnBefore := svc.Table().TurnPlayerID()
	require.Equal(t, admin.PlayerID, turnBefore)

	_, w := mockClock.AdvanceNext()
	w.MustWait(ctx)

	assert.Equal(t, potBefore, svc.Table().Pot(), "stale bot timer must not act")
	assert.Equal(t, turnBefore, svc.Table().TurnPlayerID())
	botPlayer := svc.Table().PlayerByID(bot.PlayerID)
	assert.Equal(t, game.Cents(50), botPlayer.LastBet, "override bet stands")
}

func TestAutoRevealAfterSegment(t *testing.T) {
	svc, _, mockClock := newTestService(t)
	ctx := context.Background()

	admin, err := svc.Join("alice", true, "")
	require.NoError(t, err)
	human, err := svc.Join("bob", false, "")
	require.NoError(t, err)

	require.NoError(t, svc.StartRound(admin.PlayerID, 3, 4))
	require.NoError(t, svc.ConfirmDealer(admin.PlayerID, 0))

	require.NoError(t, svc.HandleAction(admin.PlayerID, "", "check", 0))
	require.NoError(t, svc.HandleAction(human.PlayerID, "", "check", 0))
	require.Equal(t, game.PhaseRevealing, svc.Table().Phase())

	_, w := mockClock.AdvanceNext()
	w.MustWait(ctx)

	assert.Len(t, svc.Table().Revealed(), 1)
	assert.Equal(t, game.PhaseBetting, svc.Table().Phase(), "more cards remain")
	assert.Equal(t, admin.PlayerID, svc.Table().TurnPlayerID(), "dealer opens the next segment")
}

func TestBettingUpdateWritesDeltaPaths(t *testing.T) {
	svc, st, _ := newTestService(t)

	admin, err := svc.Join("alice", true, "")
	require.NoError(t, err)
	human, err := svc.Join("bob", false, "")
	require.NoError(t, err)

	require.NoError(t, svc.StartRound(admin.PlayerID, 3, 4))
	require.NoError(t, svc.ConfirmDealer(admin.PlayerID, 0))
	require.NoError(t, svc.HandleAction(admin.PlayerID, "", "bet", 50))

	raw, ok := st.Get("table/pot")
	require.True(t, ok)
	assert.JSONEq(t, "50", string(raw))

	raw, ok = st.Get("table/currentBet")
	require.True(t, ok)
	assert.JSONEq(t, "50", string(raw))

	raw, ok = st.Get("table/turn")
	require.True(t, ok)
	assert.JSONEq(t, `"`+human.PlayerID+`"`, string(raw))

	raw, ok = st.Get("table/players/" + admin.PlayerID)
	require.True(t, ok)
	var ps PlayerState
	require.NoError(t, json.Unmarshal(raw, &ps))
	assert.Equal(t, int64(50), ps.LastBet)
	assert.Equal(t, int64(9950), ps.Balance)
}

func TestFullRoundSettlesIntoHistory(t *testing.T) {
	svc, _, mockClock := newTestService(t)
	ctx := context.Background()

	admin, err := svc.Join("alice", true, "")
	require.NoError(t, err)
	human, err := svc.Join("bob", false, "")
	require.NoError(t, err)

	require.NoError(t, svc.StartRound(admin.PlayerID, 1, 4))
	require.NoError(t, svc.ConfirmDealer(admin.PlayerID, 0))

	require.NoError(t, svc.HandleAction(admin.PlayerID, "", "bet", 50))
	require.NoError(t, svc.HandleAction(human.PlayerID, "", "bet", 50))
	require.Equal(t, game.PhaseRevealing, svc.Table().Phase())

	_, w := mockClock.AdvanceNext()
	w.MustWait(ctx)
	require.Equal(t, game.PhaseFinal, svc.Table().Phase(), "single shared card ends revelation")

	// Declarations must match the recomputed score exactly
	for _, id := range []string{admin.PlayerID, human.PlayerID} {
		p := svc.Table().PlayerByID(id)
		require.NotNil(t, p)
		score := game.Score(p.Hand, game.RuleMin)
		require.NoError(t, svc.Declare(id, "", "min", score))
	}

	require.Equal(t, game.PhaseResults, svc.Table().Phase())

	entries, err := svc.History(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var entry game.HistoryEntry
	require.NoError(t, json.Unmarshal(entries[0].Value, &entry))
	assert.Equal(t, game.Cents(100), entry.Pot)
	assert.NotEmpty(t, entry.Winners)
	assert.False(t, entry.Jackpot)

	// Later snapshot syncs replace the table subtree; the settlement
	// record lives outside it and must survive
	require.NoError(t, svc.Reset(admin.PlayerID))
	entries, err = svc.History(10)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "history must survive snapshot replacement")
}

func TestBotsDeclareInFinal(t *testing.T) {
	svc, _, mockClock := newTestService(t)
	ctx := context.Background()

	admin, err := svc.Join("alice", true, "")
	require.NoError(t, err)
	bot, err := svc.AddBot(admin.PlayerID, "rusty")
	require.NoError(t, err)

	require.NoError(t, svc.StartRound(admin.PlayerID, 1, 4))
	require.NoError(t, svc.ConfirmDealer(admin.PlayerID, 0))

	require.NoError(t, svc.HandleAction(admin.PlayerID, "", "check", 0))
	_, w := mockClock.AdvanceNext()
	w.MustWait(ctx) // bot checks
	require.Equal(t, game.PhaseRevealing, svc.Table().Phase())

	_, w = mockClock.AdvanceNext()
	w.MustWait(ctx) // auto reveal
	require.Equal(t, game.PhaseFinal, svc.Table().Phase())

	_, w = mockClock.AdvanceNext()
	w.MustWait(ctx) // bot declares
	botPlayer := svc.Table().PlayerByID(bot.PlayerID)
	require.NotNil(t, botPlayer)
	assert.True(t, botPlayer.HasDeclared())

	// Human declaration completes the round
	p := svc.Table().PlayerByID(admin.PlayerID)
	score := game.Score(p.Hand, game.RuleMax)
	require.NoError(t, svc.Declare(admin.PlayerID, "", "max", score))
	assert.Equal(t, game.PhaseResults, svc.Table().Phase())
}

func TestJackpotRecordsHistory(t *testing.T) {
	svc, _, _ := newTestService(t)

	admin, err := svc.Join("alice", true, "")
	require.NoError(t, err)
	human, err := svc.Join("bob", false, "")
	require.NoError(t, err)

	require.NoError(t, svc.StartRound(admin.PlayerID, 3, 4))
	require.NoError(t, svc.ConfirmDealer(admin.PlayerID, 0))
	require.NoError(t, svc.HandleAction(admin.PlayerID, "", "bet", 100))

	require.NoError(t, svc.Jackpot(admin.PlayerID, human.PlayerID))
	assert.Equal(t, game.PhaseResults, svc.Table().Phase())

	entries, err := svc.History(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var entry game.HistoryEntry
	require.NoError(t, json.Unmarshal(entries[0].Value, &entry))
	assert.True(t, entry.Jackpot)
	assert.Equal(t, game.Cents(100), entry.Pot)
}

func TestNonAdminCannotDriveTheRound(t *testing.T) {
	svc, _, _ := newTestService(t)

	admin, err := svc.Join("alice", true, "")
	require.NoError(t, err)
	human, err := svc.Join("bob", false, "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.StartRound(human.PlayerID, 3, 4), game.ErrNotAdmin)

	require.NoError(t, svc.StartRound(admin.PlayerID, 3, 4))
	assert.ErrorIs(t, svc.ConfirmDealer(human.PlayerID, 0), game.ErrNotAdmin)
	assert.ErrorIs(t, svc.Reset(human.PlayerID), game.ErrNotAdmin)
	assert.ErrorIs(t, svc.Wipe(human.PlayerID), game.ErrNotAdmin)

	require.NoError(t, svc.ConfirmDealer(admin.PlayerID, 0))

	// Acting for someone else requires the admin role
	err = svc.HandleAction(human.PlayerID, admin.PlayerID, "check", 0)
	assert.ErrorIs(t, err, game.ErrNotAdmin)
}
