package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/coder/quartz"

	"github.com/vegaslive/server/internal/game"
	"github.com/vegaslive/server/internal/server"
	"github.com/vegaslive/server/internal/store"
)

// SimulateCmd drives full rounds in process with one scripted admin and a
// table of bots. Useful for smoke-testing the round state machine without
// a client.
type SimulateCmd struct {
	Rounds     int   `kong:"default='3',help='Rounds to play'"`
	Bots       int   `kong:"default='3',help='Bot seats'"`
	TotalCards int   `kong:"default='5',help='Shared cards per round'"`
	HandSize   int   `kong:"default='6',help='Private cards per player'"`
	Seed       int64 `kong:"help='RNG seed for the scripted admin (0 = time based)'"`
	Debug      bool  `kong:"help='Enable debug logging'"`
}

func (c *SimulateCmd) Run() error {
	if c.Bots < 1 {
		return fmt.Errorf("need at least one bot")
	}
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	logger := setupLogger(c.Debug, "warn")

	cfg := game.DefaultConfig()
	cfg.TotalCards = c.TotalCards
	cfg.HandSize = c.HandSize

	st := store.NewMemoryStore()
	defer func() { _ = st.Close() }()
	svc := server.NewGameService(cfg, nil, st, quartz.NewReal(), logger)

	admin, err := svc.Join("dealer", true, "")
	if err != nil {
		return err
	}
	for i := 0; i < c.Bots; i++ {
		if _, err := svc.AddBot(admin.PlayerID, fmt.Sprintf("bot-%d", i+1)); err != nil {
			return err
		}
	}

	for round := 1; round <= c.Rounds; round++ {
		fmt.Printf("--- round %d ---\n", round)
		if err := c.playRound(svc, admin.PlayerID, rng); err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
	}

	entries, err := svc.History(c.Rounds)
	if err != nil {
		return err
	}
	fmt.Println("--- settlement history (newest first) ---")
	for _, e := range entries {
		var entry game.HistoryEntry
		if err := json.Unmarshal(e.Value, &entry); err != nil {
			continue
		}
		fmt.Printf("pot %d: %s\n", entry.Pot, entry.Description)
	}
	return nil
}

// playRound starts a round and plays the admin's seat until settlement.
// Bot seats act on their own timers; the loop polls and fills in the one
// human role.
func (c *SimulateCmd) playRound(svc *server.GameService, adminID string, rng *rand.Rand) error {
	if err := svc.StartRound(adminID, c.TotalCards, c.HandSize); err != nil {
		return err
	}
	snap := svc.Snapshot()
	if err := svc.ConfirmDealer(adminID, snap.DealerPosition); err != nil {
		return err
	}

	deadline := time.Now().Add(2 * time.Minute)
	for time.Now().Before(deadline) {
		snap := svc.Snapshot()
		switch snap.Phase {
		case "results":
			return nil

		case "betting":
			if snap.CurrentTurn != adminID {
				break
			}
			if err := c.adminBettingTurn(svc, adminID, snap, rng); err != nil {
				return err
			}

		case "final":
			declared := false
			for _, p := range snap.Players {
				if p.ID == adminID {
					declared = p.FinalScore != nil
				}
			}
			if declared {
				break
			}
			rule := game.RuleMin
			if rng.Intn(2) == 1 {
				rule = game.RuleMax
			}
			score := game.Score(svc.Hand(adminID), rule)
			if err := svc.Declare(adminID, "", rule.String(), score); err != nil {
				return err
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("round did not settle before the deadline")
}

func (c *SimulateCmd) adminBettingTurn(svc *server.GameService, adminID string, snap server.TableStateData, rng *rand.Rand) error {
	var self server.PlayerState
	for _, p := range snap.Players {
		if p.ID == adminID {
			self = p
		}
	}

	owed := snap.CurrentBet - self.LastBet
	switch {
	case owed == 0 && rng.Intn(3) > 0:
		return svc.HandleAction(adminID, "", "check", 0)
	case owed > self.Balance:
		return svc.HandleAction(adminID, "", "fold", 0)
	default:
		// call, or occasionally raise a notch
		amount := snap.CurrentBet
		if rng.Intn(4) == 0 {
			amount += 10
		}
		return svc.HandleAction(adminID, "", "bet", amount)
	}
}
