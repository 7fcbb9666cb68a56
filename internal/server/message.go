package server

import (
	"encoding/json"
	"time"

	"github.com/vegaslive/server/internal/deck"
	"github.com/vegaslive/server/internal/game"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type JoinData struct {
	Username string `json:"username"`
	PlayerID string `json:"playerId,omitempty"` // previously issued id for seat reattach
	Admin    bool   `json:"admin,omitempty"`
}

type AddBotData struct {
	Name string `json:"name,omitempty"`
}

type StartRoundData struct {
	TotalCards int `json:"totalCards,omitempty"`
	HandSize   int `json:"handSize,omitempty"`
}

type ConfirmDealerData struct {
	Position int `json:"position"`
}

type PlayerActionData struct {
	PlayerID string `json:"playerId,omitempty"` // admin override target; defaults to caller
	Action   string `json:"action"`             // bet, check or fold
	Amount   int64  `json:"amount,omitempty"`   // cents, bet only
}

type DeclareData struct {
	PlayerID string `json:"playerId,omitempty"`
	Rule     string `json:"rule"` // min or max
	Score    int    `json:"score"`
}

type JackpotData struct {
	PlayerID string `json:"playerId"`
}

type PurgePlayerData struct {
	PlayerID string `json:"playerId"`
}

type HistoryData struct {
	Limit int `json:"limit,omitempty"`
}

// Server → Client Messages

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type JoinedData struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Position int    `json:"position"`
	Admin    bool   `json:"admin"`
	Rejoined bool   `json:"rejoined"`
}

type BotAddedData struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Position int    `json:"position"`
}

// CardInfo is the wire form of a card: value, suit symbol and the color
// derived from the suit.
type CardInfo struct {
	Value string `json:"value"`
	Suit  string `json:"suit"`
	Color string `json:"color"`
}

// HandData carries a player's private cards; sent only to the owner
type HandData struct {
	Cards []CardInfo `json:"cards"`
}

type PlayerState struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	Balance          int64      `json:"balance"`
	IsAdmin          bool       `json:"isAdmin"`
	IsBot            bool       `json:"isBot"`
	Position         int        `json:"position"`
	LastBet          int64      `json:"lastBet"`
	TotalBetThisHand int64      `json:"totalBetThisHand"`
	HasActed         bool       `json:"hasActed"`
	Folded           bool       `json:"folded"`
	HandCount        int        `json:"handCount"`
	DiscardedCards   []CardInfo `json:"discardedCards,omitempty"`
	Choice           string     `json:"choice,omitempty"`
	FinalScore       *int       `json:"finalScore,omitempty"`
}

type TableStateData struct {
	Phase          string        `json:"phase"`
	Pot            int64         `json:"pot"`
	CurrentBet     int64         `json:"currentBet"`
	RevealedCards  []CardInfo    `json:"revealedCards"`
	TotalCards     int           `json:"totalCards"`
	HandSize       int           `json:"handSize"`
	DealerPosition int           `json:"dealerPosition"`
	CurrentTurn    string        `json:"currentTurnPlayerId,omitempty"`
	RoundID        string        `json:"roundId,omitempty"`
	DealerPending  bool          `json:"dealerPending"`
	Players        []PlayerState `json:"players"`
}

type RoundStartedData struct {
	RoundID        string `json:"roundId"`
	TotalCards     int    `json:"totalCards"`
	HandSize       int    `json:"handSize"`
	DealerPosition int    `json:"dealerPosition"`
}

type CardRevealedData struct {
	Card     CardInfo `json:"card"`
	Revealed int      `json:"revealed"`
	Of       int      `json:"of"`
	Phase    string   `json:"phase"`
}

type HandEmptiedData struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

type SettledData struct {
	Description string       `json:"description"`
	Pot         int64        `json:"pot"`
	Winners     []PayoutInfo `json:"winners"`
	Jackpot     bool         `json:"jackpot,omitempty"`
}

type PayoutInfo struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Rule     string `json:"rule,omitempty"`
	Score    int    `json:"score"`
	Amount   int64  `json:"amount"`
}

type HistoryListData struct {
	Entries []json.RawMessage `json:"entries"`
}

// Helper functions to convert between internal types and message types

func CardInfoFromDeck(c deck.Card) CardInfo {
	return CardInfo{
		Value: c.Value.String(),
		Suit:  c.Suit.String(),
		Color: c.Color(),
	}
}

func cardInfos(cards []deck.Card) []CardInfo {
	if len(cards) == 0 {
		return nil
	}
	out := make([]CardInfo, len(cards))
	for i, c := range cards {
		out[i] = CardInfoFromDeck(c)
	}
	return out
}

func PlayerStateFromGame(p *game.Player) PlayerState {
	return PlayerState{
		ID:               p.ID,
		Username:         p.Username,
		Balance:          int64(p.Balance),
		IsAdmin:          p.IsAdmin,
		IsBot:            p.IsBot,
		Position:         p.Position,
		LastBet:          int64(p.LastBet),
		TotalBetThisHand: int64(p.TotalBetThisHand),
		HasActed:         p.HasActed,
		Folded:           p.Folded,
		HandCount:        len(p.Hand),
		DiscardedCards:   cardInfos(p.DiscardedCards),
		Choice:           p.Choice.String(),
		FinalScore:       p.FinalScore,
	}
}

func TableStateFromGame(t *game.Table) TableStateData {
	players := t.Players()
	states := make([]PlayerState, len(players))
	for i, p := range players {
		states[i] = PlayerStateFromGame(p)
	}

	return TableStateData{
		Phase:          t.Phase().String(),
		Pot:            int64(t.Pot()),
		CurrentBet:     int64(t.CurrentBet()),
		RevealedCards:  cardInfos(t.Revealed()),
		TotalCards:     t.TotalCards(),
		HandSize:       t.HandSize(),
		DealerPosition: t.DealerPosition(),
		CurrentTurn:    t.TurnPlayerID(),
		RoundID:        t.RoundID(),
		DealerPending:  t.DealerPending(),
		Players:        states,
	}
}

func SettledDataFromEntry(entry game.HistoryEntry) SettledData {
	winners := make([]PayoutInfo, len(entry.Winners))
	for i, w := range entry.Winners {
		winners[i] = PayoutInfo{
			PlayerID: w.PlayerID,
			Username: w.Username,
			Rule:     w.Rule,
			Score:    w.Score,
			Amount:   int64(w.Amount),
		}
	}
	return SettledData{
		Description: entry.Description,
		Pot:         int64(entry.Pot),
		Winners:     winners,
		Jackpot:     entry.Jackpot,
	}
}
