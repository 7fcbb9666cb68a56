package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
// These are used for the client-server communication protocol
const (
	// Client to server messages
	MessageTypeJoin          MessageType = "join"
	MessageTypeAddBot        MessageType = "add_bot"
	MessageTypeStartRound    MessageType = "start_round"
	MessageTypeConfirmDealer MessageType = "confirm_dealer"
	MessageTypeRevealCard    MessageType = "reveal_card"
	MessageTypePlayerAction  MessageType = "player_action"
	MessageTypeDeclare       MessageType = "declare"
	MessageTypeJackpot       MessageType = "jackpot"
	MessageTypeReset         MessageType = "reset"
	MessageTypePurgePlayer   MessageType = "purge_player"
	MessageTypeWipe          MessageType = "wipe"
	MessageTypeHistory       MessageType = "history"

	// Server to client messages
	MessageTypeJoined        MessageType = "joined"
	MessageTypeBotAdded      MessageType = "bot_added"
	MessageTypeTableState    MessageType = "table_state"
	MessageTypeHand          MessageType = "hand"
	MessageTypeRoundStarted  MessageType = "round_started"
	MessageTypeCardRevealed  MessageType = "card_revealed"
	MessageTypeHandEmptied   MessageType = "hand_emptied"
	MessageTypeSettled       MessageType = "settled"
	MessageTypeHistoryList   MessageType = "history_list"
	MessageTypeError         MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
