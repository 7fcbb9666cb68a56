package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn        *websocket.Conn
	send        chan *Message
	playerID    string
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex
	closeOnce   sync.Once
	gameService *GameService
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, gameService *GameService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:        conn,
		send:        make(chan *Message, 256),
		logger:      logger.WithPrefix("conn"),
		ctx:         ctx,
		cancel:      cancel,
		gameService: gameService,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with a player
func (c *Connection) SetPlayer(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
}

// GetPlayer returns the associated player ID
func (c *Connection) GetPlayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.GetPlayer())

	if c.gameService == nil {
		c.sendError("service_unavailable", "Game service not available")
		return
	}

	switch msg.Type {
	case MessageTypeJoin:
		var data JoinData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join data")
			return
		}
		c.handleJoin(data)

	case MessageTypeAddBot:
		var data AddBotData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse add bot data")
			return
		}
		c.handleAddBot(data)

	case MessageTypeStartRound:
		var data StartRoundData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse start round data")
			return
		}
		if err := c.gameService.StartRound(c.GetPlayer(), data.TotalCards, data.HandSize); err != nil {
			c.sendError("start_round_failed", err.Error())
		}

	case MessageTypeConfirmDealer:
		var data ConfirmDealerData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse confirm dealer data")
			return
		}
		if err := c.gameService.ConfirmDealer(c.GetPlayer(), data.Position); err != nil {
			c.sendError("confirm_dealer_failed", err.Error())
		}

	case MessageTypeRevealCard:
		if err := c.gameService.RevealCard(c.GetPlayer()); err != nil {
			c.sendError("reveal_failed", err.Error())
		}

	case MessageTypePlayerAction:
		var data PlayerActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse player action data")
			return
		}
		if err := c.gameService.HandleAction(c.GetPlayer(), data.PlayerID, data.Action, data.Amount); err != nil {
			c.sendError("action_failed", err.Error())
		}

	case MessageTypeDeclare:
		var data DeclareData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse declare data")
			return
		}
		if err := c.gameService.Declare(c.GetPlayer(), data.PlayerID, data.Rule, data.Score); err != nil {
			c.sendError("declare_failed", err.Error())
		}

	case MessageTypeJackpot:
		var data JackpotData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse jackpot data")
			return
		}
		if err := c.gameService.Jackpot(c.GetPlayer(), data.PlayerID); err != nil {
			c.sendError("jackpot_failed", err.Error())
		}

	case MessageTypeReset:
		if err := c.gameService.Reset(c.GetPlayer()); err != nil {
			c.sendError("reset_failed", err.Error())
		}

	case MessageTypePurgePlayer:
		var data PurgePlayerData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse purge player data")
			return
		}
		if err := c.gameService.PurgePlayer(c.GetPlayer(), data.PlayerID); err != nil {
			c.sendError("purge_failed", err.Error())
		}

	case MessageTypeWipe:
		if err := c.gameService.Wipe(c.GetPlayer()); err != nil {
			c.sendError("wipe_failed", err.Error())
		}

	case MessageTypeHistory:
		var data HistoryData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse history data")
			return
		}
		c.handleHistory(data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

func (c *Connection) handleJoin(data JoinData) {
	c.logger.Info("Join request", "username", data.Username)

	joined, err := c.gameService.Join(data.Username, data.Admin, data.PlayerID)
	if err != nil {
		c.sendError("join_failed", err.Error())
		return
	}

	c.SetPlayer(joined.PlayerID)

	response, _ := NewMessage(MessageTypeJoined, joined)
	_ = c.SendMessage(response)

	// Catch the client up: current table state, plus the private hand if a
	// round is in progress (matters for mid-round rejoins).
	state, _ := NewMessage(MessageTypeTableState, c.gameService.Snapshot())
	_ = c.SendMessage(state)
	if hand := c.gameService.Hand(joined.PlayerID); len(hand) > 0 {
		msg, _ := NewMessage(MessageTypeHand, HandData{Cards: cardInfos(hand)})
		_ = c.SendMessage(msg)
	}
}

func (c *Connection) handleAddBot(data AddBotData) {
	c.logger.Info("Add bot request", "player", c.GetPlayer())

	added, err := c.gameService.AddBot(c.GetPlayer(), data.Name)
	if err != nil {
		c.sendError("add_bot_failed", err.Error())
		return
	}

	response, _ := NewMessage(MessageTypeBotAdded, added)
	_ = c.SendMessage(response)
}

func (c *Connection) handleHistory(data HistoryData) {
	entries, err := c.gameService.History(data.Limit)
	if err != nil {
		c.sendError("history_failed", err.Error())
		return
	}

	raws := make([]json.RawMessage, len(entries))
	for i, e := range entries {
		raws[i] = e.Value
	}
	response, _ := NewMessage(MessageTypeHistoryList, HistoryListData{Entries: raws})
	_ = c.SendMessage(response)
}
