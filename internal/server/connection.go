package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Grosth/BlackjackCSFinal/internal/auth"
	"github.com/Grosth/BlackjackCSFinal/internal/protocol"
	"github.com/Grosth/BlackjackCSFinal/internal/session"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Connection represents a WebSocket connection to a player
type Connection struct {
	conn      *websocket.Conn
	send      chan *protocol.Message
	identity  *auth.Identity
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	sessions  *session.Manager
	validator auth.Validator
}

// NewConnection creates a new connection wrapper. The connection's context
// ends when parent does or when the socket closes.
func NewConnection(parent context.Context, conn *websocket.Conn, logger *log.Logger, sessions *session.Manager, validator auth.Validator) *Connection {
	ctx, cancel := context.WithCancel(parent)

	return &Connection{
		conn:      conn,
		send:      make(chan *protocol.Message, 256),
		logger:    logger.WithPrefix("conn"),
		ctx:       ctx,
		cancel:    cancel,
		sessions:  sessions,
		validator: validator,
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
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *protocol.Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		c.logger.Warn("Connection send buffer full, closing connection", "user", c.UserID())
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// Identity returns the authenticated identity, or nil before auth
func (c *Connection) Identity() *auth.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// UserID returns the authenticated user ID, or "" before auth
func (c *Connection) UserID() string {
	if id := c.Identity(); id != nil {
		return id.UserID
	}
	return ""
}

func (c *Connection) setIdentity(id *auth.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = id
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

var ErrConnectionClosed = errors.New("connection closed")

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
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
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
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
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
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *protocol.Message) {
	c.logger.Debug("Received message", "type", msg.Type, "user", c.UserID(), "request", msg.RequestID)

	if msg.Type == protocol.TypeAuth {
		var data protocol.AuthData
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg.RequestID, protocol.ErrorData{Code: protocol.CodeInvalidMessage, Message: "Failed to parse auth data"})
			return
		}
		c.handleAuth(msg.RequestID, data)
		return
	}

	id := c.Identity()
	if id == nil {
		c.sendError(msg.RequestID, protocol.ErrorData{Code: protocol.CodeNotAuthenticated, Message: "Must authenticate first"})
		return
	}

	switch msg.Type {
	case protocol.TypeDeal:
		var data protocol.DealData
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg.RequestID, protocol.ErrorData{Code: protocol.CodeInvalidMessage, Message: "Failed to parse deal data"})
			return
		}
		c.handleDeal(msg.RequestID, *id, data)

	case protocol.TypeHit, protocol.TypeStand, protocol.TypeDouble:
		action, _ := protocol.ActionFor(msg.Type)
		c.handleAction(msg.RequestID, *id, action)

	case protocol.TypeProfile:
		c.handleProfile(msg.RequestID, *id)

	case protocol.TypeHistory:
		var data protocol.HistoryRequestData
		if err := msg.Decode(&data); err != nil {
			c.sendError(msg.RequestID, protocol.ErrorData{Code: protocol.CodeInvalidMessage, Message: "Failed to parse history data"})
			return
		}
		c.handleHistory(msg.RequestID, *id, data)

	default:
		c.sendError(msg.RequestID, protocol.ErrorData{Code: protocol.CodeUnknownMessageType, Message: "Unknown message type: " + msg.Type.String()})
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(requestID string, data protocol.ErrorData) {
	errorMsg, err := protocol.Reply(requestID, protocol.TypeError, data)
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	_ = c.SendMessage(errorMsg)
}

func (c *Connection) fail(requestID string, err error) {
	data := protocol.ErrorFor(err)
	if data.Code == protocol.CodeInternal {
		c.logger.Error("Request failed", "user", c.UserID(), "request", requestID, "error", err)
	} else {
		c.logger.Debug("Request rejected", "user", c.UserID(), "request", requestID, "code", data.Code, "error", err)
	}
	c.sendError(requestID, data)
}

func (c *Connection) reply(requestID string, mt protocol.MessageType, data any) {
	msg, err := protocol.Reply(requestID, mt, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", mt, "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

func (c *Connection) sendState(requestID string, st session.State) {
	msg, err := protocol.StateMessage(requestID, st, c.sessions.Rules().BetOptions)
	if err != nil {
		c.logger.Error("Failed to create state message", "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

func (c *Connection) handleAuth(requestID string, data protocol.AuthData) {
	identity, err := c.validator.Validate(c.ctx, data.Token)
	if err != nil {
		c.logger.Info("Auth rejected", "error", err)
		code := protocol.ErrorFor(err).Code
		c.reply(requestID, protocol.TypeAuthResponse, protocol.AuthResponseData{Success: false, Error: code})
		return
	}

	profile, err := c.sessions.Join(c.ctx, *identity)
	if err != nil {
		c.fail(requestID, err)
		return
	}
	c.setIdentity(identity)
	c.logger.Info("Player authenticated", "user", identity.UserID, "username", identity.Username, "chips", profile.Chips)

	rules := c.sessions.Rules()
	resp := protocol.AuthResponseData{
		Success:  true,
		UserID:   identity.UserID,
		Username: identity.Username,
		Profile:  &profile,
		Rules:    &rules,
	}
	// Resume a round left in play by an earlier connection.
	if st, err := c.sessions.Current(c.ctx, identity.UserID); err == nil && st.Outcome == nil {
		resp.Round = &protocol.RoundStateData{
			RoundID:    st.RoundID,
			Round:      st.Round,
			Profile:    st.Profile,
			BetOptions: rules.BetOptions,
		}
	}
	c.reply(requestID, protocol.TypeAuthResponse, resp)
}

func (c *Connection) handleDeal(requestID string, id auth.Identity, data protocol.DealData) {
	st, err := c.sessions.Deal(c.ctx, id, data.Bet)
	if err != nil {
		c.fail(requestID, err)
		return
	}
	c.sendState(requestID, st)
}

func (c *Connection) handleAction(requestID string, id auth.Identity, action session.Action) {
	st, err := c.sessions.Act(c.ctx, id.UserID, action)
	if err != nil {
		c.fail(requestID, err)
		return
	}
	c.sendState(requestID, st)
}

func (c *Connection) handleProfile(requestID string, id auth.Identity) {
	p, err := c.sessions.Profile(c.ctx, id.UserID)
	if err != nil {
		c.fail(requestID, err)
		return
	}
	c.reply(requestID, protocol.TypeProfile, protocol.ProfileData{Profile: p, WinRate: p.WinRate()})
}

func (c *Connection) handleHistory(requestID string, id auth.Identity, data protocol.HistoryRequestData) {
	records, err := c.sessions.History(c.ctx, id.UserID, data.Limit)
	if err != nil {
		c.fail(requestID, err)
		return
	}
	c.reply(requestID, protocol.TypeHistory, protocol.HistoryData{Records: records})
}
