// Package client plays at a remote table over the server's WebSocket
// protocol. A Client satisfies session.Table, so the terminal UI cannot tell
// it apart from an in-process table.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Grosth/BlackjackCSFinal/internal/ledger"
	"github.com/Grosth/BlackjackCSFinal/internal/protocol"
	"github.com/Grosth/BlackjackCSFinal/internal/session"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrTimeout      = errors.New("request timed out")
)

// DefaultRequestTimeout bounds a request when Options leaves it unset
const DefaultRequestTimeout = 10 * time.Second

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
)

// Options configures a Client
type Options struct {
	URL            string
	Token          string
	RequestTimeout time.Duration
	Logger         *log.Logger
}

// Client represents a WebSocket client seated at one table
type Client struct {
	serverURL string
	token     string
	timeout   time.Duration
	conn      *websocket.Conn
	send      chan *protocol.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	seq       atomic.Uint64

	mu        sync.Mutex
	connected bool
	pending   map[string]chan *protocol.Message
	identity  string
}

var _ session.Table = (*Client)(nil)

// New creates a client. Nothing is dialled until Connect.
func New(opts Options) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		serverURL: opts.URL,
		token:     opts.Token,
		timeout:   timeout,
		send:      make(chan *protocol.Message, 256),
		logger:    logger.WithPrefix("client"),
		ctx:       ctx,
		cancel:    cancel,
		pending:   make(map[string]chan *protocol.Message),
	}
}

// WebSocketURL converts an http(s) or ws(s) server address into the
// table's WebSocket endpoint.
func WebSocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server URL %q: unsupported scheme", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: missing host", raw)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Connect establishes a WebSocket connection to the server
func (c *Client) Connect(ctx context.Context) error {
	target, err := WebSocketURL(c.serverURL)
	if err != nil {
		return err
	}
	c.logger.Info("Connecting to server", "url", target)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()

	c.logger.Info("Connected to server")
	return nil
}

// Close disconnects from the server. The seat itself stays on the server
// until its idle timeout, so a later connection can resume it.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.connected = false
		c.logger.Info("Disconnected from server")
	})
	return nil
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// UserID returns the user ID the server assigned at Join
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// readPump routes replies to the requests waiting on them
func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		c.mu.Unlock()
	}()

	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.logger.Debug("Received message", "type", msg.Type, "request", msg.RequestID)

		c.mu.Lock()
		ch, ok := c.pending[msg.RequestID]
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()
		if !ok {
			c.logger.Debug("Dropping unsolicited message", "type", msg.Type)
			continue
		}
		ch <- &msg
	}
}

// writePump handles outgoing messages to the server
func (c *Client) writePump() {
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

// request sends a message and waits for the reply carrying its request ID.
// Error replies come back as errors matching the server's sentinels.
func (c *Client) request(ctx context.Context, mt protocol.MessageType, data any) (*protocol.Message, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}

	id := strconv.FormatUint(c.seq.Add(1), 10)
	msg, err := protocol.Reply(id, mt, data)
	if err != nil {
		return nil, err
	}

	reply := make(chan *protocol.Message, 1)
	c.mu.Lock()
	c.pending[id] = reply
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	select {
	case c.send <- msg:
	case <-ctx.Done():
		return nil, c.waitErr(ctx, mt)
	case <-c.ctx.Done():
		return nil, ErrNotConnected
	}

	select {
	case resp, ok := <-reply:
		if !ok {
			return nil, ErrNotConnected
		}
		if resp.Type == protocol.TypeError {
			var data protocol.ErrorData
			if err := resp.Decode(&data); err != nil {
				return nil, fmt.Errorf("decode error reply: %w", err)
			}
			return nil, data.Err()
		}
		return resp, nil
	case <-ctx.Done():
		return nil, c.waitErr(ctx, mt)
	case <-c.ctx.Done():
		return nil, ErrNotConnected
	}
}

func (c *Client) waitErr(ctx context.Context, mt protocol.MessageType) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", mt, ErrTimeout)
	}
	return ctx.Err()
}

// Join authenticates with the configured token and takes a seat
func (c *Client) Join(ctx context.Context) (session.Seat, error) {
	msg, err := c.request(ctx, protocol.TypeAuth, protocol.AuthData{Token: c.token})
	if err != nil {
		return session.Seat{}, err
	}
	if msg.Type != protocol.TypeAuthResponse {
		return session.Seat{}, fmt.Errorf("auth: %w: %s", protocol.ErrUnexpectedMessage, msg.Type)
	}

	var data protocol.AuthResponseData
	if err := msg.Decode(&data); err != nil {
		return session.Seat{}, fmt.Errorf("decode auth response: %w", err)
	}
	if !data.Success {
		return session.Seat{}, protocol.ErrorData{Code: data.Error, Message: "authentication failed"}.Err()
	}
	if data.Profile == nil || data.Rules == nil {
		return session.Seat{}, fmt.Errorf("auth: incomplete response")
	}

	c.mu.Lock()
	c.identity = data.UserID
	c.mu.Unlock()
	c.logger.Info("Authenticated", "user", data.UserID, "username", data.Username, "chips", data.Profile.Chips)

	seat := session.Seat{Profile: *data.Profile, Rules: *data.Rules}
	if r := data.Round; r != nil {
		seat.Current = &session.State{RoundID: r.RoundID, Round: r.Round, Profile: r.Profile}
	}
	return seat, nil
}

// Deal starts a round with the given bet
func (c *Client) Deal(ctx context.Context, bet int) (session.State, error) {
	msg, err := c.request(ctx, protocol.TypeDeal, protocol.DealData{Bet: bet})
	if err != nil {
		return session.State{}, err
	}
	return msg.State()
}

// Act sends hit, stand or double for the round in play
func (c *Client) Act(ctx context.Context, action session.Action) (session.State, error) {
	mt := protocol.MessageType(action)
	if _, ok := protocol.ActionFor(mt); !ok {
		return session.State{}, fmt.Errorf("unknown action %q", action)
	}
	msg, err := c.request(ctx, mt, nil)
	if err != nil {
		return session.State{}, err
	}
	return msg.State()
}

// Profile fetches the player's current chips and counters
func (c *Client) Profile(ctx context.Context) (ledger.Profile, error) {
	msg, err := c.request(ctx, protocol.TypeProfile, nil)
	if err != nil {
		return ledger.Profile{}, err
	}
	if msg.Type != protocol.TypeProfile {
		return ledger.Profile{}, fmt.Errorf("profile: %w: %s", protocol.ErrUnexpectedMessage, msg.Type)
	}
	var data protocol.ProfileData
	if err := msg.Decode(&data); err != nil {
		return ledger.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return data.Profile, nil
}

// History fetches the player's most recent settled rounds
func (c *Client) History(ctx context.Context, limit int) ([]ledger.Record, error) {
	msg, err := c.request(ctx, protocol.TypeHistory, protocol.HistoryRequestData{Limit: limit})
	if err != nil {
		return nil, err
	}
	if msg.Type != protocol.TypeHistory {
		return nil, fmt.Errorf("history: %w: %s", protocol.ErrUnexpectedMessage, msg.Type)
	}
	var data protocol.HistoryData
	if err := msg.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return data.Records, nil
}

