package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"eventlive/internal/app/user"
	"eventlive/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 65536

	// WsCloseCodeSessionReplaced is a custom WebSocket Close Code (4000-4999 range)
	// used to signal the client that the session was replaced by a new connection.
	WsCloseCodeSessionReplaced = 4001
)

// Client is the gorilla/websocket-backed Transport implementation. It manages
// the connection lifecycle, the message pumps (ReadPump and WritePump), and
// hands every inbound frame to the Hub.
type Client struct {
	// hub owning this connection's lifecycle and event dispatch.
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// usr is the authenticated identity bound at connect time.
	usr user.User

	// id uniquely identifies this transport; a reconnect gets a fresh id.
	id string

	// a buffered channel used to queue messages waiting to be sent to the client.
	send chan []byte

	// closed flips once the connection is no longer usable.
	closed atomic.Bool

	// sendMu serializes queueing on the send channel against closing it.
	// Broadcasts arrive from arbitrary goroutines, so a close without this
	// lock could race a concurrent queue attempt.
	sendMu sync.Mutex

	// closeSendOnce guards the send channel against double close.
	closeSendOnce sync.Once

	// structured logger with client context.
	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection.
func NewClient(hub *Hub, wsConn *websocket.Conn, usr user.User) *Client {
	id := uuid.NewString()

	clientLogger := logx.Logger().With().
		Str("user_id", usr.ID).
		Str("transport", id).
		Logger()

	return &Client{
		hub:    hub,
		conn:   wsConn,
		usr:    usr,
		id:     id,
		send:   make(chan []byte, 256),
		logger: clientLogger,
	}
}

// ID returns the unique transport id.
func (c *Client) ID() string {
	return c.id
}

// User returns the authenticated identity bound to the connection.
func (c *Client) User() user.User {
	return c.usr
}

// Alive reports whether the connection is still usable.
func (c *Client) Alive() bool {
	return !c.closed.Load()
}

// Close tears the connection down without a reason frame.
func (c *Client) Close() error {
	c.closed.Store(true)
	return c.conn.Close()
}

// Send queues a named event for delivery. A full send queue is an error:
// the broadcast path never blocks on a slow client.
func (c *Client) Send(event string, payload any) error {
	frame, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("Error marshaling event for client")
		return err
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("connection closed")
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Str("event", event).Msg("Client send channel full, dropping event")
		return fmt.Errorf("client send queue full")
	}
}

// Kick gracefully closes the connection by sending a custom WebSocket Close
// Frame (Code 4001) indicating that the session was replaced, then shuts the
// write pump down.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionReplaced).
		Str("reason", reason).
		Msg("Sending WS Kick message and closing connection.")

	closeMessage := websocket.FormatCloseMessage(WsCloseCodeSessionReplaced, reason)

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to send WS 4001 Close Message.")
	}

	c.closeSend()
}

// ReadPump handles reading messages from the WebSocket connection.
// It handles heartbeats (Pong), frame dispatch, and performs cleanup upon connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.hub.HandleMessage(c, messageBytes)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.closeSend()
	c.hub.Disconnect(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// WritePump handles writing messages from the Client.send channel to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage handles messages pulled from the send channel, writing them to the WebSocket.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// closeSend marks the connection closed and closes the send channel. Taking
// sendMu guarantees no Send is queueing on the channel at the moment it closes.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.closed.Store(true)
	c.closeSendOnce.Do(func() {
		close(c.send)
	})
}
