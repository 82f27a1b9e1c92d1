package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"

	"ai-shopflow-be/pkg/flow"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// TurnHandler receives validated client turns. The orchestrator service
// implements it; Submit must not block on workflow execution.
type TurnHandler interface {
	Submit(input ClientTurn)
	Cancel(ctx context.Context, sessionID string)
}

// ClientTurn is a parsed message or answer frame plus its session binding.
type ClientTurn struct {
	SessionID string
	UserID    string
	Frame     *ClientMessage
}

// Client is one session's live connection.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	SessionID string
	UserID    string

	// Buffered channel of outbound event frames. Never closed; the hub
	// signals shutdown through done so concurrent senders cannot panic.
	Send chan []byte

	// Closed by the hub (and only the hub) when this connection is dropped
	// or replaced by a reconnect.
	done chan struct{}

	turns TurnHandler

	// A connection missing pongs for two heartbeat intervals is stale.
	heartbeat time.Duration

	connectedAt  time.Time
	messageCount int
}

// readPump consumes client frames until the connection dies or the client
// asks to disconnect. Runs on the handler goroutine.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	staleAfter := 2 * c.heartbeat
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(staleAfter))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(staleAfter))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.logger.Warn("Client", "Read error", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			return
		}
		// Any frame proves liveness.
		c.Conn.SetReadDeadline(time.Now().Add(staleAfter))

		msg, err := ParseClientMessage(raw)
		if err != nil {
			c.sendEvent(flow.ErrorEvent(c.SessionID, flow.ErrCodeValidation, flow.SeverityWarning, err.Error(), true))
			continue
		}

		switch msg.Type {
		case ClientKindPong:
			// Deadline already refreshed above.
		case ClientKindDisconnect:
			c.turns.Cancel(context.Background(), c.SessionID)
			c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect"),
				time.Now().Add(writeWait))
			return
		case ClientKindMessage, ClientKindAnswer:
			c.messageCount++
			c.turns.Submit(ClientTurn{SessionID: c.SessionID, UserID: c.UserID, Frame: msg})
		}
	}
}

// writePump drains Send onto the socket and emits heartbeat pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.heartbeat)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			// The hub dropped this connection.
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, _ := json.Marshal(flow.PingEvent(c.SessionID))
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}

// sendEvent serializes an event straight onto this connection's queue.
func (c *Client) sendEvent(event flow.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.Send <- data:
	default:
	}
}
