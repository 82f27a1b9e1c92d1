package websocket

import (
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"ai-shopflow-be/pkg/flow"
)

// CapacityExceededCode is sent when the connection ceiling is reached; the
// client should back off and retry later.
const CapacityExceededCode = websocket.ClosePolicyViolation // 1008

// ServeWs binds a freshly upgraded connection to its session and runs the
// pumps. sessionID may be empty for a brand-new conversation; the server
// assigns one and announces it in the connected event.
func ServeWs(hub *Hub, conn *websocket.Conn, sessionID, userID string, turns TurnHandler, heartbeat time.Duration) {
	if !hub.CanAccept() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(CapacityExceededCode, "connection capacity exceeded"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	client := &Client{
		Hub:         hub,
		Conn:        conn,
		SessionID:   sessionID,
		UserID:      userID,
		Send:        make(chan []byte, sendBufferSize),
		done:        make(chan struct{}),
		turns:       turns,
		heartbeat:   heartbeat,
		connectedAt: time.Now(),
	}
	hub.register <- client

	// Acknowledge before any workflow traffic so the client learns its
	// session id first.
	if data, err := json.Marshal(flow.ConnectedEvent(sessionID)); err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.TextMessage, data)
	}

	go client.writePump()
	client.readPump() // runs on the handler goroutine
}
