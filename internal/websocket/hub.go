package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"ai-shopflow-be/internal/pkg/logger"
	"ai-shopflow-be/pkg/flow"
)

// relayChannel is the Redis pub/sub channel used to reach sessions connected
// to other instances.
const relayChannel = "shopflow:session_events"

// Hub tracks live session connections on this instance. One session maps to
// at most one connection: a new socket for an already-connected session
// replaces the old one. Events arrive from the in-process bus (and the Redis
// relay for other instances) and are routed to the owning connection.
type Hub struct {
	clients map[string]*Client // sessionID -> connection

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	maxConnections int

	// Redis connection for cross-instance event relay. Nil in single-node
	// deployments.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, maxConnections int, log logger.ILogger) *Hub {
	return &Hub{
		clients:        make(map[string]*Client),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		maxConnections: maxConnections,
		rdb:            rdb,
		logger:         log,
	}
}

// Run owns the client map. Only this goroutine mutates it.
func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRelay()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.SessionID]; ok {
				close(old.done)
			}
			h.clients[client.SessionID] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Session connected", map[string]interface{}{
				"session_id": client.SessionID,
				"user_id":    client.UserID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.SessionID]; ok && current == client {
				delete(h.clients, client.SessionID)
				close(client.done)
				h.logger.Info("Hub", "Session disconnected", map[string]interface{}{
					"session_id":    client.SessionID,
					"connected_for": time.Since(client.connectedAt).String(),
					"message_count": client.messageCount,
				})
			}
			h.mu.Unlock()
		}
	}
}

// CanAccept reports whether a new connection fits under the capacity ceiling.
func (h *Hub) CanAccept() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients) < h.maxConnections
}

// ActiveConnections is exposed on the health surface.
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ConsumeBus routes engine events from the in-process bus to the session's
// connection. Events for sessions not connected here are relayed over Redis
// so another instance can deliver them.
func (h *Hub) ConsumeBus(messages <-chan *message.Message) {
	for msg := range messages {
		var event flow.Event
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			h.logger.Error("Hub", "Dropping undecodable bus event", map[string]interface{}{"error": err.Error()})
			msg.Ack()
			continue
		}
		if !h.deliverLocal(event.SessionID, msg.Payload) {
			h.relay(event.SessionID, msg.Payload)
		}
		msg.Ack()
	}
}

func (h *Hub) deliverLocal(sessionID string, data []byte) bool {
	h.mu.RLock()
	client, ok := h.clients[sessionID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	select {
	case <-client.done:
		// Dropped between lookup and send; let the caller relay instead.
		return false
	case client.Send <- data:
	default:
		h.logger.Warn("Hub", "Send buffer full, dropping connection", map[string]interface{}{
			"session_id": sessionID,
		})
		h.unregister <- client
	}
	return true
}

func (h *Hub) relay(sessionID string, data []byte) {
	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"target_session_id": sessionID,
		"event":             json.RawMessage(data),
	})
	if err := h.rdb.Publish(context.Background(), relayChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Redis relay publish failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

func (h *Hub) subscribeToRelay() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, relayChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			TargetSessionID string          `json:"target_session_id"`
			Event           json.RawMessage `json:"event"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Error("Hub", "Dropping undecodable relay payload", map[string]interface{}{"error": err.Error()})
			continue
		}
		// Relayed events for sessions on other instances are dropped here;
		// the owner instance delivers its own copy.
		h.deliverLocal(payload.TargetSessionID, payload.Event)
	}
}
