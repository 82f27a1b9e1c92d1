package websocket

import (
	"encoding/json"
	"fmt"

	"ai-shopflow-be/internal/pkg/serverutils"
	"ai-shopflow-be/pkg/store"
)

// Client message kinds. Everything else on the wire is rejected before it
// reaches the workflow.
const (
	ClientKindMessage    = "message"
	ClientKindAnswer     = "answer"
	ClientKindPong       = "pong"
	ClientKindDisconnect = "disconnect"
)

// MediaPayload mirrors store.MediaReference on the wire with validation tags.
type MediaPayload struct {
	MediaType   string `json:"media_type" validate:"required,oneof=audio image"`
	Key         string `json:"key" validate:"required,max=512"`
	ContentType string `json:"content_type,omitempty" validate:"max=128"`
	SizeBytes   int64  `json:"size_bytes,omitempty" validate:"gte=0"`
}

// ClientMessage is one inbound frame from the browser.
type ClientMessage struct {
	Type    string         `json:"type" validate:"required,oneof=message answer pong disconnect"`
	Message string         `json:"message,omitempty" validate:"max=4000"`
	Media   []MediaPayload `json:"media,omitempty" validate:"max=5,dive"`
}

// ParseClientMessage decodes and validates one frame. Malformed frames are a
// validation error, rejected immediately with no retry.
func ParseClientMessage(raw []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	if err := serverutils.ValidateRequest(&msg); err != nil {
		return nil, err
	}
	if (msg.Type == ClientKindMessage || msg.Type == ClientKindAnswer) && msg.Message == "" && len(msg.Media) == 0 {
		return nil, fmt.Errorf("validation failed: %s frame carries no message and no media", msg.Type)
	}
	return &msg, nil
}

// ToTurnInput converts a message or answer frame into an engine turn.
func (m *ClientMessage) ToTurnInput(sessionID, userID string) store.TurnInput {
	media := make([]store.MediaReference, 0, len(m.Media))
	for _, payload := range m.Media {
		media = append(media, store.MediaReference{
			MediaType:   store.MediaType(payload.MediaType),
			Key:         payload.Key,
			ContentType: payload.ContentType,
			SizeBytes:   payload.SizeBytes,
		})
	}
	return store.TurnInput{
		SessionID: sessionID,
		UserID:    userID,
		Message:   m.Message,
		Media:     media,
		IsAnswer:  m.Type == ClientKindAnswer,
	}
}
