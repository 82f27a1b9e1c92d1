package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"ai-shopflow-be/pkg/flow"
)

// SessionEventsTopic carries engine events from workflow runs to the
// websocket hub over the in-process bus.
const SessionEventsTopic = "session-events"

// BusEmitter publishes engine events onto the watermill bus. It decouples
// workflow execution from socket delivery: a run never blocks on a slow or
// absent client.
type BusEmitter struct {
	publisher message.Publisher
}

var _ flow.Emitter = &BusEmitter{}

func NewBusEmitter(publisher message.Publisher) *BusEmitter {
	return &BusEmitter{publisher: publisher}
}

func (b *BusEmitter) Emit(ctx context.Context, event flow.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return b.publisher.Publish(SessionEventsTopic, msg)
}
