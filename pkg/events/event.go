package events

import "time"

// Event is one fact about a session's lifecycle, published to the bus for
// downstream consumers.
type Event interface {
	// EventType returns the event code, e.g. "session.completed".
	EventType() string

	// Payload returns the event's data.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the concrete Event every constructor in this package returns.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
