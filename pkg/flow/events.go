package flow

import (
	"context"
	"time"

	"ai-shopflow-be/pkg/store"
)

// EventType enumerates the server-to-client event kinds emitted over a
// session's socket.
type EventType string

const (
	EventConnected     EventType = "connected"
	EventProgress      EventType = "progress"
	EventThinking      EventType = "thinking"
	EventToken         EventType = "token"
	EventClarification EventType = "clarification"
	EventResults       EventType = "results"
	EventError         EventType = "error"
	EventDone          EventType = "done"
	EventPing          EventType = "ping"
)

// Error codes carried on error events, mirroring the failure taxonomy the
// engine and its collaborators can surface.
const (
	ErrCodeStoreUnavailable        = "store_unavailable"
	ErrCodeCollaboratorUnavailable = "collaborator_unavailable"
	ErrCodeDecisionUnavailable     = "decision_unavailable"
	ErrCodeValidation              = "validation_error"
	ErrCodeSessionNotFound         = "session_not_found"
	ErrCodeQueueFull               = "queue_full"
	ErrCodeInternal                = "internal_error"
)

// Error event severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Event is one server-to-client message. Fields beyond Type and SessionID are
// populated per event kind.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Node      string    `json:"node,omitempty"`
	Message   string    `json:"message,omitempty"`
	Token     string    `json:"token,omitempty"`

	Question    string   `json:"question,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`

	Products        []store.ProductResult  `json:"products,omitempty"`
	TotalCount      int                    `json:"total_count,omitempty"`
	RequirementSpec *store.RequirementSpec `json:"requirement_spec,omitempty"`

	Code        string `json:"code,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Recoverable bool   `json:"recoverable,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Emitter delivers events toward the session's client. Implementations must
// tolerate sessions with no live socket (events for a gone client are dropped,
// not errors the engine should act on).
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

func newEvent(eventType EventType, sessionID string) Event {
	return Event{
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
	}
}

// ProgressEvent announces that a named workflow step is starting.
func ProgressEvent(sessionID, node, message string) Event {
	event := newEvent(EventProgress, sessionID)
	event.Node = node
	event.Message = message
	return event
}

// ThinkingEvent signals an in-flight model call.
func ThinkingEvent(sessionID, node, message string) Event {
	event := newEvent(EventThinking, sessionID)
	event.Node = node
	event.Message = message
	return event
}

// TokenEvent carries one streamed model token.
func TokenEvent(sessionID, token string) Event {
	event := newEvent(EventToken, sessionID)
	event.Token = token
	return event
}

// ClarificationEvent carries the follow-up question the engine pauses on.
func ClarificationEvent(sessionID, question string, suggestions []string) Event {
	event := newEvent(EventClarification, sessionID)
	event.Question = question
	event.Suggestions = suggestions
	return event
}

// ResultsEvent carries the ranked products, the requirement they were
// searched with, and the composed summary.
func ResultsEvent(sessionID string, products []store.ProductResult, totalCount int, spec *store.RequirementSpec, summary string) Event {
	event := newEvent(EventResults, sessionID)
	event.Products = products
	event.TotalCount = totalCount
	event.RequirementSpec = spec
	event.Message = summary
	return event
}

// ErrorEvent reports a failure. Code names the failure class, severity is
// SeverityError or SeverityWarning, and recoverable means the user can retry
// with a new message on the same connection.
func ErrorEvent(sessionID, code, severity, message string, recoverable bool) Event {
	event := newEvent(EventError, sessionID)
	event.Code = code
	event.Severity = severity
	event.Message = message
	event.Recoverable = recoverable
	return event
}

// DoneEvent marks the end of a completed run.
func DoneEvent(sessionID string) Event {
	return newEvent(EventDone, sessionID)
}

// ConnectedEvent acknowledges a freshly established socket.
func ConnectedEvent(sessionID string) Event {
	return newEvent(EventConnected, sessionID)
}

// PingEvent is the server-side heartbeat probe.
func PingEvent(sessionID string) Event {
	return newEvent(EventPing, sessionID)
}
