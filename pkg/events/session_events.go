package events

import "time"

// Session lifecycle event types published to the NATS bus. Downstream
// consumers (analytics, archival audits) key off these codes.
const (
	SessionCompletedType  = "session.completed"
	SessionFailedType     = "session.failed"
	SessionClarifyingType = "session.clarifying"
)

// NewSessionCompleted marks a workflow run that delivered results.
func NewSessionCompleted(sessionID, userID string, resultCount int) Event {
	return BaseEvent{
		Type: SessionCompletedType,
		Data: map[string]interface{}{
			"session_id":   sessionID,
			"user_id":      userID,
			"result_count": resultCount,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewSessionFailed marks a workflow run that ended in the failed stage.
func NewSessionFailed(sessionID, userID, reason string) Event {
	return BaseEvent{
		Type: SessionFailedType,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
			"reason":     reason,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewSessionClarifying marks a run that paused on a follow-up question.
func NewSessionClarifying(sessionID, userID string, clarificationCount int) Event {
	return BaseEvent{
		Type: SessionClarifyingType,
		Data: map[string]interface{}{
			"session_id":          sessionID,
			"user_id":             userID,
			"clarification_count": clarificationCount,
		},
		OccurredAt: time.Now().UTC(),
	}
}
