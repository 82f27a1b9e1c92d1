package contract

import (
	"context"

	"ai-shopflow-be/pkg/store"
)

// SessionRepository is the persistence contract for live sessions. Records
// carry an absolute TTL; reads of an expired record behave as not found.
// Writes are whole-record upserts keyed by session id.
type SessionRepository interface {
	Create(ctx context.Context, sessionID, userID string) (*store.Session, error)
	Get(ctx context.Context, sessionID string) (*store.Session, error)
	Update(ctx context.Context, session *store.Session) error
	Delete(ctx context.Context, sessionID string) error
	IncrementClarificationCount(ctx context.Context, sessionID string) (int, error)
}
