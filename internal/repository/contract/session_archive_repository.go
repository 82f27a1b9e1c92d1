package contract

import (
	"context"

	"ai-shopflow-be/internal/entity"
)

// SessionArchiveRepository persists terminal sessions (completed or failed)
// to durable storage for later inspection. The live Session Store stays the
// source of truth while a session is active.
type SessionArchiveRepository interface {
	Create(ctx context.Context, archive *entity.SessionArchive) error
	FindBySessionID(ctx context.Context, sessionID string) (*entity.SessionArchive, error)
	FindRecentByUserID(ctx context.Context, userID string, limit int) ([]*entity.SessionArchive, error)
}
