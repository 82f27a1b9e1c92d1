package contract

import (
	"context"

	"ai-shopflow-be/pkg/store"
)

// CheckpointRepository stores per-node workflow snapshots. Only the latest
// checkpoint per session matters for resumption; retention is bounded by the
// session TTL and checkpoints are cleared when a run reaches a terminal node.
type CheckpointRepository interface {
	Save(ctx context.Context, cp *store.Checkpoint) error
	Latest(ctx context.Context, sessionID string) (*store.Checkpoint, error)
	Clear(ctx context.Context, sessionID string) error
}
