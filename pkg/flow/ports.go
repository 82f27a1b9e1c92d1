package flow

import (
	"context"

	"ai-shopflow-be/pkg/llm"
	"ai-shopflow-be/pkg/store"
)

// SessionStore is the persistence surface the engine needs for sessions. The
// repository layer satisfies it with its Redis and in-memory backends.
type SessionStore interface {
	Create(ctx context.Context, sessionID, userID string) (*store.Session, error)
	Get(ctx context.Context, sessionID string) (*store.Session, error)
	Update(ctx context.Context, session *store.Session) error
	Delete(ctx context.Context, sessionID string) error
	IncrementClarificationCount(ctx context.Context, sessionID string) (int, error)
}

// CheckpointStore persists per-node snapshots so an interrupted run can resume
// at its next node instead of restarting the turn.
type CheckpointStore interface {
	Save(ctx context.Context, checkpoint *store.Checkpoint) error
	Latest(ctx context.Context, sessionID string) (*store.Checkpoint, error)
	Clear(ctx context.Context, sessionID string) error
}

// DecisionPort is the schema-constrained model surface judgment nodes call.
type DecisionPort interface {
	Decide(ctx context.Context, prompt string, out interface{}, opts ...llm.Option) error
	Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error)
	Stream(ctx context.Context, prompt string, opts ...llm.Option) (<-chan string, error)
}

// MediaPort is the media collaborator as seen by the engine.
type MediaPort interface {
	Transcribe(ctx context.Context, ref store.MediaReference) (*store.TranscriptionResult, error)
	ExtractImageAttributes(ctx context.Context, ref store.MediaReference) (*store.ImageAttributes, error)
}

// CatalogPort is the product-search collaborator as seen by the engine.
type CatalogPort interface {
	Search(ctx context.Context, spec *store.RequirementSpec) (*store.SearchResults, error)
}
