package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"ai-shopflow-be/internal/repository/contract"
	"ai-shopflow-be/pkg/store"
)

type CheckpointRepository struct {
	cache *gocache.Cache
	ttl   time.Duration
}

var _ contract.CheckpointRepository = &CheckpointRepository{}

func NewCheckpointRepository(ttl time.Duration) *CheckpointRepository {
	if ttl <= 0 {
		ttl = store.SessionTTL
	}
	return &CheckpointRepository{
		cache: gocache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

func (r *CheckpointRepository) Save(ctx context.Context, checkpoint *store.Checkpoint) error {
	r.cache.Set(checkpoint.SessionID, checkpoint, r.ttl)
	return nil
}

func (r *CheckpointRepository) Latest(ctx context.Context, sessionID string) (*store.Checkpoint, error) {
	value, found := r.cache.Get(sessionID)
	if !found {
		return nil, nil
	}
	return value.(*store.Checkpoint), nil
}

func (r *CheckpointRepository) Clear(ctx context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}
