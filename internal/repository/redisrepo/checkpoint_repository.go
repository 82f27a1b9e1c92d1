package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-shopflow-be/internal/repository/contract"
	"ai-shopflow-be/pkg/store"
)

const checkpointKeyPrefix = "shopflow:checkpoint:"

// CheckpointRepository stores only the latest checkpoint per session. Older
// checkpoints are never read back, so each save overwrites the previous one.
type CheckpointRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ contract.CheckpointRepository = &CheckpointRepository{}

func NewCheckpointRepository(rdb *redis.Client, ttl time.Duration) *CheckpointRepository {
	if ttl <= 0 {
		ttl = store.SessionTTL
	}
	return &CheckpointRepository{rdb: rdb, ttl: ttl}
}

func checkpointKey(sessionID string) string {
	return checkpointKeyPrefix + sessionID
}

func (r *CheckpointRepository) Save(ctx context.Context, checkpoint *store.Checkpoint) error {
	raw, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := r.rdb.Set(ctx, checkpointKey(checkpoint.SessionID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *CheckpointRepository) Latest(ctx context.Context, sessionID string) (*store.Checkpoint, error) {
	raw, err := r.rdb.Get(ctx, checkpointKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err)
	}

	var checkpoint store.Checkpoint
	if err := json.Unmarshal(raw, &checkpoint); err != nil {
		return nil, fmt.Errorf("corrupt checkpoint record %s: %w", sessionID, err)
	}
	return &checkpoint, nil
}

func (r *CheckpointRepository) Clear(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, checkpointKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err)
	}
	return nil
}
