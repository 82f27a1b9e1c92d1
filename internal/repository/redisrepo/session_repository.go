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

const sessionKeyPrefix = "shopflow:session:"

// SessionRepository keeps sessions in Redis as whole-record JSON values with
// the session TTL applied on every write. Expired keys vanish on their own,
// which is exactly the read-as-not-found behavior the contract demands.
type SessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ contract.SessionRepository = &SessionRepository{}

func NewSessionRepository(rdb *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = store.SessionTTL
	}
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (r *SessionRepository) Create(ctx context.Context, sessionID, userID string) (*store.Session, error) {
	session := store.NewSession(sessionID, userID)
	session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	if err := r.write(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err)
	}

	var session store.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("corrupt session record %s: %w", sessionID, err)
	}
	// Redis enforces the TTL already; the belt-and-suspenders check covers
	// records written by an older process with a longer expiry.
	if session.Expired() {
		return nil, store.ErrSessionNotFound
	}
	return &session, nil
}

func (r *SessionRepository) Update(ctx context.Context, session *store.Session) error {
	session.UpdatedAt = time.Now().UTC()
	return r.write(ctx, session)
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *SessionRepository) IncrementClarificationCount(ctx context.Context, sessionID string) (int, error) {
	// Read-modify-write is safe under the single-writer invariant: only one
	// workflow run mutates a given session at a time.
	session, err := r.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	session.ClarificationCount++
	if err := r.Update(ctx, session); err != nil {
		return 0, err
	}
	return session.ClarificationCount, nil
}

func (r *SessionRepository) write(ctx context.Context, session *store.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := r.rdb.Set(ctx, sessionKey(session.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrStoreUnavailable, err)
	}
	return nil
}
