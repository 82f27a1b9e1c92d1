package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"ai-shopflow-be/internal/repository/contract"
	"ai-shopflow-be/pkg/store"
)

// SessionRepository is the in-process backend used for local development and
// tests. Sessions live in a go-cache instance with the same TTL the Redis
// backend applies, so expiry behaves identically across backends.
type SessionRepository struct {
	mu    sync.Mutex
	cache *gocache.Cache
	ttl   time.Duration
}

var _ contract.SessionRepository = &SessionRepository{}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = store.SessionTTL
	}
	return &SessionRepository{
		cache: gocache.New(ttl, 10*time.Minute),
		ttl:   ttl,
	}
}

func (r *SessionRepository) Create(ctx context.Context, sessionID, userID string) (*store.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := store.NewSession(sessionID, userID)
	session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	r.cache.Set(sessionID, session, r.ttl)
	return session, nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(sessionID)
}

func (r *SessionRepository) Update(ctx context.Context, session *store.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session.UpdatedAt = time.Now().UTC()
	r.cache.Set(session.ID, session, time.Until(session.ExpiresAt))
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Delete(sessionID)
	return nil
}

func (r *SessionRepository) IncrementClarificationCount(ctx context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.get(sessionID)
	if err != nil {
		return 0, err
	}
	session.ClarificationCount++
	session.UpdatedAt = time.Now().UTC()
	r.cache.Set(session.ID, session, time.Until(session.ExpiresAt))
	return session.ClarificationCount, nil
}

func (r *SessionRepository) get(sessionID string) (*store.Session, error) {
	value, found := r.cache.Get(sessionID)
	if !found {
		return nil, store.ErrSessionNotFound
	}
	session := value.(*store.Session)
	if session.Expired() {
		r.cache.Delete(sessionID)
		return nil, store.ErrSessionNotFound
	}
	return session, nil
}
