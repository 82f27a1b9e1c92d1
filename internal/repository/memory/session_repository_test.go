package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-shopflow-be/pkg/store"
)

func TestSessionRepositoryCreateAndGet(t *testing.T) {
	repo := NewSessionRepository(store.SessionTTL)
	ctx := context.Background()

	created, err := repo.Create(ctx, "sess-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, store.StageInitial, created.Stage)

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, 0, got.ClarificationCount)
}

func TestSessionRepositoryGetMissing(t *testing.T) {
	repo := NewSessionRepository(store.SessionTTL)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestSessionRepositoryExpiredSessionIsNotFound(t *testing.T) {
	repo := NewSessionRepository(store.SessionTTL)
	ctx := context.Background()

	session, err := repo.Create(ctx, "sess-ttl", "user-1")
	require.NoError(t, err)

	session.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, repo.Update(ctx, session))

	_, err = repo.Get(ctx, "sess-ttl")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestSessionRepositoryHonorsConfiguredTTL(t *testing.T) {
	repo := NewSessionRepository(20 * time.Millisecond)
	ctx := context.Background()

	session, err := repo.Create(ctx, "sess-short", "user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, session.CreatedAt.Add(20*time.Millisecond), session.ExpiresAt, time.Millisecond)

	_, err = repo.Get(ctx, "sess-short")
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	_, err = repo.Get(ctx, "sess-short")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestSessionRepositoryIncrementClarificationCount(t *testing.T) {
	repo := NewSessionRepository(store.SessionTTL)
	ctx := context.Background()

	_, err := repo.Create(ctx, "sess-2", "user-1")
	require.NoError(t, err)

	count, err := repo.IncrementClarificationCount(ctx, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = repo.IncrementClarificationCount(ctx, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := repo.Get(ctx, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, 2, got.ClarificationCount)
}

func TestSessionRepositoryDelete(t *testing.T) {
	repo := NewSessionRepository(store.SessionTTL)
	ctx := context.Background()

	_, err := repo.Create(ctx, "sess-3", "user-1")
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "sess-3"))

	_, err = repo.Get(ctx, "sess-3")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestCheckpointRepositoryRoundTrip(t *testing.T) {
	repo := NewCheckpointRepository(store.SessionTTL)
	ctx := context.Background()

	latest, err := repo.Latest(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	first := &store.Checkpoint{
		SessionID:    "sess-1",
		CheckpointID: "cp-1",
		Next:         "search_marketplaces",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Save(ctx, first))

	second := &store.Checkpoint{
		SessionID:    "sess-1",
		CheckpointID: "cp-2",
		Next:         "",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.Save(ctx, second))

	latest, err = repo.Latest(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "cp-2", latest.CheckpointID)

	require.NoError(t, repo.Clear(ctx, "sess-1"))
	latest, err = repo.Latest(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, latest)
}
