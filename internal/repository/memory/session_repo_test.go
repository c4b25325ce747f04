package memory_test

import (
	"context"
	"testing"
	"time"

	"cirqle-backend/internal/domain"
	"cirqle-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	now := time.Now()

	s := domain.NewSession("s1", now)
	require.NoError(t, repo.Create(ctx, s))
	assert.ErrorIs(t, repo.Create(ctx, domain.NewSession("s1", now)), memory.ErrSessionExists)

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, repo.Count(ctx))

	deleted, err := repo.Delete(ctx, "s1")
	require.NoError(t, err)
	assert.Same(t, s, deleted)

	_, err = repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, memory.ErrSessionNotFound)
	_, err = repo.Delete(ctx, "s1")
	assert.ErrorIs(t, err, memory.ErrSessionNotFound)
}

func TestSessionRepositoryExpired(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	now := time.Now()

	stale := domain.NewSession("stale", now.Add(-3*time.Hour))
	fresh := domain.NewSession("fresh", now)
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, fresh))

	expired, err := repo.Expired(ctx, now.Add(-2*time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "stale", expired[0].ID)

	_, err = repo.Get(ctx, "stale")
	assert.ErrorIs(t, err, memory.ErrSessionNotFound)
	_, err = repo.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestSessionRepositoryDrain(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, domain.NewSession("a", now)))
	require.NoError(t, repo.Create(ctx, domain.NewSession("b", now)))

	drained := repo.Drain(ctx)
	assert.Len(t, drained, 2)
	assert.Equal(t, 0, repo.Count(ctx))
	assert.Empty(t, repo.Drain(ctx))
}
