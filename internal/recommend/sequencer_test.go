package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencer_LastRequestWins(t *testing.T) {
	s := NewSequencer(time.Hour)

	ctx1, t1 := s.Begin(context.Background(), "session-a")
	ctx2, t2 := s.Begin(context.Background(), "session-a")

	assert.Greater(t, t2.Seq(), t1.Seq())
	assert.ErrorIs(t, ctx1.Err(), context.Canceled, "older request should be cancelled")
	assert.NoError(t, ctx2.Err())

	assert.ErrorIs(t, s.Finish(t1), ErrSuperseded)
	assert.NoError(t, s.Finish(t2))

	latest, ok := s.Latest("session-a")
	require.True(t, ok)
	assert.Equal(t, t2.Seq(), latest)
}

func TestSequencer_SessionsAreIndependent(t *testing.T) {
	s := NewSequencer(time.Hour)

	ctxA, ta := s.Begin(context.Background(), "a")
	_, tb := s.Begin(context.Background(), "b")

	assert.NoError(t, ctxA.Err())
	assert.NoError(t, s.Finish(ta))
	assert.NoError(t, s.Finish(tb))
}

func TestSequencer_EmptyKeyIsNotSequenced(t *testing.T) {
	s := NewSequencer(time.Hour)
	parent := context.Background()

	ctx1, t1 := s.Begin(parent, "")
	_, t2 := s.Begin(parent, "")

	assert.Equal(t, parent, ctx1)
	assert.NoError(t, s.Finish(t1))
	assert.NoError(t, s.Finish(t2))
	_, ok := s.Latest("")
	assert.False(t, ok)
}

func TestSequencer_FinishCancelsOwnContext(t *testing.T) {
	s := NewSequencer(time.Hour)

	ctx, ticket := s.Begin(context.Background(), "a")
	require.NoError(t, s.Finish(ticket))
	assert.Error(t, ctx.Err())
}

func TestSequencer_PrunesIdleSessions(t *testing.T) {
	clock := time.Date(2026, 6, 12, 9, 0, 0, 0, time.UTC)
	s := NewSequencer(time.Minute)
	s.now = func() time.Time { return clock }

	_, ticket := s.Begin(context.Background(), "idle")
	require.NoError(t, s.Finish(ticket))

	clock = clock.Add(2 * time.Minute)
	s.Begin(context.Background(), "other")

	_, ok := s.Latest("idle")
	assert.False(t, ok)
}
