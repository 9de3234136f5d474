package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsLifecycle(t *testing.T) {
	s := NewSessions(func() *Form { return newTestForm(nil, 0) }, time.Minute)

	id, form := s.Create()
	require.NotEmpty(t, id)
	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Same(t, form, got)
	assert.Equal(t, 1, s.Len())

	assert.True(t, s.Remove(id))
	assert.False(t, s.Remove(id))
	assert.ErrorIs(t, form.SetField(FieldPickup, "x"), ErrClosed)
}

func TestSessionsEvictIdle(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	s := NewSessions(func() *Form { return newTestForm(nil, 0) }, 10*time.Minute)
	s.now = func() time.Time { return now }

	staleID, stale := s.Create()
	now = now.Add(8 * time.Minute)
	freshID, _ := s.Create()
	now = now.Add(5 * time.Minute)

	assert.Equal(t, 1, s.Evict())
	_, ok := s.Get(staleID)
	assert.False(t, ok)
	_, ok = s.Get(freshID)
	assert.True(t, ok)
	assert.ErrorIs(t, stale.SetField(FieldPickup, "x"), ErrClosed)
}

func TestSessionsRunClosesOnCancel(t *testing.T) {
	s := NewSessions(func() *Form { return newTestForm(nil, 0) }, time.Minute)
	_, form := s.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()
	<-done

	assert.Zero(t, s.Len())
	assert.ErrorIs(t, form.SetField(FieldPickup, "x"), ErrClosed)
}
