package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type closable struct{ closed bool }

func (c *closable) Close() { c.closed = true }

func TestPutGetDelete(t *testing.T) {
	s := NewStore[*closable](time.Minute, 0)
	defer s.Close()

	v := &closable{}
	id := s.Put(v)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Same(t, v, got)

	assert.True(t, s.Delete(id))
	assert.True(t, v.closed)
	assert.False(t, s.Delete(id))

	_, err = s.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpiryClosesValues(t *testing.T) {
	s := NewStore[*closable](time.Minute, 0)
	defer s.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	stale := &closable{}
	fresh := &closable{}
	staleID := s.Put(stale)
	now = now.Add(50 * time.Second)
	freshID := s.Put(fresh)
	now = now.Add(20 * time.Second)

	_, err := s.Get(staleID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 1, s.Sweep())
	assert.True(t, stale.closed)
	assert.False(t, fresh.closed)

	_, err = s.Get(freshID)
	assert.NoError(t, err)
}

func TestCloseStopsJanitor(t *testing.T) {
	s := NewStore[*closable](time.Minute, time.Millisecond)
	v := &closable{}
	s.Put(v)

	s.Close()
	s.Close()

	assert.True(t, v.closed)
	assert.Equal(t, 0, s.Len())
}
