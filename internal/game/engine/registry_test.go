package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Players(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	_, ok := r.Player(uuid.New())
	assert.False(t, ok)

	p := newPlayer("alice", "c1", time.Now())
	r.PutPlayer(p)

	got, ok := r.Player(p.ID)
	require.True(t, ok)
	assert.Same(t, p, got)
	assert.Equal(t, 1, r.PlayerCount())
	assert.Len(t, r.Players(), 1)

	r.RemovePlayer(p.ID)
	r.RemovePlayer(p.ID)
	_, ok = r.Player(p.ID)
	assert.False(t, ok)
	assert.Zero(t, r.PlayerCount())
}

func TestRegistry_SessionIndexesStayConsistent(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	s := newSession(123456, time.Now())
	require.NoError(t, r.AddSession(s))

	byID, ok := r.Session(s.ID)
	require.True(t, ok)
	byCode, ok := r.SessionByCode(123456)
	require.True(t, ok)
	assert.Same(t, byID, byCode)

	other := newSession(123456, time.Now())
	assert.ErrorIs(t, r.AddSession(other), ErrCodeTaken)
	assert.ErrorIs(t, r.AddSession(s), ErrCodeTaken)

	r.RemoveSession(s)
	_, ok = r.Session(s.ID)
	assert.False(t, ok)
	_, ok = r.SessionByCode(123456)
	assert.False(t, ok)
	assert.Zero(t, r.SessionCount())
}

func TestRegistry_ReplaceSession(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	old := newSession(222222, time.Now())
	require.NoError(t, r.AddSession(old))

	fresh := newSession(222222, time.Now())
	require.NoError(t, r.ReplaceSession(old, fresh))

	got, ok := r.SessionByCode(222222)
	require.True(t, ok)
	assert.Same(t, fresh, got)
	_, ok = r.Session(old.ID)
	assert.False(t, ok)

	// removing the replaced session must not unregister its successor
	r.RemoveSession(old)
	got, ok = r.SessionByCode(222222)
	require.True(t, ok)
	assert.Same(t, fresh, got)

	// old no longer owns the code
	assert.ErrorIs(t, r.ReplaceSession(old, newSession(222222, time.Now())), ErrCodeTaken)
	assert.Equal(t, 1, r.SessionCount())
}

func TestRegistry_ConcurrentAddNeverSharesCode(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	const codes = 5
	var (
		wg      sync.WaitGroup
		success atomic.Int32
	)
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.AddSession(newSession(100000+i%codes, time.Now())) == nil {
				success.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(codes), success.Load())
	assert.Equal(t, codes, r.SessionCount())

	seen := make(map[int]bool)
	for _, s := range r.Sessions() {
		assert.False(t, seen[s.Code], "code %d shared", s.Code)
		seen[s.Code] = true
	}
}
