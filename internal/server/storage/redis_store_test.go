package storage

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/trivia-rush/internal/protocol"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func sampleSession(code int) protocol.SessionInfo {
	return protocol.SessionInfo{
		ID:             "5f0c6e7a-8d1b-4c55-9a63-0d2f5c1b9e11",
		InvitationCode: code,
		Players: []protocol.PlayerInfo{
			{ID: "p1", Name: "alice", Score: 3, Ready: true},
			{ID: "p2", Name: "bob", Score: 1, Ready: true},
		},
		Round:           &protocol.RoundSummary{RoundCounter: 2, CategoryName: "Science", TimeLeft: 4, Ongoing: true},
		ArePlayersReady: true,
	}
}

func TestRedisStore_SaveLoadDeleteSession(t *testing.T) {
	t.Parallel()
	client, mr := newTestClient(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	info := sampleSession(123456)
	require.NoError(t, store.SaveSession(ctx, info))
	assert.Equal(t, DefaultSessionTTL, mr.TTL("trivia:session:123456"))

	loaded, err := store.LoadSession(ctx, 123456)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, info, *loaded)

	require.NoError(t, store.DeleteSession(ctx, 123456))
	loaded, err = store.LoadSession(ctx, 123456)
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_LoadCorrupted(t *testing.T) {
	t.Parallel()
	client, mr := newTestClient(t)
	store := NewRedisStore(client)

	require.NoError(t, mr.Set("trivia:session:111111", "{not json"))
	_, err := store.LoadSession(context.Background(), 111111)
	assert.Error(t, err)
}

func TestRedisStore_SessionCodes(t *testing.T) {
	t.Parallel()
	client, mr := newTestClient(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	for _, code := range []int{100001, 100002, 100003} {
		require.NoError(t, store.SaveSession(ctx, sampleSession(code)))
	}
	require.NoError(t, mr.Set("trivia:session:garbage", "x"))
	require.NoError(t, mr.Set("unrelated", "x"))

	codes, err := store.SessionCodes(ctx)
	require.NoError(t, err)
	sort.Ints(codes)
	assert.Equal(t, []int{100001, 100002, 100003}, codes)
}

func TestRedisStore_Expiration(t *testing.T) {
	t.Parallel()
	client, mr := newTestClient(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, sampleSession(222222)))
	require.NoError(t, store.SetSessionExpiration(ctx, 222222, time.Minute))

	mr.FastForward(2 * time.Minute)
	loaded, err := store.LoadSession(ctx, 222222)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
