//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/server/storage"
)

// MockLeaderboard leaderboard mock
type MockLeaderboard struct {
	mock.Mock
}

func (m *MockLeaderboard) RecordGameResult(ctx context.Context, playerName string, score int, isWinner bool) error {
	args := m.Called(ctx, playerName, score, isWinner)
	return args.Error(0)
}

func (m *MockLeaderboard) GetPlayerStats(ctx context.Context, playerName string) (*storage.PlayerStats, error) {
	args := m.Called(ctx, playerName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.PlayerStats), args.Error(1)
}

func (m *MockLeaderboard) GetPlayerRank(ctx context.Context, playerName string) (int64, error) {
	args := m.Called(ctx, playerName)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLeaderboard) GetLeaderboard(ctx context.Context, kind string, limit int) ([]*storage.LeaderboardEntry, error) {
	args := m.Called(ctx, kind, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*storage.LeaderboardEntry), args.Error(1)
}

// MockSessionStore session snapshot store mock
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) SaveSession(ctx context.Context, info protocol.SessionInfo) error {
	args := m.Called(ctx, info)
	return args.Error(0)
}

func (m *MockSessionStore) DeleteSession(ctx context.Context, code int) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}
