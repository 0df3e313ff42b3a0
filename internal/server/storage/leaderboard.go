package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	playerStatsKey    = "trivia:player:stats:"
	leaderboardKey    = "trivia:leaderboard:score"
	dailyLeaderboard  = "trivia:leaderboard:daily:"
	weeklyLeaderboard = "trivia:leaderboard:weekly:"
)

// Leaderboard kinds accepted by GetLeaderboard
const (
	BoardTotal  = "total"
	BoardDaily  = "daily"
	BoardWeekly = "weekly"
)

// Rating rules. Every point earned in a game counts; winning adds a bonus and
// win streaks add more on top.
const (
	WinBonus = 5

	StreakBonus3  = 2
	StreakBonus5  = 5
	StreakBonus10 = 10
)

// PlayerStats accumulated results of one nickname
type PlayerStats struct {
	PlayerName string `json:"player_name"`

	TotalGames  int `json:"total_games"`
	Wins        int `json:"wins"`
	TotalPoints int `json:"total_points"` // sum of in-game scores
	BestScore   int `json:"best_score"`

	Rating int `json:"rating"`

	CurrentStreak int `json:"current_streak"`
	MaxWinStreak  int `json:"max_win_streak"`

	LastPlayedAt int64 `json:"last_played_at"`
	CreatedAt    int64 `json:"created_at"`
}

// LeaderboardEntry one row of a leaderboard
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerName string  `json:"player_name"`
	Rating     int     `json:"rating"`
	Wins       int     `json:"wins"`
	Games      int     `json:"games"`
	WinRate    float64 `json:"win_rate"`
}

// LeaderboardManager keeps per-nickname stats and ranked sorted sets.
// Players are ephemeral, so results are keyed by case-folded nickname.
type LeaderboardManager struct {
	redis *redis.Client
	now   func() time.Time
}

func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{redis: client, now: time.Now}
}

func memberKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GetPlayerStats returns nil when the nickname never finished a game.
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, playerName string) (*PlayerStats, error) {
	data, err := lm.redis.Get(ctx, playerStatsKey+memberKey(playerName)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (lm *LeaderboardManager) savePlayerStats(ctx context.Context, stats *PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lm.redis.Set(ctx, playerStatsKey+memberKey(stats.PlayerName), data, 0).Err()
}

func updateStreak(stats *PlayerStats, isWinner bool) {
	if isWinner {
		stats.Wins++
		stats.CurrentStreak++
	} else {
		stats.CurrentStreak = 0
	}
	if stats.CurrentStreak > stats.MaxWinStreak {
		stats.MaxWinStreak = stats.CurrentStreak
	}
}

func calculateStreakBonus(streak int) int {
	switch {
	case streak >= 10:
		return StreakBonus10
	case streak >= 5:
		return StreakBonus5
	case streak >= 3:
		return StreakBonus3
	default:
		return 0
	}
}

// RecordGameResult folds one finished game into the player's stats and boards.
func (lm *LeaderboardManager) RecordGameResult(ctx context.Context, playerName string, score int, isWinner bool) error {
	stats, err := lm.GetPlayerStats(ctx, playerName)
	if err != nil {
		return err
	}
	now := lm.now()
	if stats == nil {
		stats = &PlayerStats{CreatedAt: now.Unix()}
	}

	stats.PlayerName = strings.TrimSpace(playerName)
	stats.TotalGames++
	stats.TotalPoints += score
	stats.BestScore = max(stats.BestScore, score)
	stats.LastPlayedAt = now.Unix()
	updateStreak(stats, isWinner)

	gain := score
	if isWinner {
		gain += WinBonus + calculateStreakBonus(stats.CurrentStreak)
	}
	stats.Rating += gain

	if err := lm.savePlayerStats(ctx, stats); err != nil {
		return err
	}
	return lm.updateBoards(ctx, stats, gain)
}

// updateBoards sets the all-time rating and adds this game's gain to the
// periodic boards.
func (lm *LeaderboardManager) updateBoards(ctx context.Context, stats *PlayerStats, gain int) error {
	member := memberKey(stats.PlayerName)
	daily, weekly := lm.boardKey(BoardDaily), lm.boardKey(BoardWeekly)

	_, err := lm.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(stats.Rating), Member: member})
		pipe.ZIncrBy(ctx, daily, float64(gain), member)
		pipe.Expire(ctx, daily, 48*time.Hour)
		pipe.ZIncrBy(ctx, weekly, float64(gain), member)
		pipe.Expire(ctx, weekly, 8*24*time.Hour)
		return nil
	})
	return err
}

func (lm *LeaderboardManager) boardKey(kind string) string {
	now := lm.now()
	switch kind {
	case BoardDaily:
		return dailyLeaderboard + now.Format("2006-01-02")
	case BoardWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)
	default:
		return leaderboardKey
	}
}

// GetLeaderboard returns the top limit players of the given board, highest first.
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, kind string, limit int) ([]*LeaderboardEntry, error) {
	if limit <= 0 {
		return []*LeaderboardEntry{}, nil
	}
	results, err := lm.redis.ZRevRangeWithScores(ctx, lm.boardKey(kind), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*LeaderboardEntry, 0, len(results))
	for i, result := range results {
		member, ok := result.Member.(string)
		if !ok {
			continue
		}
		stats, err := lm.GetPlayerStats(ctx, member)
		if err != nil || stats == nil {
			continue
		}

		winRate := 0.0
		if stats.TotalGames > 0 {
			winRate = float64(stats.Wins) / float64(stats.TotalGames) * 100
		}
		entries = append(entries, &LeaderboardEntry{
			Rank:       i + 1,
			PlayerName: stats.PlayerName,
			Rating:     int(result.Score),
			Wins:       stats.Wins,
			Games:      stats.TotalGames,
			WinRate:    winRate,
		})
	}
	return entries, nil
}

// GetPlayerRank 1-based all-time rank, -1 when unranked.
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, playerName string) (int64, error) {
	rank, err := lm.redis.ZRevRank(ctx, leaderboardKey, memberKey(playerName)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil
}
