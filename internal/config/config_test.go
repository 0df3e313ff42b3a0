package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 8080
  wire_format: protobuf
  allowed_origins:
    - "http://localhost:3000"
    - "https://example.com"

redis:
  enabled: true
  addr: "redis:6379"
  password: "secret"
  db: 1

content:
  source: postgres
  postgres_dsn: "postgres://quiz:quiz@db:5432/quiz?sslmode=disable"
  auto_migrate: true

game:
  round_limit: 5
  lobby_capacity: 4
  answer_window: 15
  tick_interval_ms: 500
  forming_timeout: 3
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "protobuf", cfg.Server.WireFormat)
	assert.Len(t, cfg.Server.AllowedOrigins, 2)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "postgres", cfg.Content.Source)
	assert.True(t, cfg.Content.AutoMigrate)
	assert.Equal(t, 5, cfg.Game.RoundLimit)
	assert.Equal(t, 4, cfg.Game.LobbyCapacity)
	assert.Equal(t, 15, cfg.Game.AnswerWindow)
	assert.Equal(t, 500*time.Millisecond, cfg.Game.TickIntervalDuration())
	assert.Equal(t, 3*time.Minute, cfg.Game.FormingTimeoutDuration())

	// untouched fields fall back to defaults
	assert.Equal(t, 10*time.Minute, cfg.Game.GameOverTimeoutDuration())
	assert.Equal(t, 30*time.Minute, cfg.Game.PlayerIdleDuration())
	assert.Equal(t, 1, cfg.Game.WinningScore())
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("TRIVIA_PORT", "9999")
	t.Setenv("TRIVIA_ROUND_LIMIT", "3")
	t.Setenv("TRIVIA_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load(writeConfig(t, "server:\n  port: 8080\n"))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Game.RoundLimit)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("TRIVIA_PORT", "not-a-number")

	cfg, err := Load(writeConfig(t, "server:\n  port: 8080\n"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 1780, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Server.WireFormat)
	assert.Equal(t, "file", cfg.Content.Source)
	assert.Equal(t, 10, cfg.Game.RoundLimit)
	assert.Equal(t, 6, cfg.Game.LobbyCapacity)
	assert.Equal(t, 10, cfg.Game.AnswerWindow)
	assert.Equal(t, 1, cfg.Game.BreakTickCount())
	assert.Equal(t, 1, cfg.Game.WinningScore())
	assert.Equal(t, time.Second, cfg.Game.TickIntervalDuration())
	assert.Equal(t, 10*time.Minute, cfg.Game.FormingTimeoutDuration())
	assert.Equal(t, 15*time.Second, cfg.Game.ShutdownTimeoutDuration())
	assert.Equal(t, 3, cfg.Game.NicknameMinLen)
	assert.Equal(t, 10, cfg.Game.NicknameMaxLen)
	assert.Equal(t, "trivia-rush", cfg.Telemetry.ServiceName)
	assert.Equal(t, 1000, cfg.Server.MaxConnections)
	assert.Equal(t, 20, cfg.Security.MessagePerSecond)
	assert.Equal(t, time.Minute, cfg.Security.BanDurationTime())
}

func TestLoad_ExplicitZeroKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, "game:\n  break_ticks: 0\n  min_winning_score: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Game.BreakTickCount())
	assert.Equal(t, 0, cfg.Game.WinningScore())
	// other zero-valued fields still take their defaults
	assert.Equal(t, 10, cfg.Game.RoundLimit)
}

func TestLoad_ExplicitZeroFromEnv(t *testing.T) {
	t.Setenv("TRIVIA_MIN_WINNING_SCORE", "0")

	cfg, err := Load(writeConfig(t, "game:\n  min_winning_score: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Game.WinningScore())
	assert.Equal(t, 1, cfg.Game.BreakTickCount())
}

func TestGameConfig_UnsetFallsBack(t *testing.T) {
	t.Parallel()
	var c GameConfig
	assert.Equal(t, 1, c.BreakTickCount())
	assert.Equal(t, 1, c.WinningScore())
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := Load("../../configs/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Server.WireFormat)
	assert.Equal(t, "file", cfg.Content.Source)
	assert.Equal(t, 6, cfg.Game.LobbyCapacity)
	assert.Equal(t, 20, cfg.Security.MessagePerSecond)
}
