package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Content   ContentConfig   `yaml:"content"`
	Game      GameConfig      `yaml:"game"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Security  SecurityConfig  `yaml:"security"`
	LogFile   string          `yaml:"log_file" env:"TRIVIA_LOG_FILE"`
}

// ServerConfig HTTP / WebSocket server
type ServerConfig struct {
	Host           string   `yaml:"host" env:"TRIVIA_HOST"`
	Port           int      `yaml:"port" env:"TRIVIA_PORT"`
	WireFormat     string   `yaml:"wire_format" env:"TRIVIA_WIRE_FORMAT"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"TRIVIA_ALLOWED_ORIGINS" envSeparator:","`
	ReleaseMode    bool     `yaml:"release_mode" env:"TRIVIA_RELEASE_MODE"`
	MaxConnections int      `yaml:"max_connections" env:"TRIVIA_MAX_CONNECTIONS"`
}

// SecurityConfig connection and message rate limits
type SecurityConfig struct {
	ConnPerSecond    int `yaml:"conn_per_second" env:"TRIVIA_CONN_PER_SECOND"`
	ConnPerMinute    int `yaml:"conn_per_minute" env:"TRIVIA_CONN_PER_MINUTE"`
	BanDuration      int `yaml:"ban_duration" env:"TRIVIA_BAN_DURATION"` // seconds
	MessagePerSecond int `yaml:"message_per_second" env:"TRIVIA_MESSAGE_PER_SECOND"`
}

// BanDurationTime how long a flooding IP is refused
func (c *SecurityConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// RedisConfig session directory and leaderboard backend
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"TRIVIA_REDIS_ENABLED"`
	Addr     string `yaml:"addr" env:"TRIVIA_REDIS_ADDR"`
	Password string `yaml:"password" env:"TRIVIA_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"TRIVIA_REDIS_DB"`
}

// ContentConfig question bank source
type ContentConfig struct {
	Source      string `yaml:"source" env:"TRIVIA_CONTENT_SOURCE"`
	File        string `yaml:"file" env:"TRIVIA_CONTENT_FILE"`
	PostgresDSN string `yaml:"postgres_dsn" env:"TRIVIA_POSTGRES_DSN"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"TRIVIA_CONTENT_AUTO_MIGRATE"`
}

// GameConfig game rules and clocks. AnswerWindow and BreakTicks count scheduler
// ticks; the timeouts are minutes except ShutdownTimeout (seconds).
// BreakTicks and MinWinningScore accept an explicit 0, so unset is nil.
type GameConfig struct {
	RoundLimit      int `yaml:"round_limit" env:"TRIVIA_ROUND_LIMIT"`
	LobbyCapacity   int `yaml:"lobby_capacity" env:"TRIVIA_LOBBY_CAPACITY"`
	AnswerWindow    int `yaml:"answer_window" env:"TRIVIA_ANSWER_WINDOW"`
	BreakTicks      *int `yaml:"break_ticks" env:"TRIVIA_BREAK_TICKS"`
	TickInterval    int `yaml:"tick_interval_ms" env:"TRIVIA_TICK_INTERVAL_MS"`
	FormingTimeout  int `yaml:"forming_timeout" env:"TRIVIA_FORMING_TIMEOUT"`
	GameOverTimeout int `yaml:"game_over_timeout" env:"TRIVIA_GAME_OVER_TIMEOUT"`
	PlayerIdle      int `yaml:"player_idle_timeout" env:"TRIVIA_PLAYER_IDLE_TIMEOUT"`
	MinWinningScore *int `yaml:"min_winning_score" env:"TRIVIA_MIN_WINNING_SCORE"`
	NicknameMinLen  int `yaml:"nickname_min_len" env:"TRIVIA_NICKNAME_MIN_LEN"`
	NicknameMaxLen  int `yaml:"nickname_max_len" env:"TRIVIA_NICKNAME_MAX_LEN"`
	ShutdownTimeout int `yaml:"shutdown_timeout" env:"TRIVIA_SHUTDOWN_TIMEOUT"`
}

// TelemetryConfig OpenTelemetry export
type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name" env:"TRIVIA_SERVICE_NAME"`
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"TRIVIA_OTLP_ENDPOINT"`
}

const (
	defaultBreakTicks      = 1
	defaultMinWinningScore = 1
)

func intPtr(v int) *int { return &v }

// BreakTickCount ticks between rounds, 0 starts the next round on the following tick
func (c *GameConfig) BreakTickCount() int {
	if c.BreakTicks == nil {
		return defaultBreakTicks
	}
	return *c.BreakTicks
}

// WinningScore lowest score that can win; 0 lets an all-zero game produce winners
func (c *GameConfig) WinningScore() int {
	if c.MinWinningScore == nil {
		return defaultMinWinningScore
	}
	return *c.MinWinningScore
}

// TickIntervalDuration scheduler period
func (c *GameConfig) TickIntervalDuration() time.Duration {
	return time.Duration(c.TickInterval) * time.Millisecond
}

// FormingTimeoutDuration how long a lobby may sit before the first round
func (c *GameConfig) FormingTimeoutDuration() time.Duration {
	return time.Duration(c.FormingTimeout) * time.Minute
}

// GameOverTimeoutDuration how long a finished game stays addressable
func (c *GameConfig) GameOverTimeoutDuration() time.Duration {
	return time.Duration(c.GameOverTimeout) * time.Minute
}

// PlayerIdleDuration idle threshold for the player sweep
func (c *GameConfig) PlayerIdleDuration() time.Duration {
	return time.Duration(c.PlayerIdle) * time.Minute
}

// ShutdownTimeoutDuration upper bound for graceful shutdown
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// Load reads the YAML file, applies environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	return &cfg, nil
}

// ApplyEnv overrides fields from TRIVIA_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.fillDefaults()
	return cfg
}

func (cfg *Config) fillDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 1780
	}
	if cfg.Server.WireFormat == "" {
		cfg.Server.WireFormat = "json"
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = 1000
	}
	if cfg.Security.ConnPerSecond == 0 {
		cfg.Security.ConnPerSecond = 5
	}
	if cfg.Security.ConnPerMinute == 0 {
		cfg.Security.ConnPerMinute = 60
	}
	if cfg.Security.BanDuration == 0 {
		cfg.Security.BanDuration = 60
	}
	if cfg.Security.MessagePerSecond == 0 {
		cfg.Security.MessagePerSecond = 20
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Content.Source == "" {
		cfg.Content.Source = "file"
	}
	if cfg.Content.File == "" {
		cfg.Content.File = "configs/questions.yaml"
	}
	if cfg.Game.RoundLimit == 0 {
		cfg.Game.RoundLimit = 10
	}
	if cfg.Game.LobbyCapacity == 0 {
		cfg.Game.LobbyCapacity = 6
	}
	if cfg.Game.AnswerWindow == 0 {
		cfg.Game.AnswerWindow = 10
	}
	if cfg.Game.BreakTicks == nil {
		cfg.Game.BreakTicks = intPtr(defaultBreakTicks)
	}
	if cfg.Game.TickInterval == 0 {
		cfg.Game.TickInterval = 1000
	}
	if cfg.Game.FormingTimeout == 0 {
		cfg.Game.FormingTimeout = 10
	}
	if cfg.Game.GameOverTimeout == 0 {
		cfg.Game.GameOverTimeout = 10
	}
	if cfg.Game.PlayerIdle == 0 {
		cfg.Game.PlayerIdle = 30
	}
	if cfg.Game.MinWinningScore == nil {
		cfg.Game.MinWinningScore = intPtr(defaultMinWinningScore)
	}
	if cfg.Game.NicknameMinLen == 0 {
		cfg.Game.NicknameMinLen = 3
	}
	if cfg.Game.NicknameMaxLen == 0 {
		cfg.Game.NicknameMaxLen = 10
	}
	if cfg.Game.ShutdownTimeout == 0 {
		cfg.Game.ShutdownTimeout = 15
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "trivia-rush"
	}
}
