// Package server exposes the trivia engine over websocket and a small
// read-only HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/trivia-rush/internal/config"
	"github.com/palemoky/trivia-rush/internal/game/engine"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
	"github.com/palemoky/trivia-rush/internal/server/handler"
	"github.com/palemoky/trivia-rush/internal/server/storage"
)

// LeaderboardReader serves the leaderboard API
type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, kind string, limit int) ([]*storage.LeaderboardEntry, error)
	GetPlayerStats(ctx context.Context, playerName string) (*storage.PlayerStats, error)
	GetPlayerRank(ctx context.Context, playerName string) (int64, error)
}

// Server websocket server
type Server struct {
	config      *config.Config
	engine      *engine.Engine
	hub         *Hub
	handler     *handler.Handler
	leaderboard LeaderboardReader
	format      codec.Format
	upgrader    websocket.Upgrader

	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter

	maxConnections int
	semaphore      chan struct{}

	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	httpServer *http.Server
}

// Option configures a Server
type Option func(*Server)

// WithLeaderboard enables the leaderboard API
func WithLeaderboard(lb LeaderboardReader) Option {
	return func(s *Server) { s.leaderboard = lb }
}

// NewServer creates a server around an engine whose notifier is hub.
func NewServer(cfg *config.Config, eng *engine.Engine, hub *Hub, opts ...Option) (*Server, error) {
	format, err := codec.ParseFormat(cfg.Server.WireFormat)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config: cfg,
		engine: eng,
		hub:    hub,
		format: format,
		rateLimiter: NewRateLimiter(
			cfg.Security.ConnPerSecond,
			cfg.Security.ConnPerMinute,
			cfg.Security.BanDurationTime(),
		),
		originChecker:  NewOriginChecker(cfg.Server.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessagePerSecond),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
		ctx:            ctx,
		cancel:         cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}
	s.handler = handler.NewHandler(handler.HandlerDeps{Server: s, Engine: eng})

	log.Printf("🔒 Limits: %d conn/s, %d msg/s, %d max connections, %s frames",
		cfg.Security.ConnPerSecond, cfg.Security.MessagePerSecond, cfg.Server.MaxConnections, format)
	return s, nil
}

// Handler the HTTP handler serving websocket and API routes
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go s.monitorStats()

	log.Printf("🚀 Listening on ws://%s/ws (CPUs: %d)", addr, runtime.NumCPU())
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// GetOnlineCount number of open connections
func (s *Server) GetOnlineCount() int {
	return s.hub.Count()
}
