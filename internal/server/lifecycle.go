package server

import (
	"context"
	"log"
	"runtime"
	"time"

	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/protocol/codec"
)

const (
	statsInterval         = 30 * time.Second
	shutdownCheckInterval = time.Second
)

// monitorStats logs load figures and prunes the connection limiter until the
// server shuts down.
func (s *Server) monitorStats() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	prune := time.NewTicker(rateCleanupInterval)
	defer prune.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-prune.C:
			s.rateLimiter.Prune()
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			log.Printf("📊 Online: %d | Sessions: %d | Players: %d | Goroutines: %d | Conns: %d/%d | Mem: %.2f MB",
				s.GetOnlineCount(),
				s.engine.Registry().SessionCount(),
				s.engine.Registry().PlayerCount(),
				runtime.NumGoroutine(),
				len(s.semaphore), s.maxConnections,
				float64(m.Alloc)/1024/1024)
		}
	}
}

// EnterMaintenanceMode refuses new connections and new games
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.hub.Broadcast(codec.NewErrorMessageWithText(protocol.ErrCodeServerShutdown,
		"Maintenance: no new games can be started"))
	log.Println("🔧 Maintenance mode: refusing new connections and games")
}

// IsMaintenanceMode reports whether maintenance mode is on
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// activeGames sessions whose game is running
func (s *Server) activeGames() int {
	n := 0
	for _, info := range s.engine.Snapshots() {
		if info.ArePlayersReady && !info.IsGameOver {
			n++
		}
	}
	return n
}

// GracefulShutdown enters maintenance mode, waits for running games to end
// or ctx to expire, then shuts down.
func (s *Server) GracefulShutdown(ctx context.Context) error {
	s.EnterMaintenanceMode()

	ticker := time.NewTicker(shutdownCheckInterval)
	defer ticker.Stop()

wait:
	for {
		active := s.activeGames()
		if active == 0 {
			log.Println("✅ No games running")
			break
		}
		log.Printf("⏳ Waiting for %d games to finish...", active)
		select {
		case <-ctx.Done():
			log.Printf("⚠️ Timed out with %d games still running", active)
			break wait
		case <-ticker.C:
		}
	}

	s.hub.Broadcast(codec.NewErrorMessage(protocol.ErrCodeServerShutdown))

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return s.Shutdown(stopCtx)
}

// Shutdown closes every connection and stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	s.hub.CloseAll()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	log.Println("👋 Server stopped")
	return err
}
