package server

import (
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/palemoky/trivia-rush/internal/server/storage"
)

const (
	defaultBoardLimit = 10
	maxBoardLimit     = 100
)

func (s *Server) routes() *gin.Engine {
	if s.config.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/ws", s.handleWebSocket)
	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	{
		api.GET("/sessions", s.listSessions)
		api.GET("/sessions/:code", s.getSession)
		api.GET("/leaderboard", s.getLeaderboard)
		api.GET("/players/:name", s.getPlayerStats)
	}
	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}
	origins := s.config.Server.AllowedOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// listSessions the session directory
func (s *Server) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Snapshots())
}

func (s *Server) getSession(c *gin.Context) {
	code, err := strconv.Atoi(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invitation code"})
		return
	}
	info, ok := s.engine.Snapshot(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) getLeaderboard(c *gin.Context) {
	if s.leaderboard == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "leaderboard disabled"})
		return
	}

	kind := c.DefaultQuery("kind", storage.BoardTotal)
	switch kind {
	case storage.BoardTotal, storage.BoardDaily, storage.BoardWeekly:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown leaderboard kind"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultBoardLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	limit = min(limit, maxBoardLimit)

	entries, err := s.leaderboard.GetLeaderboard(c.Request.Context(), kind, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leaderboard unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "entries": entries})
}

func (s *Server) getPlayerStats(c *gin.Context) {
	if s.leaderboard == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "leaderboard disabled"})
		return
	}

	ctx := c.Request.Context()
	name := c.Param("name")
	stats, err := s.leaderboard.GetPlayerStats(ctx, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	if stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}
	rank, err := s.leaderboard.GetPlayerRank(ctx, name)
	if err != nil {
		rank = -1
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "rank": rank})
}
