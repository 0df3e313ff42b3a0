package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleWebSocket admits and upgrades a websocket connection
func (s *Server) handleWebSocket(c *gin.Context) {
	r := c.Request
	clientIP := GetClientIP(r)

	if s.IsMaintenanceMode() {
		log.Printf("🔧 Maintenance mode, refusing %s", clientIP)
		c.String(http.StatusServiceUnavailable, "Server is under maintenance, please try again later")
		return
	}

	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Printf("🚫 Connection limit (%d) reached, refusing %s", s.maxConnections, clientIP)
		c.String(http.StatusServiceUnavailable, "Server Full")
		return
	}
	admitted := false
	defer func() {
		if !admitted {
			<-s.semaphore
		}
	}()

	if !s.originChecker.Check(r) {
		log.Printf("🚫 Origin %q rejected (IP %s)", r.Header.Get("Origin"), clientIP)
		c.String(http.StatusForbidden, "Origin not allowed")
		return
	}
	if !s.rateLimiter.Allow(clientIP) {
		c.String(http.StatusTooManyRequests, "Too Many Requests")
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, r, nil)
	if err != nil {
		log.Printf("⚠️ Websocket upgrade failed: %v", err)
		return
	}
	admitted = true

	client := NewClient(s, conn)
	client.IP = clientIP
	s.hub.Register(client)
	log.Printf("✅ Connection %s from %s", client.ID, clientIP)

	go func() {
		defer func() { <-s.semaphore }()
		client.ReadPump()
	}()
	go client.WritePump()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"online":      s.GetOnlineCount(),
		"sessions":    s.engine.Registry().SessionCount(),
		"maintenance": s.IsMaintenanceMode(),
	})
}
