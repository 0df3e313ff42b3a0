package server

import (
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	rateCleanupInterval = 5 * time.Minute
	rateRecordTTL       = 10 * time.Minute
	maxMessageWarnings  = 5
)

// RateLimiter throttles new connections per IP. Exceeding either window bans
// the IP for banDuration.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string]*clientRate

	maxPerSecond int
	maxPerMinute int
	banDuration  time.Duration
	now          func() time.Time
}

type clientRate struct {
	secondCount int
	minuteCount int
	lastSecond  time.Time
	lastMinute  time.Time
	bannedUntil time.Time
}

// NewRateLimiter creates a connection rate limiter
func NewRateLimiter(maxPerSecond, maxPerMinute int, banDuration time.Duration) *RateLimiter {
	return &RateLimiter{
		requests:     make(map[string]*clientRate),
		maxPerSecond: maxPerSecond,
		maxPerMinute: maxPerMinute,
		banDuration:  banDuration,
		now:          time.Now,
	}
}

// Allow records a request from ip and reports whether it may proceed
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rate, ok := rl.requests[ip]
	if !ok {
		rl.requests[ip] = &clientRate{secondCount: 1, minuteCount: 1, lastSecond: now, lastMinute: now}
		return true
	}

	if now.Before(rate.bannedUntil) {
		return false
	}
	if now.Sub(rate.lastSecond) >= time.Second {
		rate.secondCount = 0
		rate.lastSecond = now
	}
	if now.Sub(rate.lastMinute) >= time.Minute {
		rate.minuteCount = 0
		rate.lastMinute = now
	}

	rate.secondCount++
	rate.minuteCount++
	if rate.secondCount > rl.maxPerSecond || rate.minuteCount > rl.maxPerMinute {
		rate.bannedUntil = now.Add(rl.banDuration)
		log.Printf("⚠️ IP %s banned for %v after too many connections", ip, rl.banDuration)
		return false
	}
	return true
}

// IsBanned reports whether ip is currently refused
func (rl *RateLimiter) IsBanned(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rate, ok := rl.requests[ip]
	return ok && rl.now().Before(rate.bannedUntil)
}

// Prune forgets IPs that have been quiet for a while and are not banned.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for ip, rate := range rl.requests {
		if now.Sub(rate.lastMinute) > rateRecordTTL && now.After(rate.bannedUntil) {
			delete(rl.requests, ip)
			removed++
		}
	}
	return removed
}

// --- origin check ---

// OriginChecker validates the Origin header of websocket upgrades
type OriginChecker struct {
	allowed  map[string]bool
	allowAll bool
}

// NewOriginChecker creates a checker. An empty list or "*" allows everything.
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{allowed: make(map[string]bool), allowAll: len(origins) == 0}
	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowed[strings.ToLower(origin)] = true
	}
	return oc
}

// Check reports whether r's origin is allowed. Requests without an Origin
// header come from native clients and pass.
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return oc.allowed[strings.ToLower(origin)]
}

// GetClientIP real client IP, honouring proxy headers
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// --- per-connection message rate ---

// MessageRateLimiter throttles frames from connected clients
type MessageRateLimiter struct {
	mu     sync.Mutex
	limits map[string]*messageRate

	maxPerSecond     int
	warningThreshold int
	now              func() time.Time
}

type messageRate struct {
	count     int
	lastReset time.Time
	warnings  int
}

// NewMessageRateLimiter creates a limiter allowing maxPerSecond frames
func NewMessageRateLimiter(maxPerSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		limits:           make(map[string]*messageRate),
		maxPerSecond:     maxPerSecond,
		warningThreshold: maxPerSecond / 2,
		now:              time.Now,
	}
}

// AllowMessage counts a frame. warning is set once the client passes half of
// its budget.
func (ml *MessageRateLimiter) AllowMessage(clientID string) (allowed bool, warning bool) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := ml.now()
	rate, ok := ml.limits[clientID]
	if !ok {
		ml.limits[clientID] = &messageRate{count: 1, lastReset: now}
		return true, false
	}
	if now.Sub(rate.lastReset) >= time.Second {
		rate.count = 1
		rate.lastReset = now
		return true, false
	}

	rate.count++
	if rate.count > ml.maxPerSecond {
		rate.warnings++
		return false, true
	}
	return true, rate.count > ml.warningThreshold
}

// GetWarningCount number of rejected frames for clientID
func (ml *MessageRateLimiter) GetWarningCount(clientID string) int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if rate, ok := ml.limits[clientID]; ok {
		return rate.warnings
	}
	return 0
}

// RemoveClient forgets a closed connection
func (ml *MessageRateLimiter) RemoveClient(clientID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.limits, clientID)
}
