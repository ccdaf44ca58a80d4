package middleware

import (
	"sync"
	"time"

	"camwatch/pkg/config"
	"camwatch/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore stores per-key (for example, per IP) rate limiters.
// Entries idle for longer than idleTTL are swept on access.
type rateLimiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burstSize int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiterStore(r rate.Limit, burst int, idleTTL time.Duration) *rateLimiterStore {
	return &rateLimiterStore{
		limiters:  make(map[string]*limiterEntry),
		rate:      r,
		burstSize: burst,
		idleTTL:   idleTTL,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (s *rateLimiterStore) getLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.idleTTL > 0 && now.Sub(s.lastSweep) >= s.idleTTL {
		s.sweep(now)
	}

	entry, exists := s.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.rate, s.burstSize)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweep drops limiters not used within idleTTL. Callers hold s.mu.
func (s *rateLimiterStore) sweep(now time.Time) {
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) >= s.idleTTL {
			delete(s.limiters, key)
		}
	}
	s.lastSweep = now
}

// NewHTTPRateLimitMiddleware returns Gin middleware that applies per-client
// rate limiting plus a global cap on in-flight requests. The client is
// c.ClientIP(), so forwarded headers count only from the engine's trusted
// proxies.
//
// Routes listed in exempt, as "METHOD /path" patterns, bypass both limits.
// WebSocket upgrades bypass the in-flight cap since they hold the request
// for the connection's lifetime.
func NewHTTPRateLimitMiddleware(cfg *config.Config, exempt ...string) gin.HandlerFunc {
	if !cfg.RateLimiting.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	rps := cfg.RateLimiting.HTTP.RequestsPerSecond
	burst := cfg.RateLimiting.HTTP.Burst

	store := newRateLimiterStore(rate.Limit(rps), burst, cfg.RateLimiting.HTTP.IdleTTL)

	var globalSem chan struct{}
	if cfg.RateLimiting.HTTP.MaxConcurrent > 0 {
		globalSem = make(chan struct{}, cfg.RateLimiting.HTTP.MaxConcurrent)
	}

	skip := make(map[string]struct{}, len(exempt))
	for _, route := range exempt {
		skip[route] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.Method+" "+c.FullPath()]; ok {
			c.Next()
			return
		}

		// Global concurrent requests throttling
		if globalSem != nil && !websocket.IsWebSocketUpgrade(c.Request) {
			select {
			case globalSem <- struct{}{}:
				defer func() { <-globalSem }()
			default:
				abortWithError(c, errors.NewServiceUnavailableError("too many concurrent requests"))
				return
			}
		}

		limiter := store.getLimiter(c.ClientIP())
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			abortWithError(c, errors.NewRateLimitError())
			return
		}
		c.Next()
	}
}
