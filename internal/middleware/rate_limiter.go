package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"inventorypro/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Credential rate limiter ───────────────────────────────────────────────────
// PINs are short, so every endpoint that checks a secret (shift open, login,
// authorization verify) goes through a fixed-window limiter per client IP.

type window struct {
	count int
	end   time.Time
}

type RateLimiter struct {
	mu        sync.Mutex
	limit     int
	period    time.Duration
	clients   map[string]*window
	lastPurge time.Time
	now       func() time.Time
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		period:  period,
		clients: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records one attempt for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPurge) > l.period {
		l.purgeLocked(now)
	}

	w, ok := l.clients[key]
	if !ok || now.After(w.end) {
		w = &window{end: now.Add(l.period)}
		l.clients[key] = w
	}
	w.count++
	if w.count > l.limit {
		return false, w.end.Sub(now)
	}
	return true, 0
}

func (l *RateLimiter) purgeLocked(now time.Time) {
	purged := 0
	for key, w := range l.clients {
		if now.After(w.end) {
			delete(l.clients, key)
			purged++
		}
	}
	l.lastPurge = now
	if purged > 0 {
		log.Debug().Int("entries_purged", purged).Int("entries_remaining", len(l.clients)).Msg("rate limiter purged")
	}
}

// Middleware rejects clients over the limit with 429.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retry := l.Allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many attempts, try again later"))
			return
		}
		c.Next()
	}
}
