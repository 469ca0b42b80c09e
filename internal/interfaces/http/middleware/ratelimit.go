package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pontos/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Limiter counts one request for key and reports whether it is allowed and
// how many requests remain in the current window.
// cache.RedisRateLimiter satisfies it for multi-instance deployments.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	Limit() int
}

// RateLimiter is an in-memory fixed-window limiter for single-instance deployments
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	window  time.Duration
	done    chan struct{}
	once    sync.Once
}

type window struct {
	used  int
	start time.Time
}

// NewRateLimiter allows limit requests per key in each window
func NewRateLimiter(limit int, every time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  every,
		done:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, w := range rl.clients {
				if now.Sub(w.start) > rl.window*2 {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Allow implements Limiter
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.clients[key]
	if !ok || now.Sub(w.start) >= rl.window {
		w = &window{start: now}
		rl.clients[key] = w
	}
	if w.used >= rl.limit {
		return false, 0, nil
	}
	w.used++
	return true, rl.limit - w.used, nil
}

// Limit implements Limiter
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// KeyFunc derives the rate limit key from a request
type KeyFunc func(*gin.Context) string

// ClientIPKey limits per client address
func ClientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// RateLimit limits requests per key. Limiter errors let the request through.
func RateLimit(limiter Limiter, keyFunc KeyFunc, logger *zap.Logger) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = ClientIPKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := keyFunc(c)
		allowed, remaining, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request",
				zap.String("key", key),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Muitas tentativas. Tente novamente mais tarde.",
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}
