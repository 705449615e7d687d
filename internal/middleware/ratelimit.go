package middleware

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bigbiz/catalog-api/internal/config"
	"github.com/bigbiz/catalog-api/internal/handlers"
	"github.com/bigbiz/catalog-api/internal/metrics"
)

const (
	rateLimitPeriod = 1 * time.Minute
	rateLimitPrefix = "catalog:login_limit:"
)

// Counter counts hits on a key inside a fixed window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter is a fixed window counter kept in Redis.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Incr opens the window with SET NX EX and counts with INCR in one MULTI, so
// a key never exists without its TTL.
func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	var count *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		count = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count.Val(), nil
}

// NewRedisClient connects to Redis. It returns nil when no address is
// configured or the server does not answer, which turns limiting off.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, log *zerolog.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unavailable, login rate limiting disabled")
		_ = client.Close()
		return nil
	}
	log.Info().Str("addr", cfg.Addr).Msg("redis connected")
	return client
}

// LoginRateLimiter allows limit requests per client IP per minute. A nil
// counter, or a counter error, lets the request through.
func LoginRateLimiter(counter Counter, limit int64, m *metrics.Metrics, log *zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if counter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			count, err := counter.Incr(r.Context(), rateLimitPrefix+ip, rateLimitPeriod)
			if err != nil {
				log.Warn().Err(err).Msg("rate limit counter failed")
				next.ServeHTTP(w, r)
				return
			}

			if count > limit {
				m.LoginAttempt(metrics.LoginLimited)
				log.Warn().Str("ip", ip).Int64("count", count).Msg("login rate limit exceeded")
				w.Header().Set("Retry-After", "60")
				handlers.WriteError(w, http.StatusTooManyRequests, "Too many login attempts, try again later", log)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
