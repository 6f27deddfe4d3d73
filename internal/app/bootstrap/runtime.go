package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/mojito-booking/internal/config"
	httpmiddleware "github.com/wolfman30/mojito-booking/internal/http/middleware"
	"github.com/wolfman30/mojito-booking/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// SubmitLimiter is the limiter in front of POST /booking/submit plus a
// function releasing whatever it holds.
type SubmitLimiter struct {
	Limiter httpmiddleware.Limiter
	Close   func()
	Shared  bool
}

// BuildSubmitLimiter prefers a Redis limiter so replicas share one budget and
// falls back to the in-process token bucket. It returns nil when rate
// limiting is disabled (RATE_LIMIT_RPS <= 0).
func BuildSubmitLimiter(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) *SubmitLimiter {
	if cfg == nil || cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if redisClient != nil {
		logger.Info("submit rate limiter backed by redis", "rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
		return &SubmitLimiter{
			Limiter: httpmiddleware.NewRedisLimiter(redisClient, "mojito:submit", cfg.RateLimitRPS, cfg.RateLimitBurst),
			Close:   func() { _ = redisClient.Close() },
			Shared:  true,
		}
	}
	rl := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Info("submit rate limiter in memory", "rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	return &SubmitLimiter{Limiter: rl, Close: rl.Stop}
}
