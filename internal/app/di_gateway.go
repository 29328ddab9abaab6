package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/gatekeeper/internal/config"
	"github.com/allisson/gatekeeper/internal/gateway"
	"github.com/allisson/gatekeeper/internal/ratelimit"
)

// redisKeyPrefix namespaces rate-limit counters in a shared redis.
const redisKeyPrefix = "gatekeeper:ratelimit:"

// cleanupLimiter is implemented by the in-memory limiters that evict idle counters.
type cleanupLimiter interface {
	ratelimit.Limiter
	Start(ctx context.Context)
	Close() error
}

// RateLimiter returns the limiter selected by RATE_LIMIT_BACKEND and
// RATE_LIMIT_ALGORITHM. Returns nil when rate limiting is disabled.
func (c *Container) RateLimiter() (ratelimit.Limiter, error) {
	var err error
	c.limiterInit.Do(func() {
		c.limiter, err = c.initRateLimiter()
		if err != nil {
			c.initErrors["limiter"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["limiter"]; exists {
		return nil, storedErr
	}
	return c.limiter, nil
}

// Pipeline returns the gateway pipeline shared by every route.
func (c *Container) Pipeline() (*gateway.Pipeline, error) {
	var err error
	c.pipelineInit.Do(func() {
		c.pipeline, err = c.initPipeline()
		if err != nil {
			c.initErrors["pipeline"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["pipeline"]; exists {
		return nil, storedErr
	}
	return c.pipeline, nil
}

func (c *Container) initRateLimiter() (ratelimit.Limiter, error) {
	if !c.config.RateLimitEnabled {
		return nil, nil
	}

	logger := c.Logger()

	switch c.config.RateLimitBackend {
	case config.RateLimitBackendRedis:
		client, err := c.RedisClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis client for rate limiter: %w", err)
		}
		if c.config.RateLimitAlgorithm == config.RateLimitAlgorithmTokenBucket {
			logger.Warn("token bucket is only available on the memory backend, using fixed window")
		}
		return ratelimit.NewRedisLimiter(client, redisKeyPrefix, c.config.RateLimitTimeout), nil
	case config.RateLimitBackendMemory, "":
		var limiter cleanupLimiter
		switch c.config.RateLimitAlgorithm {
		case config.RateLimitAlgorithmTokenBucket:
			limiter = ratelimit.NewTokenBucketLimiter(
				c.config.RateLimitIdleTTL,
				c.config.RateLimitCleanupInterval,
				logger,
			)
		case config.RateLimitAlgorithmFixedWindow, "":
			limiter = ratelimit.NewMemoryLimiter(
				c.config.RateLimitIdleTTL,
				c.config.RateLimitCleanupInterval,
				logger,
			)
		default:
			return nil, fmt.Errorf("unsupported rate limit algorithm: %s", c.config.RateLimitAlgorithm)
		}
		limiter.Start(context.Background())
		c.limiterCloser = limiter.Close
		return limiter, nil
	default:
		return nil, fmt.Errorf("unsupported rate limit backend: %s", c.config.RateLimitBackend)
	}
}

func (c *Container) initPipeline() (*gateway.Pipeline, error) {
	authenticator, err := c.Authenticator()
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticator for pipeline: %w", err)
	}

	limiter, err := c.RateLimiter()
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limiter for pipeline: %w", err)
	}

	gatewayMetrics, err := c.GatewayMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway metrics for pipeline: %w", err)
	}

	logger := c.Logger()
	logger.Info("gateway configured",
		slog.Bool("rate_limit_enabled", c.config.RateLimitEnabled),
		slog.String("rate_limit_backend", c.config.RateLimitBackend),
		slog.String("rate_limit_algorithm", c.config.RateLimitAlgorithm),
		slog.Bool("cors_enabled", c.config.CORSEnabled),
		slog.String("identity_provider", c.config.IdentityProvider),
	)

	defaultLimit := gateway.RateLimitPolicy{
		Requests: c.config.RateLimitRequests,
		Window:   c.config.RateLimitWindow,
	}
	corsHandler := gateway.NewCORSHandler(c.config.CORSEnabled, c.config.CORSAllowOrigins, logger)

	return gateway.NewPipeline(authenticator, limiter, defaultLimit, corsHandler, gatewayMetrics, logger), nil
}
