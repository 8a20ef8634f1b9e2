package bootstrap

import (
	"context"

	"github.com/rs/zerolog/log"

	redisad "github.com/sabawaheed27/motofix-europe/internal/adapters/redis"
	"github.com/sabawaheed27/motofix-europe/internal/domain"
	"github.com/sabawaheed27/motofix-europe/internal/shared"
)

// Cache returns the redis lookup cache, or nil when REDIS_ADDR is unset or
// the server does not answer. Running without a cache only costs backend
// round trips.
func Cache(ctx context.Context, cfg shared.Config) (domain.Cache, func()) {
	if cfg.RedisAddr == "" {
		return nil, func() {}
	}
	c := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, caching disabled")
		_ = c.Close()
		return nil, func() {}
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache ready")
	return c, func() { _ = c.Close() }
}
