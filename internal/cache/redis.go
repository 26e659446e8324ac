package cache

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Client *redis.Client

// InitRedis connects the shared client. addr is either host:port or a
// redis:// URL. An unreachable server is fatal because sessions cannot be
// stored without it.
func InitRedis(ctx context.Context, addr string) {
	opts, err := redisOptions(addr)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	Client = redis.NewClient(opts)
	if err := Client.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", opts.Addr).Msg("failed to connect to Redis")
	}
	log.Info().Str("addr", opts.Addr).Msg("connected to Redis")
}

func redisOptions(addr string) (*redis.Options, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = "localhost:6379"
	}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}
