package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var Pool *pgxpool.Pool

// InitPostgres opens the candle archive pool. An empty dsn leaves Pool nil
// and the archive disabled.
func InitPostgres(ctx context.Context, dsn string) {
	if dsn == "" {
		log.Info().Msg("DATABASE_URL not set, candle archive disabled")
		return
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping Postgres")
	}
	Pool = pool
	log.Info().Msg("connected to Postgres")
}

func Close() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
	}
}
