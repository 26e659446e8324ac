package repository

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS otc_candles (
		symbol     TEXT             NOT NULL,
		interval   TEXT             NOT NULL,
		open_time  TIMESTAMPTZ      NOT NULL,
		open       DOUBLE PRECISION NOT NULL,
		high       DOUBLE PRECISION NOT NULL,
		low        DOUBLE PRECISION NOT NULL,
		close      DOUBLE PRECISION NOT NULL,
		volume     DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, interval, open_time)
	)`,
	`CREATE INDEX IF NOT EXISTS otc_candles_open_time_idx ON otc_candles (open_time)`,
	`CREATE TABLE IF NOT EXISTS ssh_users (
		id            BIGSERIAL   PRIMARY KEY,
		username      TEXT        NOT NULL UNIQUE,
		fingerprint   TEXT        NOT NULL UNIQUE,
		is_active     BOOLEAN     NOT NULL DEFAULT TRUE,
		last_login_at TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates the archive and operator tables when missing.
func EnsureSchema(ctx context.Context, pool PgxPool) error {
	for i, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
