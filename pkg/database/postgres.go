package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// SQLSTATEs repositories translate into domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// TxQuerier is implemented by both pgxpool.Pool and pgx.Tx.
// Repository methods that need transaction support should accept TxQuerier.
type TxQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// NewPool creates a PostgreSQL connection pool with retry logic.
// Retries with exponential backoff: 1s, 2s, 4s, 8s, 16s (total ~31s before failure).
func NewPool(ctx context.Context, dsn string, maxRetries int) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.HealthCheckPeriod = 30 * time.Second

	attempts := maxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		var pool *pgxpool.Pool
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			pingErr := pool.Ping(ctx)
			if pingErr == nil {
				log.Info().
					Str("host", poolCfg.ConnConfig.Host).
					Str("database", poolCfg.ConnConfig.Database).
					Int32("max_conns", poolCfg.MaxConns).
					Msg("database connection established")
				return pool, nil
			}
			pool.Close()
			err = fmt.Errorf("ping failed: %w", pingErr)
		}

		backoff := time.Duration(1<<attempt) * time.Second
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", maxRetries).
			Dur("next_retry_in", backoff).
			Msg("database connection failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempts, err)
}

// IsUniqueViolation reports whether err carries SQLSTATE 23505.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// IsForeignKeyViolation reports whether err carries SQLSTATE 23503.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}

// ApplySchema executes a schema script on the pool.
// The script must be idempotent (CREATE ... IF NOT EXISTS).
func ApplySchema(ctx context.Context, db TxQuerier, schema string) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
