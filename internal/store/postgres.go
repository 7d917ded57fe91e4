// internal/store/postgres.go
//
// Postgres-backed Slot for deployments where several server instances share
// one database. Same `records` table shape as the SQLite slot; the embedded
// migrations are plain enough to run on both.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/assets"
)

// PostgresSlot stores records in Postgres.
type PostgresSlot struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to url and applies migrations.
func OpenPostgres(ctx context.Context, url string) (*PostgresSlot, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migratePostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresSlot{pool: pool}, nil
}

// Close releases the pool.
func (p *PostgresSlot) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresSlot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v string
	err := p.pool.QueryRow(ctx, `SELECT value FROM records WHERE key=$1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select record: %w", err)
	}
	return []byte(v), true, nil
}

func (p *PostgresSlot) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.pool.Exec(ctx, `
        INSERT INTO records (key, value, updated_at) VALUES ($1, $2, $3)
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at`,
		key, string(value), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

func (p *PostgresSlot) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM records WHERE key=$1`, key); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func migratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	migrations, err := assets.Migrations()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	for _, m := range migrations {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `INSERT INTO _migrations(name) VALUES ($1) ON CONFLICT DO NOTHING`, m.Name)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("record %s: %w", m.Name, err)
		}
		if tag.RowsAffected() == 0 {
			_ = tx.Rollback(ctx)
			continue
		}
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("apply %s: %w", m.Name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit %s: %w", m.Name, err)
		}
		log.Info().Str("migration", m.Name).Msg("applied")
	}
	return nil
}
