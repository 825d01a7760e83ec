package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/config"
	"github.com/mcdev12/draftroom/go/internal/draft/store"
)

// Databases holds both Postgres handles: database/sql for the draft store and
// a pgx pool for leagues and teams.
type Databases struct {
	SQL  *sql.DB
	Pool *pgxpool.Pool
}

func setupDatabase(ctx context.Context, cfg config.Config) (*Databases, error) {
	dsn, err := cfg.PostgresDSN()
	if err != nil {
		return nil, err
	}

	db, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Migrate {
		if err := store.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		db.Close()
		return nil, fmt.Errorf("failed to ping pgx pool: %w", err)
	}

	cc := pool.Config().ConnConfig
	log.Info().
		Str("host", cc.Host).
		Uint16("port", cc.Port).
		Str("database", cc.Database).
		Bool("migrated", cfg.Storage.Migrate).
		Msg("connected to database")
	return &Databases{SQL: db, Pool: pool}, nil
}

func (d *Databases) Close() {
	if d == nil {
		return
	}
	d.Pool.Close()
	if err := d.SQL.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close database")
	}
}
