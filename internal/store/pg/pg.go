// Package pg implements core.Repository on PostgreSQL.
package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/store/core"
)

const uniqueViolation = "23505"

type repo struct {
	pool *pgxpool.Pool
}

// New connects a pool and verifies it.
func New(ctx context.Context, dsn string) (core.Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return &repo{pool: pool}, nil
}

func (r *repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *repo) Close() {
	r.pool.Close()
}

func isUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
