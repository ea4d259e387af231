package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"restaurant-realtime/internal/config"
	"restaurant-realtime/internal/domain"
	"restaurant-realtime/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DSN builds a postgres connection URL from the database configuration.
func DSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Path:     cfg.Name,
		RawQuery: "sslmode=disable&timezone=UTC",
	}
	return u.String()
}

// Connect opens a pgx pool and waits until the database answers a ping.
// Pings are retried with exponential backoff for at most cfg.ConnectTimeout.
func Connect(ctx context.Context, cfg config.DatabaseConfig, l *logger.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	// every change feed holds one connection for its lifetime
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if !hasFeedHeadroom(poolCfg.MaxConns) {
		l.Warnf("pool size %d leaves no spare connection beyond %d change feeds; raise DB_MAX_CONNS",
			poolCfg.MaxConns, len(domain.TrackedTables))
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	policy := backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(cfg.ConnectTimeout))
	op := func() error {
		return pool.Ping(ctx)
	}
	notify := func(err error, next time.Duration) {
		l.Warnf("database not ready, retrying in %s: %v", next, err)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	l.Infof("Database connection established (%s:%s/%s)", cfg.Host, cfg.Port, cfg.Name)
	return pool, nil
}

// hasFeedHeadroom reports whether a pool of maxConns can hold one listening
// connection per tracked table and still serve health checks and triggers.
func hasFeedHeadroom(maxConns int32) bool {
	return int(maxConns) > len(domain.TrackedTables)
}

// HealthCheck pings the pool with a short deadline.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return pool.Ping(ctx)
}
