// Package postgres provides a Postgres-backed fetch.CacheStore, for
// embedders that want the persistent HTTP cache (§4.3's "notional HTTP
// cache") to survive process restarts.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	pkgconfig "fetchcore/pkg/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open creates and configures a connection pool against dsn, applying
// pool settings from the environment and verifying connectivity with a
// short-lived ping.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	cfg := connectionConfigFromEnv()
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping cache store: %w", err)
	}

	slog.Info("cache store connection established",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns))

	return db, nil
}

// connectionConfigFromEnv reads pool tuning overrides from the environment.
// It uses pkg/config's lenient getters, which fall back to the supplied
// default and log a warning on a malformed value rather than failing
// startup over a pool-sizing typo; a parsed-but-nonsensical value (zero or
// negative) is rejected the same way a malformed one is.
func connectionConfigFromEnv() ConnectionConfig {
	cfg := DefaultConnectionConfig()

	if n := pkgconfig.GetEnvInt("FETCH_CACHE_DB_MAX_OPEN_CONNS", cfg.MaxOpenConns); n > 0 {
		cfg.MaxOpenConns = n
	}
	if n := pkgconfig.GetEnvInt("FETCH_CACHE_DB_MAX_IDLE_CONNS", cfg.MaxIdleConns); n > 0 {
		cfg.MaxIdleConns = n
	}
	if d := pkgconfig.GetEnvDuration("FETCH_CACHE_DB_CONN_MAX_LIFETIME", cfg.ConnMaxLifetime); d > 0 {
		cfg.ConnMaxLifetime = d
	}
	if d := pkgconfig.GetEnvDuration("FETCH_CACHE_DB_CONN_MAX_IDLE_TIME", cfg.ConnMaxIdleTime); d > 0 {
		cfg.ConnMaxIdleTime = d
	}

	return cfg
}
