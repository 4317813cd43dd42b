// Package database opens the connection pool behind the stored security events and carries
// the ambient transaction through a context.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Supported drivers. The names match the database/sql registrations of lib/pq and go-sql-driver.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DefaultPingTimeout bounds the reachability check done by Connect.
const DefaultPingTimeout = 5 * time.Second

// ErrUnsupportedDriver is returned for drivers without security event migrations.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Config describes the pool.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	// PingTimeout defaults to DefaultPingTimeout when zero.
	PingTimeout time.Duration
}

// IsSupportedDriver reports whether driver has a repository and a migration set.
func IsSupportedDriver(driver string) bool {
	return driver == DriverPostgres || driver == DriverMySQL
}

// Connect opens the pool and pings it within cfg.PingTimeout. The pool is closed again
// when the ping fails so a misconfigured DSN never leaks connections.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	if !IsSupportedDriver(cfg.Driver) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	return db, nil
}
