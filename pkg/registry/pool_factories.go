package registry

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dbfleet/dbfleet/pkg/retry"

	_ "github.com/go-sql-driver/mysql"  // registers the "mysql" driver
	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver
	_ "modernc.org/sqlite"              // registers the "sqlite" driver
)

// buildPostgresPool creates a pgx pool for one config and verifies it
// with a ping so bad credentials or an unreachable host fail at registry
// construction, not on first use.
func buildPostgresPool(ctx context.Context, cfg ConnectionConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = cfg.MaxConns()
	if sp := cfg.searchPath(); sp != "" {
		poolConfig.ConnConfig.RuntimeParams["search_path"] = sp
	}

	pool, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*pgxpool.Pool, error) {
		return pgxpool.NewWithConfig(ctx, poolConfig)
	})
	if err != nil {
		return nil, err
	}
	if err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		return pool.Ping(ctx)
	}); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// buildSQLPool creates a database/sql pool for the engines without a
// dedicated pool library. sql.Open is lazy, so the ping is what makes
// construction fail-fast.
func buildSQLPool(ctx context.Context, driverName string, cfg ConnectionConfig) (*sql.DB, error) {
	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(int(cfg.MaxConns()))
	db.SetMaxIdleConns(int(cfg.MaxConns()))

	if err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		return db.PingContext(ctx)
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
