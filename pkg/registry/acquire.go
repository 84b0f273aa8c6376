package registry

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The Acquire helpers combine a typed lookup with the pool's own
// checkout. Acquire errors (exhaustion, context deadline) come from the
// pooling layer and are propagated unmodified. Every returned
// connection must be released back to its pool before the registry is
// closed.

// AcquirePostgres checks a single connection out of the named Postgres
// pool. Release it with conn.Release().
func (r *Registry) AcquirePostgres(ctx context.Context, name string) (*pgxpool.Conn, error) {
	pool, err := r.Postgres(name)
	if err != nil {
		return nil, err
	}
	return pool.Acquire(ctx)
}

// AcquireMySQL checks a single connection out of the named MySQL pool.
// Release it with conn.Close().
func (r *Registry) AcquireMySQL(ctx context.Context, name string) (*sql.Conn, error) {
	db, err := r.MySQL(name)
	if err != nil {
		return nil, err
	}
	return db.Conn(ctx)
}

// AcquireSQLite checks a single connection out of the named SQLite pool.
// Release it with conn.Close().
func (r *Registry) AcquireSQLite(ctx context.Context, name string) (*sql.Conn, error) {
	db, err := r.SQLite(name)
	if err != nil {
		return nil, err
	}
	return db.Conn(ctx)
}

// AcquireSQLServer checks a single connection out of the named SQL
// Server pool. Release it with conn.Close().
func (r *Registry) AcquireSQLServer(ctx context.Context, name string) (*sql.Conn, error) {
	db, err := r.SQLServer(name)
	if err != nil {
		return nil, err
	}
	return db.Conn(ctx)
}
