package registry

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxPoolConnector adapts *pgxpool.Pool to PoolConnector.
type pgxPoolConnector struct {
	pool *pgxpool.Pool
}

func (w *pgxPoolConnector) Ping(ctx context.Context) error {
	return w.pool.Ping(ctx)
}

func (w *pgxPoolConnector) Close() error {
	w.pool.Close()
	return nil
}

func (w *pgxPoolConnector) Engine() Engine {
	return EnginePostgres
}

func (w *pgxPoolConnector) Stat() PoolStats {
	s := w.pool.Stat()
	return PoolStats{
		Engine:   EnginePostgres,
		MaxConns: s.MaxConns(),
		Open:     s.TotalConns(),
		Idle:     s.IdleConns(),
	}
}

// sqlPoolConnector adapts *sql.DB to PoolConnector for the engines that
// pool through database/sql (MySQL, SQLite, SQL Server).
type sqlPoolConnector struct {
	db     *sql.DB
	engine Engine
}

func (w *sqlPoolConnector) Ping(ctx context.Context) error {
	return w.db.PingContext(ctx)
}

func (w *sqlPoolConnector) Close() error {
	return w.db.Close()
}

func (w *sqlPoolConnector) Engine() Engine {
	return w.engine
}

func (w *sqlPoolConnector) Stat() PoolStats {
	s := w.db.Stats()
	return PoolStats{
		Engine:   w.engine,
		MaxConns: int32(s.MaxOpenConnections),
		Open:     int32(s.OpenConnections),
		Idle:     int32(s.Idle),
	}
}

var (
	_ PoolConnector = (*pgxPoolConnector)(nil)
	_ PoolConnector = (*sqlPoolConnector)(nil)
)
