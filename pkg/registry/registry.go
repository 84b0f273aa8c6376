// Package registry holds pooled connections to many independent
// databases, possibly spanning engines, hosts and schemas, and hands
// them out by stable logical name. A Registry is built once from a
// finalized list of ConnectionConfigs, eagerly opening one pool per
// config, and is immutable afterwards: lookups need no locking and the
// name-to-pool mapping never changes until Close.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dbfleet/dbfleet/pkg/logging"
)

// Registry maps logical connection names to live, engine-typed pools.
type Registry struct {
	logger *zap.Logger

	// engines records which engine every known name belongs to; it is
	// the global-uniqueness table consulted before any typed map.
	engines map[string]Engine

	pg        map[string]*pgxpool.Pool
	mysql     map[string]*sql.DB
	sqlite    map[string]*sql.DB
	sqlserver map[string]*sql.DB

	// conns mirrors the typed maps through PoolConnector for uniform
	// ping, stats and teardown.
	conns map[string]PoolConnector

	closeOnce sync.Once
}

// New validates configs, eagerly builds one pool per config and returns
// a ready registry. Construction is all-or-nothing: the first duplicate
// name or pool failure aborts, closes every pool already built and
// returns a nil registry. A nil logger disables logging.
func New(ctx context.Context, configs []ConnectionConfig, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Duplicate scan happens up front so a collision never opens a
	// single connection to either backend.
	seen := make(map[string]struct{}, len(configs))
	for _, cfg := range configs {
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[cfg.Name()]; dup {
			return nil, &DuplicateNameError{Name: cfg.Name()}
		}
		seen[cfg.Name()] = struct{}{}
	}

	r := &Registry{
		logger:    logger,
		engines:   make(map[string]Engine, len(configs)),
		pg:        make(map[string]*pgxpool.Pool),
		mysql:     make(map[string]*sql.DB),
		sqlite:    make(map[string]*sql.DB),
		sqlserver: make(map[string]*sql.DB),
		conns:     make(map[string]PoolConnector, len(configs)),
	}

	for _, cfg := range configs {
		if err := r.buildPool(ctx, cfg); err != nil {
			r.rollback()
			return nil, err
		}
		r.logger.Info("built connection pool",
			zap.String("name", cfg.Name()),
			zap.String("engine", cfg.Engine().String()),
			zap.String("host", logging.SanitizeConnectionString(cfg.HostURL())),
			zap.Int32("maxConns", cfg.MaxConns()),
		)
	}

	return r, nil
}

func (r *Registry) buildPool(ctx context.Context, cfg ConnectionConfig) error {
	switch cfg.Engine() {
	case EnginePostgres:
		pool, err := buildPostgresPool(ctx, cfg)
		if err != nil {
			return r.buildFailed(cfg, err)
		}
		r.pg[cfg.Name()] = pool
		r.conns[cfg.Name()] = &pgxPoolConnector{pool: pool}
	case EngineMySQL:
		db, err := buildSQLPool(ctx, "mysql", cfg)
		if err != nil {
			return r.buildFailed(cfg, err)
		}
		r.mysql[cfg.Name()] = db
		r.conns[cfg.Name()] = &sqlPoolConnector{db: db, engine: EngineMySQL}
	case EngineSQLite:
		db, err := buildSQLPool(ctx, "sqlite", cfg)
		if err != nil {
			return r.buildFailed(cfg, err)
		}
		r.sqlite[cfg.Name()] = db
		r.conns[cfg.Name()] = &sqlPoolConnector{db: db, engine: EngineSQLite}
	case EngineSQLServer:
		db, err := buildSQLPool(ctx, "sqlserver", cfg)
		if err != nil {
			return r.buildFailed(cfg, err)
		}
		r.sqlserver[cfg.Name()] = db
		r.conns[cfg.Name()] = &sqlPoolConnector{db: db, engine: EngineSQLServer}
	}
	r.engines[cfg.Name()] = cfg.Engine()
	return nil
}

func (r *Registry) buildFailed(cfg ConnectionConfig, err error) error {
	r.logger.Error("failed to build connection pool",
		zap.String("name", cfg.Name()),
		zap.String("engine", cfg.Engine().String()),
		zap.String("error", logging.SanitizeError(err)),
	)
	return &PoolBuildError{Name: cfg.Name(), Engine: cfg.Engine(), Err: err}
}

// rollback closes the pools built before a construction failure so a
// failed New never leaks connections.
func (r *Registry) rollback() {
	for name, conn := range r.conns {
		if err := conn.Close(); err != nil {
			r.logger.Warn("failed to close pool during rollback",
				zap.String("name", name),
				zap.String("error", logging.SanitizeError(err)),
			)
		}
	}
}

// lookup enforces the unknown-name / wrong-engine distinction shared by
// every typed accessor.
func (r *Registry) lookup(name string, requested Engine) error {
	actual, ok := r.engines[name]
	if !ok {
		return &UnknownConnectionError{Name: name}
	}
	if actual != requested {
		return &EngineMismatchError{Name: name, Requested: requested, Actual: actual}
	}
	return nil
}

// Postgres returns the pgx pool registered under name. The same pool
// instance is returned on every call.
func (r *Registry) Postgres(name string) (*pgxpool.Pool, error) {
	if err := r.lookup(name, EnginePostgres); err != nil {
		return nil, err
	}
	return r.pg[name], nil
}

// MySQL returns the database/sql pool registered under name.
func (r *Registry) MySQL(name string) (*sql.DB, error) {
	if err := r.lookup(name, EngineMySQL); err != nil {
		return nil, err
	}
	return r.mysql[name], nil
}

// SQLite returns the database/sql pool registered under name.
func (r *Registry) SQLite(name string) (*sql.DB, error) {
	if err := r.lookup(name, EngineSQLite); err != nil {
		return nil, err
	}
	return r.sqlite[name], nil
}

// SQLServer returns the database/sql pool registered under name.
func (r *Registry) SQLServer(name string) (*sql.DB, error) {
	if err := r.lookup(name, EngineSQLServer); err != nil {
		return nil, err
	}
	return r.sqlserver[name], nil
}

// Names returns every registered logical name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EngineOf returns the engine a name was registered under.
func (r *Registry) EngineOf(name string) (Engine, error) {
	engine, ok := r.engines[name]
	if !ok {
		return "", &UnknownConnectionError{Name: name}
	}
	return engine, nil
}

// Ping verifies every pool can still reach its database. The first
// failure is returned wrapped with the offending name.
func (r *Registry) Ping(ctx context.Context) error {
	for _, name := range r.Names() {
		if err := r.conns[name].Ping(ctx); err != nil {
			return fmt.Errorf("ping connection %q: %w", name, err)
		}
	}
	return nil
}

// Close releases every pool exactly once. Safe to call multiple times.
// Callers must not hold checked-out connections across Close.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		for name, conn := range r.conns {
			if err := conn.Close(); err != nil {
				r.logger.Warn("failed to close pool",
					zap.String("name", name),
					zap.String("error", logging.SanitizeError(err)),
				)
			}
		}
		r.logger.Info("connection registry closed", zap.Int("pools", len(r.conns)))
	})
}
