package registry

import "context"

// PoolConnector abstracts lifecycle operations over the per-engine pool
// types so the registry can ping, inspect and close every pool uniformly
// regardless of the driver behind it. Typed retrieval never goes through
// this interface; it exists for construction rollback, health checks and
// teardown only.
type PoolConnector interface {
	// Ping verifies the pool can still reach its database.
	Ping(ctx context.Context) error

	// Close releases every physical connection held by the pool.
	Close() error

	// Engine returns the engine kind the pool was built for.
	Engine() Engine

	// Stat reports the pool's current usage against its ceiling.
	Stat() PoolStats
}
