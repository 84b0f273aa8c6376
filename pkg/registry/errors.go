package registry

import "fmt"

// ConfigError reports a malformed ConnectionConfig. It is returned by
// NewConnectionConfig before any pool is built.
type ConfigError struct {
	Name   string // logical connection name, may be empty when the name itself is invalid
	Field  string // offending field, e.g. "name", "max_connections", "schema"
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid connection config: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid connection config %q: %s: %s", e.Name, e.Field, e.Reason)
}

// DuplicateNameError reports two configs sharing a logical name. The
// name is the first duplicate encountered in input order.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate connection name %q", e.Name)
}

// PoolBuildError reports that the driver failed to initialize a pool for
// one config. Registry construction aborts and rolls back on the first
// such failure.
type PoolBuildError struct {
	Name   string
	Engine Engine
	Err    error
}

func (e *PoolBuildError) Error() string {
	return fmt.Sprintf("failed to build %s pool for connection %q: %v", e.Engine, e.Name, e.Err)
}

func (e *PoolBuildError) Unwrap() error {
	return e.Err
}

// UnknownConnectionError reports a lookup for a name no config was ever
// supplied for.
type UnknownConnectionError struct {
	Name string
}

func (e *UnknownConnectionError) Error() string {
	return fmt.Sprintf("unknown connection name %q", e.Name)
}

// EngineMismatchError reports a lookup through the accessor of one
// engine for a name that was registered under another. Kept distinct
// from UnknownConnectionError so callers can tell a typo from a
// misconfigured tenant.
type EngineMismatchError struct {
	Name      string
	Requested Engine
	Actual    Engine
}

func (e *EngineMismatchError) Error() string {
	return fmt.Sprintf("connection %q is a %s connection, not %s", e.Name, e.Actual, e.Requested)
}
