package registry

import (
	"fmt"
	"net/url"

	"github.com/dbfleet/dbfleet/pkg/logging"
)

// ConnectionConfig is an immutable description of one logical database
// connection. Build it with NewConnectionConfig; a validated config is
// the only input the registry accepts.
type ConnectionConfig struct {
	name     string
	engine   Engine
	database string
	hostURL  string
	schema   string
	maxConns int32
	options  map[string]string
}

// NewConnectionConfig validates the seven attributes and returns an
// immutable config. The schema field is only accepted for engines with
// per-pool schema support (Postgres); supplying it for any other engine
// is rejected rather than silently ignored.
func NewConnectionConfig(name string, engine Engine, database, hostURL, schema string, maxConns int32, options map[string]string) (ConnectionConfig, error) {
	cfg := ConnectionConfig{
		name:     name,
		engine:   engine,
		database: database,
		hostURL:  hostURL,
		schema:   schema,
		maxConns: maxConns,
	}
	if len(options) > 0 {
		cfg.options = make(map[string]string, len(options))
		for k, v := range options {
			cfg.options[k] = v
		}
	}
	if err := cfg.validate(); err != nil {
		return ConnectionConfig{}, err
	}
	return cfg, nil
}

func (c ConnectionConfig) validate() error {
	if c.name == "" {
		return &ConfigError{Field: "name", Reason: "must not be empty"}
	}
	if !c.engine.Valid() {
		return &ConfigError{Name: c.name, Field: "engine", Reason: fmt.Sprintf("unsupported engine %q", string(c.engine))}
	}
	if c.hostURL == "" {
		return &ConfigError{Name: c.name, Field: "host_url", Reason: "must not be empty"}
	}
	if c.maxConns < 1 {
		return &ConfigError{Name: c.name, Field: "max_connections", Reason: "must be at least 1"}
	}
	if c.schema != "" && !c.engine.SupportsSchema() {
		return &ConfigError{Name: c.name, Field: "schema", Reason: fmt.Sprintf("engine %s does not support schema selection", c.engine)}
	}
	// An in-memory SQLite database has no file name to require.
	if c.database == "" && !(c.engine == EngineSQLite && c.hostURL == sqliteMemoryDSN) {
		return &ConfigError{Name: c.name, Field: "database", Reason: "must not be empty"}
	}
	return nil
}

// Name returns the unique logical name used for lookup.
func (c ConnectionConfig) Name() string { return c.name }

// Engine returns the engine kind this config targets.
func (c ConnectionConfig) Engine() Engine { return c.engine }

// Database returns the target database or catalog name. For SQLite this
// is the database file name.
func (c ConnectionConfig) Database() string { return c.database }

// HostURL returns the driver-format server URL. For SQLite it is a
// directory prefix or ":memory:".
func (c ConnectionConfig) HostURL() string { return c.hostURL }

// Schema returns the schema to select, or "" when unset.
func (c ConnectionConfig) Schema() string { return c.schema }

// MaxConns returns the ceiling on pooled physical connections.
func (c ConnectionConfig) MaxConns() int32 { return c.maxConns }

// Options returns a copy of the engine-specific options.
func (c ConnectionConfig) Options() map[string]string {
	if len(c.options) == 0 {
		return nil
	}
	out := make(map[string]string, len(c.options))
	for k, v := range c.options {
		out[k] = v
	}
	return out
}

const sqliteMemoryDSN = ":memory:"

// DSN derives the connection string the engine's driver dials with.
// Options pass through unmodified as query parameters; the registry
// never interprets their keys.
func (c ConnectionConfig) DSN() string {
	switch c.engine {
	case EnginePostgres, EngineMySQL:
		dsn := c.hostURL + "/" + c.database
		if q := c.encodeOptions(); q != "" {
			dsn += "?" + q
		}
		return dsn
	case EngineSQLite:
		if c.hostURL == sqliteMemoryDSN {
			return sqliteMemoryDSN
		}
		dsn := c.hostURL + c.database
		if q := c.encodeOptions(); q != "" {
			dsn += "?" + q
		}
		return dsn
	case EngineSQLServer:
		q := url.Values{}
		q.Set("database", c.database)
		for k, v := range c.options {
			q.Set(k, v)
		}
		return c.hostURL + "?" + q.Encode()
	}
	return ""
}

// searchPath returns the Postgres search_path value for this config,
// matching the server's default resolution order after the selected
// schema. Empty when no schema is configured.
func (c ConnectionConfig) searchPath() string {
	if c.schema == "" {
		return ""
	}
	return c.schema + `,"$user",public`
}

func (c ConnectionConfig) encodeOptions() string {
	if len(c.options) == 0 {
		return ""
	}
	q := url.Values{}
	for k, v := range c.options {
		q.Set(k, v)
	}
	return q.Encode()
}

// String renders a loggable description. The host URL is sanitized so
// credentials never end up in logs.
func (c ConnectionConfig) String() string {
	return fmt.Sprintf("connection %q engine=%s database=%s host=%s schema=%q max_conns=%d",
		c.name, c.engine, c.database, logging.SanitizeConnectionString(c.hostURL), c.schema, c.maxConns)
}
