// Package config loads registry connection definitions from a YAML
// file with environment-variable overrides. It is a convenience for
// embedding applications; the registry itself only ever sees the
// resulting ConnectionConfig values.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/dbfleet/dbfleet/pkg/registry"
)

// Config is the root of a dbfleet configuration file.
type Config struct {
	Defaults    Defaults     `yaml:"defaults"`
	Connections []Connection `yaml:"connections"`
}

// Defaults apply to connections that leave the matching field unset.
type Defaults struct {
	// MaxConnections is the pool ceiling used when a connection does
	// not set its own.
	MaxConnections int32 `yaml:"max_connections" env:"DBFLEET_DEFAULT_MAX_CONNECTIONS" env-default:"10"`
}

// Connection is one logical connection entry. Host URLs may reference
// environment variables with ${VAR} so credentials stay out of the
// file; they are expanded at load time.
type Connection struct {
	Name           string            `yaml:"name"`
	Engine         string            `yaml:"engine"`
	Database       string            `yaml:"database"`
	HostURL        string            `yaml:"host_url"`
	Schema         string            `yaml:"schema"`
	MaxConnections int32             `yaml:"max_connections"`
	Options        map[string]string `yaml:"options"`
}

// Load reads the configuration file at path and applies environment
// overrides.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if len(cfg.Connections) == 0 {
		return nil, fmt.Errorf("config %s defines no connections", path)
	}
	return &cfg, nil
}

// ConnectionConfigs converts the file entries into validated registry
// configs, applying defaults and expanding ${VAR} references in host
// URLs. The first invalid entry aborts with its validation error.
func (c *Config) ConnectionConfigs() ([]registry.ConnectionConfig, error) {
	out := make([]registry.ConnectionConfig, 0, len(c.Connections))
	for _, conn := range c.Connections {
		maxConns := conn.MaxConnections
		if maxConns == 0 {
			maxConns = c.Defaults.MaxConnections
		}
		cfg, err := registry.NewConnectionConfig(
			conn.Name,
			registry.Engine(conn.Engine),
			conn.Database,
			os.ExpandEnv(conn.HostURL),
			conn.Schema,
			maxConns,
			conn.Options,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}
