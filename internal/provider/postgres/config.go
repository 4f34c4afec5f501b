// Package postgres provides steps that prepare an external PostgreSQL
// instance for ThingsBoard: the application role and its database.
package postgres

import (
	"fmt"

	"github.com/groundwork-sh/groundwork/internal/validation"
)

// Config represents the postgres section of the manifest.
type Config struct {
	DSN      string // Admin connection string
	Database string
	Owner    string
	Password string // Password for the owner role when it is created
}

// ParseConfig parses the postgres configuration from a raw map.
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	cfg := &Config{}

	dsn, ok := raw["dsn"].(string)
	if !ok || dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	cfg.DSN = dsn

	database, ok := raw["database"].(string)
	if !ok || database == "" {
		return nil, fmt.Errorf("database is required")
	}
	if err := validation.ValidateIdentifier(database); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	cfg.Database = database

	owner, ok := raw["owner"].(string)
	if !ok || owner == "" {
		return nil, fmt.Errorf("owner is required")
	}
	if err := validation.ValidateIdentifier(owner); err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	cfg.Owner = owner

	if v, ok := raw["password"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("password must be a string")
		}
		cfg.Password = s
	}

	return cfg, nil
}
