package config

import (
	"fmt"
	"strings"
)

// DatabaseConfig defines the unified database configuration structure
// This is used by both the API server and the journal worker
type DatabaseConfig struct {
	DSN            string `yaml:"dsn" json:"dsn"`                         // PostgreSQL connection string, or memory://
	MaxConnections int    `yaml:"max_connections" json:"max_connections"` // Maximum number of connections
	MinConnections int    `yaml:"min_connections" json:"min_connections"` // Minimum number of connections
	MaxIdleTime    string `yaml:"max_idle_time" json:"max_idle_time"`     // Maximum time a connection can be idle
	MaxLifetime    string `yaml:"max_lifetime" json:"max_lifetime"`       // Maximum lifetime of a connection
	ConnectTimeout string `yaml:"connect_timeout" json:"connect_timeout"` // Dial timeout for new connections
	FailFast       bool   `yaml:"fail_fast" json:"fail_fast"`             // Exit when the database is unreachable at startup
}

// SetDefaults sets sensible default values for the database configuration
func (c *DatabaseConfig) SetDefaults() {
	if c.MaxConnections <= 0 {
		c.MaxConnections = 10
		fmt.Printf("Warning: database.max_connections not set or invalid, defaulting to %d\n", c.MaxConnections)
	}
	if c.MinConnections < 0 {
		c.MinConnections = 0
		fmt.Printf("Warning: database.min_connections invalid, defaulting to %d\n", c.MinConnections)
	}
	if c.MaxIdleTime == "" {
		c.MaxIdleTime = "30m"
		fmt.Printf("Warning: database.max_idle_time not set, defaulting to %s\n", c.MaxIdleTime)
	}
	if c.MaxLifetime == "" {
		c.MaxLifetime = "1h"
		fmt.Printf("Warning: database.max_lifetime not set, defaulting to %s\n", c.MaxLifetime)
	}
	if c.ConnectTimeout == "" {
		c.ConnectTimeout = "5s"
		fmt.Printf("Warning: database.connect_timeout not set, defaulting to %s\n", c.ConnectTimeout)
	}
}

// Validate validates the database configuration
func (c *DatabaseConfig) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("database max_connections must be positive")
	}
	if c.MinConnections < 0 {
		return fmt.Errorf("database min_connections cannot be negative")
	}
	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min_connections (%d) cannot be greater than max_connections (%d)",
			c.MinConnections, c.MaxConnections)
	}
	return nil
}

// IsMemory reports whether the in-process store is selected
func (c *DatabaseConfig) IsMemory() bool {
	return strings.HasPrefix(c.DSN, "memory://")
}

// LogConfiguration logs the database configuration (excluding sensitive DSN)
func (c *DatabaseConfig) LogConfiguration() {
	fmt.Printf("Database Configuration:\n")
	fmt.Printf("  Max Connections: %d\n", c.MaxConnections)
	fmt.Printf("  Min Connections: %d\n", c.MinConnections)
	fmt.Printf("  Max Idle Time: %s\n", c.MaxIdleTime)
	fmt.Printf("  Max Lifetime: %s\n", c.MaxLifetime)
	fmt.Printf("  Fail Fast: %t\n", c.FailFast)
	if c.IsMemory() {
		fmt.Printf("  DSN: memory://\n")
	} else {
		fmt.Printf("  DSN: [configured]\n") // Don't log the actual DSN for security
	}
}
