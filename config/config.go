package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// File names looked up by LoadConfig
const (
	ServerConfigFile  = "server.defaults.yml"
	JournalConfigFile = "journal.defaults.yml"
)

// Config represents the complete application configuration
type Config struct {
	Server  *ServerConfig
	Journal *JournalConfig
}

// LoadConfig loads all configuration files present in a directory
func LoadConfig(configDir string) (*Config, error) {
	absDir, err := filepath.Abs(configDir)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of config directory: %w", err)
	}

	config := &Config{}

	serverPath := filepath.Join(absDir, ServerConfigFile)
	if _, err := os.Stat(serverPath); err == nil {
		serverCfg, err := LoadServerConfig(serverPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load server config: %w", err)
		}
		config.Server = serverCfg
	}

	journalPath := filepath.Join(absDir, JournalConfigFile)
	if _, err := os.Stat(journalPath); err == nil {
		journalCfg, err := LoadJournalConfig(journalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load journal config: %w", err)
		}
		config.Journal = journalCfg
	}

	return config, nil
}
