// Package config loads the TOML configuration file shared by the client
// commands and the syncd server. A missing file is generated with
// commented defaults on first run.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/roach88/gridsync/internal/syncd"
)

// Config is the top-level configuration file layout.
type Config struct {
	DatabasePath string // path to the device's local replica database
	ServerURL    string // base URL of the syncd server; empty means offline
	DeviceToken  string // bearer token presented to the server

	Syncd syncd.Config
}

// GetDefaultConfig_Toml returns the commented default config text.
func GetDefaultConfig_Toml() string {
	return fmt.Sprintf(`# Config auto-generated on %s
DatabasePath="gridsync.db"      # Path to the local replica database
ServerURL=""                    # Base URL of the sync server; empty plays offline
DeviceToken=""                  # Device token sent as the bearer credential

[Syncd]
%s`, time.Now().Format(time.RFC3339), syncd.GetDefaultConfig_Toml())
}

// Load reads the config at path. If the file does not exist it is created
// with defaults first, so a fresh install works without any setup.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		raw = []byte(GetDefaultConfig_Toml())
		if werr := os.WriteFile(path, raw, 0600); werr != nil {
			return nil, fmt.Errorf("write default config %s: %w", path, werr)
		}
	} else if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "gridsync.db"
	}
	return &cfg, nil
}
