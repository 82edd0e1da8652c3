package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// config is the demo's only configuration surface: which SQLite file
// to open and which vault backend to use. Not a general-purpose
// config system, just enough to keep the hard-coded defaults out of
// main.
type config struct {
	DatabasePath string `yaml:"database_path"`
	VaultVariant string `yaml:"vault_variant"`
	CreatorID    string `yaml:"creator_id"`
	DisplayName  string `yaml:"display_name"`
}

func defaultConfig() config {
	return config{
		DatabasePath: "creatorledger-demo.db",
		VaultVariant: "auto",
		CreatorID:    "demo-creator",
		DisplayName:  "Demo Creator",
	}
}

// loadConfig reads path if it exists, falling back to defaults
// untouched when it does not — the demo should run with zero setup.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("creatorledgerdemo: failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("creatorledgerdemo: failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
