package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from the specified file path. Fields the
// file leaves out keep their Default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file '%s': %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file '%s': %w", path, err)
	}
	return cfg, nil
}

// LoadBootstrapConfig loads keyboard_teleop.yaml from configDir. A missing
// file is not an error: the defaults are returned and found is false.
func LoadBootstrapConfig(configDir string) (cfg *Config, found bool, err error) {
	path := filepath.Join(configDir, ConfigFileName)

	cfg, err = LoadConfig(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}
