package config

import (
	"errors"
	"os"
	"path/filepath"
)

// Discover finds and loads the nearest .arbor.yaml above the current
// directory. With no file found it returns Default.
func Discover() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		cfg := Default()
		return &cfg, nil
	}
	path, ok := findConfig(dir)
	if !ok {
		cfg := Default()
		return &cfg, nil
	}
	return Load(path)
}

// LoadOrDiscover loads path when set, otherwise discovers a config file.
func LoadOrDiscover(path string) (*Config, error) {
	if path == "" {
		return Discover()
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.New("config file " + path + " does not exist")
	}
	return cfg, err
}

// findConfig walks up from dir looking for a .arbor.yaml file.
func findConfig(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}
