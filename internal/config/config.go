package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional siteup configuration file. Every field
// is a pointer so unset values can be told apart from zero values when
// merging under CLI flags.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
}

// DefaultsConfig holds persistent flag defaults.
type DefaultsConfig struct {
	Host      *string `toml:"host"`
	Port      *int    `toml:"port"`
	User      *string `toml:"user"`
	Password  *string `toml:"password"`
	RemoteDir *string `toml:"remote_dir"`
	Exclude   *string `toml:"exclude"`
	TLS       *bool   `toml:"tls"`
	Entry     *string `toml:"entry"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "siteup", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads a config file from an explicit path.
func LoadFrom(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}

	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	return cfg, nil
}
