package config

import (
	"errors"
	"fmt"
	"os"

	"guestbook/internal/store"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

// Config holds everything the server needs to start.
type Config struct {
	Addr       string `yaml:"addr"`
	Root       string `yaml:"root"`
	Backend    string `yaml:"backend"`
	DataFile   string `yaml:"data_file"`
	BadgerPath string `yaml:"badger_path"`
	RedisAddr  string `yaml:"redis_addr"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Default matches the layout of a fresh checkout: pages under static/ and
// the message document under storage/.
func Default() Config {
	return Config{
		Addr:       "localhost:3000",
		Root:       "static",
		Backend:    store.BackendFile,
		DataFile:   "storage/data.json",
		BadgerPath: "storage/badger",
		RedisAddr:  "localhost:6379",
		SQLitePath: "storage/messages.db",
	}
}

// Load overlays the YAML file at path onto Default. Keys absent from the
// file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that the selected backend is known and located.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is empty", ErrInvalid)
	}

	var location string
	switch c.Backend {
	case store.BackendFile:
		location = c.DataFile
	case store.BackendBadger:
		location = c.BadgerPath
	case store.BackendRedis:
		location = c.RedisAddr
	case store.BackendSQLite:
		location = c.SQLitePath
	default:
		return fmt.Errorf("%w: backend %q", ErrInvalid, c.Backend)
	}
	if location == "" {
		return fmt.Errorf("%w: no location set for backend %q", ErrInvalid, c.Backend)
	}
	return nil
}

// StoreOptions converts the config into store.Open arguments.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Backend:    c.Backend,
		DataFile:   c.DataFile,
		BadgerPath: c.BadgerPath,
		RedisAddr:  c.RedisAddr,
		SQLitePath: c.SQLitePath,
	}
}
