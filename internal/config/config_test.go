package config

import (
	"os"
	"path/filepath"
	"testing"

	"guestbook/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guestbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost:3000", cfg.Addr)
	assert.Equal(t, store.BackendFile, cfg.Backend)
	assert.Equal(t, "storage/data.json", cfg.DataFile)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, "addr: 0.0.0.0:8080\nbackend: redis\nredis_addr: cache:6379\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, store.BackendRedis, cfg.Backend)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, "static", cfg.Root, "unset keys keep defaults")
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "addr: [unterminated"))
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Load(writeConfig(t, "backend: postgres\n"))
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"empty addr", func(c *Config) { c.Addr = "" }, false},
		{"file without path", func(c *Config) { c.DataFile = "" }, false},
		{"badger", func(c *Config) { c.Backend = store.BackendBadger }, true},
		{"sqlite without path", func(c *Config) { c.Backend = store.BackendSQLite; c.SQLitePath = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestStoreOptions(t *testing.T) {
	cfg := Default()
	cfg.Backend = store.BackendSQLite

	opts := cfg.StoreOptions()
	assert.Equal(t, store.BackendSQLite, opts.Backend)
	assert.Equal(t, cfg.SQLitePath, opts.SQLitePath)
}
