package store

import "fmt"

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Options selects and locates a backend.
type Options struct {
	Backend    string
	DataFile   string
	BadgerPath string
	RedisAddr  string
	SQLitePath string
}

// Open returns the Store named by opts.Backend.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.DataFile)
	case BackendBadger:
		return NewBadgerStore(opts.BadgerPath)
	case BackendRedis:
		return NewRedisStore(opts.RedisAddr)
	case BackendSQLite:
		return NewSQLiteStore(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
