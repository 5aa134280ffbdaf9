package store

import (
	"context"
	"errors"

	"guestbook/internal/model"
)

var (
	ErrUnknownBackend = errors.New("unknown store backend")
)

// Store persists guestbook messages keyed by timestamp.
type Store interface {
	// Append inserts the message at ts, overwriting any entry already there.
	Append(ctx context.Context, ts string, msg model.Message) error
	// List returns every entry in ascending timestamp order.
	List(ctx context.Context) ([]model.Entry, error)
	Close() error
}
