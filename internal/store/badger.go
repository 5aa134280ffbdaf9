package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"guestbook/internal/model"

	"github.com/dgraph-io/badger/v4"
)

const (
	badgerPrefix = "message:"
	gcInterval   = 5 * time.Minute
)

// BadgerStore keeps one key per message. Badger iterates keys in byte order,
// which for fixed-width timestamps is chronological.
type BadgerStore struct {
	db   *badger.DB
	stop chan struct{}
}

// NewBadgerStore opens (or creates) a Badger database at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Silence default logger
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	s := &BadgerStore{db: db, stop: make(chan struct{})}
	go s.collectGarbage(gcInterval)
	return s, nil
}

// collectGarbage reclaims value log space until Close.
func (s *BadgerStore) collectGarbage(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing worth collecting.
			for s.db.RunValueLogGC(0.7) == nil {
			}
		case <-s.stop:
			return
		}
	}
}

func (s *BadgerStore) Append(_ context.Context, ts string, msg model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerPrefix+ts), data)
	})
}

func (s *BadgerStore) List(_ context.Context) ([]model.Entry, error) {
	var entries []model.Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			ts := strings.TrimPrefix(string(item.Key()), badgerPrefix)
			err := item.Value(func(val []byte) error {
				var msg model.Message
				if err := json.Unmarshal(val, &msg); err != nil {
					return fmt.Errorf("decode %s: %w", ts, err)
				}
				entries = append(entries, model.Entry{Timestamp: ts, Message: msg})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *BadgerStore) Close() error {
	if s.stop != nil {
		close(s.stop)
	}
	return s.db.Close()
}
