package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"guestbook/internal/model"
)

// FileStore keeps the whole message map in one pretty-printed JSON document.
// Every call reads the document in full, and Append rewrites it in full.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates the document (and its directory) holding "{}" if it
// does not exist yet.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	_, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		if err := writeDocument(path, map[string]model.Message{}); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return &FileStore{path: path}, nil
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Append(_ context.Context, ts string, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := readDocument(s.path)
	if err != nil {
		return err
	}
	doc[ts] = msg
	return writeDocument(s.path, doc)
}

func (s *FileStore) List(_ context.Context) ([]model.Entry, error) {
	s.mu.Lock()
	doc, err := readDocument(s.path)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	entries := make([]model.Entry, 0, len(doc))
	for ts, msg := range doc {
		entries = append(entries, model.Entry{Timestamp: ts, Message: msg})
	}
	sortEntries(entries)
	return entries, nil
}

func (s *FileStore) Close() error {
	return nil
}

func readDocument(path string) (map[string]model.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc := map[string]model.Message{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return doc, nil
}

// writeDocument replaces path atomically through a temp file in the same
// directory.
func writeDocument(path string, doc map[string]model.Message) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func sortEntries(entries []model.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	})
}
