package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"guestbook/internal/model"
	"guestbook/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingStore struct {
	store.Store
}

func (failingStore) Append(context.Context, string, model.Message) error {
	return errors.New("disk full")
}

func newFileStore(t *testing.T) *store.FileStore {
	t.Helper()
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	return st
}

func startWriter(t *testing.T, st store.Store) *Writer {
	t.Helper()
	w := NewWriter(st, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)
	t.Cleanup(func() {
		cancel()
		<-w.done
	})
	return w
}

func TestWriter_Submit(t *testing.T) {
	st := newFileStore(t)
	w := startWriter(t, st)

	ts, err := w.Submit(context.Background(), model.Message{Username: "alice", Message: "hello"})
	require.NoError(t, err)

	_, err = model.ParseTimestamp(ts)
	assert.NoError(t, err, "timestamp should use the store key layout")

	entries, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ts, entries[0].Timestamp)
	assert.Equal(t, "alice", entries[0].Username)
}

func TestWriter_FrozenClockStillYieldsDistinctKeys(t *testing.T) {
	st := newFileStore(t)
	w := NewWriter(st, zap.NewNop())
	frozen := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)
	w.now = func() time.Time { return frozen }

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)
	defer func() {
		cancel()
		<-w.done
	}()

	const n = 10
	for i := 0; i < n; i++ {
		_, err := w.Submit(context.Background(), model.Message{Username: "u", Message: "m"})
		require.NoError(t, err)
	}

	entries, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, n)
	assert.Equal(t, "2024-01-01T12:00:00.000000", entries[0].Timestamp)
	assert.Equal(t, "2024-01-01T12:00:00.000009", entries[n-1].Timestamp)
}

func TestWriter_ConcurrentSubmitsAreAllKept(t *testing.T) {
	st := newFileStore(t)
	w := startWriter(t, st)

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Submit(context.Background(), model.Message{Username: "u", Message: "m"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	entries, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, n)
}

func TestWriter_PropagatesStoreError(t *testing.T) {
	w := startWriter(t, failingStore{})

	_, err := w.Submit(context.Background(), model.Message{Username: "u", Message: "m"})
	assert.EqualError(t, err, "disk full")
}

func TestWriter_SubmitAfterStop(t *testing.T) {
	w := NewWriter(newFileStore(t), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)
	cancel()
	<-w.done

	_, err := w.Submit(context.Background(), model.Message{Username: "u", Message: "m"})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestWriter_SubmitHonorsContext(t *testing.T) {
	// Never started, so nothing receives the job.
	w := NewWriter(newFileStore(t), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := w.Submit(ctx, model.Message{Username: "u", Message: "m"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
