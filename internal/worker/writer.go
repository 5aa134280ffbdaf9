package worker

import (
	"context"
	"errors"
	"time"

	"guestbook/internal/model"
	"guestbook/internal/store"

	"go.uber.org/zap"
)

var ErrStopped = errors.New("writer stopped")

type job struct {
	msg   model.Message
	reply chan result
}

type result struct {
	ts  string
	err error
}

// Writer is the single owner of store mutations. Every Submit is applied by
// the Start loop, one at a time, in arrival order.
type Writer struct {
	store  store.Store
	logger *zap.Logger
	jobs   chan job
	done   chan struct{}
	now    func() time.Time
	last   time.Time
}

// NewWriter initializes the writer. Call Start before Submit.
func NewWriter(st store.Store, logger *zap.Logger) *Writer {
	return &Writer{
		store:  st,
		logger: logger,
		jobs:   make(chan job),
		done:   make(chan struct{}),
		now:    time.Now,
	}
}

// Start runs the writer loop until ctx is cancelled.
func (w *Writer) Start(ctx context.Context) {
	defer close(w.done)
	w.logger.Info("Writer started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Writer shutting down")
			return
		case j := <-w.jobs:
			ts, err := w.apply(ctx, j.msg)
			j.reply <- result{ts: ts, err: err}
		}
	}
}

// Submit persists msg and returns the timestamp it was stored under.
func (w *Writer) Submit(ctx context.Context, msg model.Message) (string, error) {
	j := job{msg: msg, reply: make(chan result, 1)}

	select {
	case w.jobs <- j:
	case <-w.done:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}

	// Once accepted the job always gets a reply.
	res := <-j.reply
	return res.ts, res.err
}

func (w *Writer) apply(ctx context.Context, msg model.Message) (string, error) {
	ts := model.FormatTimestamp(w.next())
	logger := w.logger.With(zap.String("timestamp", ts))

	if err := w.store.Append(ctx, ts, msg); err != nil {
		logger.Error("Append failed", zap.Error(err))
		return "", err
	}

	logger.Debug("Message stored", zap.String("username", msg.Username))
	return ts, nil
}

// next returns a clock reading strictly after every one handed out before,
// at the resolution of model.TimestampLayout.
func (w *Writer) next() time.Time {
	t := w.now().Truncate(time.Microsecond)
	if !t.After(w.last) {
		t = w.last.Add(time.Microsecond)
	}
	w.last = t
	return t
}
