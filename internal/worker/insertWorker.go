// Package worker writes links to the store in the background when the
// service answers shorten requests before the insert completes.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/metrics"
	"github.com/atinyakov/shortlink/internal/storage"
)

// ErrStopped is returned by Enqueue after Stop.
var ErrStopped = errors.New("insert worker stopped")

const defaultWriteTimeout = 3 * time.Second

type Repo interface {
	Insert(context.Context, storage.Link) error
}

// InsertWorker keeps every queued link in a pending index until its write
// finishes, so lookups and new reservations see links the store has not
// received yet.
type InsertWorker struct {
	in      chan storage.Link
	done    chan struct{}
	logger  *zap.Logger
	repo    Repo
	timeout time.Duration

	mu      sync.RWMutex
	stopped bool

	pendingMu sync.Mutex
	byID      map[string]storage.Link
	byURL     map[string]string
}

// NewInsertWorker creates a worker with room for size pending links.
func NewInsertWorker(logger *zap.Logger, repo Repo, size int) *InsertWorker {
	return &InsertWorker{
		in:      make(chan storage.Link, size),
		done:    make(chan struct{}),
		logger:  logger,
		repo:    repo,
		timeout: defaultWriteTimeout,
		byID:    make(map[string]storage.Link),
		byURL:   make(map[string]string),
	}
}

// Enqueue blocks until the link is queued, ctx is done or the worker stops.
// It returns storage.ErrURLConflict or storage.ErrIDConflict when a pending
// link already holds the URL or the identifier.
func (w *InsertWorker) Enqueue(ctx context.Context, link storage.Link) error {
	if err := w.reserve(link); err != nil {
		return err
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		w.release(link)
		return ErrStopped
	}

	select {
	case w.in <- link:
		metrics.InsertQueueLength.Inc()
		return nil
	case <-ctx.Done():
		w.release(link)
		return ctx.Err()
	}
}

func (w *InsertWorker) reserve(link storage.Link) error {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if _, ok := w.byURL[link.OriginalURL]; ok {
		return storage.ErrURLConflict
	}
	if _, ok := w.byID[link.ID]; ok {
		return storage.ErrIDConflict
	}
	w.byID[link.ID] = link
	w.byURL[link.OriginalURL] = link.ID
	return nil
}

func (w *InsertWorker) release(link storage.Link) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	delete(w.byID, link.ID)
	delete(w.byURL, link.OriginalURL)
}

// FindByID returns a link that is queued but not written yet.
func (w *InsertWorker) FindByID(_ context.Context, id string) (*storage.Link, error) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	link, ok := w.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &link, nil
}

// FindByOriginal returns the pending link for originalURL.
func (w *InsertWorker) FindByOriginal(_ context.Context, originalURL string) (*storage.Link, error) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	id, ok := w.byURL[originalURL]
	if !ok {
		return nil, storage.ErrNotFound
	}
	link := w.byID[id]
	return &link, nil
}

// Pending is the number of links not written yet.
func (w *InsertWorker) Pending() int {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	return len(w.byID)
}

// Run writes queued links until Stop is called and the queue is empty.
// Writes are not cancelled with ctx so that shutdown drains the queue.
func (w *InsertWorker) Run(ctx context.Context) {
	defer close(w.done)

	base := context.WithoutCancel(ctx)
	for link := range w.in {
		metrics.InsertQueueLength.Dec()
		w.write(base, link)
	}
	w.logger.Info("insert worker drained")
}

func (w *InsertWorker) write(ctx context.Context, link storage.Link) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	defer w.release(link)

	err := w.repo.Insert(ctx, link)
	if err == nil {
		metrics.LinksCreated.Inc()
		return
	}

	metrics.InsertFailures.Inc()
	if errors.Is(err, storage.ErrConflict) {
		w.logger.Warn("background insert conflicted", zap.String("id", link.ID), zap.String("url", link.OriginalURL), zap.Error(err))
		return
	}
	w.logger.Error("background insert failed", zap.String("id", link.ID), zap.Error(err))
}

// Stop closes the queue and waits for Run to write what is left, or for
// ctx to expire.
func (w *InsertWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.in)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
