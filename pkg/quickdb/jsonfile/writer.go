package jsonfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/calvinalkan/quickkv/pkg/fs"
	"github.com/calvinalkan/quickkv/pkg/quickdb/memory"
)

// writer owns the snapshot file. A single goroutine takes requests off the
// queue in submission order and performs one full snapshot write per
// request, so at most one write is in flight at any time.
//
// The store is exported when a write starts, not when it is enqueued. A
// write therefore always contains the mutation that requested it and maybe
// later ones.
type writer struct {
	fs     fs.FS
	path   string
	perm   os.FileMode
	indent string
	store  *memory.Store
	logger *slog.Logger

	mu     sync.Mutex
	queue  []*pending
	closed bool

	// wake has room for one token; enqueue never blocks on it.
	wake chan struct{}
	done chan struct{}
}

// pending resolves once the write it stands for has finished.
type pending struct {
	done chan struct{}
	err  error
}

// wait blocks until the write finished or ctx ends. When ctx ends first the
// write is not cancelled; it still runs and its result is dropped.
func (p *pending) wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newWriter(o Options, store *memory.Store) *writer {
	return &writer{
		fs:     o.FS,
		path:   o.Path,
		perm:   o.Perm,
		indent: o.Indent,
		store:  store,
		logger: o.Logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (w *writer) start() {
	go w.run()
}

// enqueue schedules one snapshot write.
func (w *writer) enqueue() (*pending, error) {
	p := &pending{done: make(chan struct{})}

	w.mu.Lock()

	if w.closed {
		w.mu.Unlock()

		return nil, ErrClosed
	}

	w.queue = append(w.queue, p)
	w.mu.Unlock()

	w.notify()

	return p, nil
}

// close stops accepting requests, lets the queued writes finish and waits
// for the goroutine to exit.
func (w *writer) close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.notify()
	<-w.done
}

func (w *writer) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.done)

	for {
		p, closed := w.next()
		if p == nil {
			if closed {
				return
			}

			<-w.wake

			continue
		}

		p.err = w.write()
		close(p.done)
	}
}

func (w *writer) next() (*pending, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) == 0 {
		return nil, w.closed
	}

	p := w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]

	return p, w.closed
}

// write exports the store and replaces the snapshot file atomically.
func (w *writer) write() error {
	start := time.Now()

	data, err := encodeSnapshot(w.store.Export(), w.indent)
	if err != nil {
		w.logger.Error("Encoding snapshot", "path", w.path, "error", err)

		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	err = w.fs.WriteFileAtomic(w.path, data, w.perm)
	if err != nil {
		w.logger.Error("Writing snapshot", "path", w.path, "error", err)

		return fmt.Errorf("%w: %s: %w", ErrWrite, w.path, err)
	}

	w.logger.Debug("Wrote snapshot", "path", w.path, "bytes", len(data), "duration", time.Since(start))

	return nil
}
