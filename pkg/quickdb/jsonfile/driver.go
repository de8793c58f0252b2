// Package jsonfile is the file-backed quickdb driver.
//
// The whole database lives in memory in a [memory.Store]. Every mutation is
// applied there first, then the complete state is written to a single JSON
// file through a write queue with one writer goroutine. Writes replace the
// file atomically, so after a crash the file holds either the previous or
// the new snapshot.
//
// The file looks like this, tables in the order they were first used and
// rows in insertion order:
//
//	{
//	  "json": [
//	    {
//	      "id": "user",
//	      "value": {"name": "ada"}
//	    }
//	  ]
//	}
//
// Only one Driver may own a file at a time. [Options.Lock] turns a second
// opener into an error instead of a silent race.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/calvinalkan/quickkv/pkg/fs"
	"github.com/calvinalkan/quickkv/pkg/quickdb"
	"github.com/calvinalkan/quickkv/pkg/quickdb/memory"
	"github.com/calvinalkan/quickkv/pkg/value"
)

// Driver implements [quickdb.Driver] on top of a snapshot file. Create it
// with [Open] and release it with [Driver.Close].
type Driver struct {
	opts   Options
	store  *memory.Store
	writer *writer
	lock   *fs.Lock

	// gate is held shared from the closed check of a mutation until its
	// write is queued, and exclusively by Close while it sets closed.
	gate      sync.RWMutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open loads the snapshot at opts.Path, or creates it holding "{}" when it
// does not exist, and returns a driver ready for use.
//
// A file that exists but is not a valid snapshot fails with
// [ErrCorruptSnapshot] and is left untouched.
func Open(ctx context.Context, opts Options) (*Driver, error) {
	if ctx == nil {
		return nil, errors.New("jsonfile: context is nil")
	}

	o, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	err = ctx.Err()
	if err != nil {
		return nil, err
	}

	err = o.FS.MkdirAll(filepath.Dir(o.Path), 0o750)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: creating directory: %w", err)
	}

	var lock *fs.Lock

	if o.Lock {
		lock, err = fs.NewLocker(o.FS).TryLock(o.Path + ".lock")
		if err != nil {
			return nil, fmt.Errorf("jsonfile: %w", err)
		}
	}

	d := &Driver{opts: o, store: memory.NewStore(), lock: lock}
	d.writer = newWriter(o, d.store)

	err = d.load()
	if err != nil {
		if lock != nil {
			err = errors.Join(err, lock.Close())
		}

		return nil, err
	}

	d.writer.start()

	o.Logger.Debug("Opened snapshot", "path", o.Path, "tables", len(d.store.TableNames()))

	return d, nil
}

func (d *Driver) load() error {
	data, err := d.opts.FS.ReadFile(d.opts.Path)
	if errors.Is(err, os.ErrNotExist) {
		// The writer goroutine is not running yet.
		return d.writer.write()
	}

	if err != nil {
		return fmt.Errorf("jsonfile: reading snapshot: %w", err)
	}

	err = decodeSnapshot(data, d.store)
	if err != nil {
		return fmt.Errorf("jsonfile: %s: %w", d.opts.Path, err)
	}

	return nil
}

// Path returns the snapshot file path.
func (d *Driver) Path() string { return d.opts.Path }

// Store returns the in-memory state. Mutating it directly bypasses the
// snapshot writer.
func (d *Driver) Store() *memory.Store { return d.store }

// Close waits for every queued write, stops the writer goroutine and
// releases the lock. It is safe to call more than once.
func (d *Driver) Close() error {
	d.closeOnce.Do(func() {
		d.gate.Lock()
		d.closed.Store(true)
		d.gate.Unlock()

		d.writer.close()

		if d.lock != nil {
			d.closeErr = d.lock.Close()
		}
	})

	return d.closeErr
}

// Prepare registers table. Registering a new table writes a snapshot so the
// empty table shows up in the file.
func (d *Driver) Prepare(ctx context.Context, table string) error {
	return d.mutate(ctx, func() bool {
		_, created := d.store.Register(table)

		return created
	})
}

func (d *Driver) GetAllRows(_ context.Context, table string) ([]quickdb.Row, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}

	return d.store.Table(table).Rows(), nil
}

func (d *Driver) GetRowByKey(_ context.Context, table, key string) (value.Value, bool, error) {
	if d.closed.Load() {
		return value.Value{}, false, ErrClosed
	}

	v, ok := d.store.Table(table).Get(key)

	return v, ok, nil
}

// SetRowByKey stores v and waits until a snapshot containing it is on disk.
// existed is not needed by this driver.
func (d *Driver) SetRowByKey(ctx context.Context, table, key string, v value.Value, _ bool) (value.Value, error) {
	var stored value.Value

	err := d.mutate(ctx, func() bool {
		stored = d.store.Table(table).Set(key, v)

		return true
	})
	if err != nil {
		return value.Value{}, err
	}

	return stored, nil
}

// DeleteRowByKey removes key and waits for the snapshot write. The write
// happens even when there was nothing to remove.
func (d *Driver) DeleteRowByKey(ctx context.Context, table, key string) (int, error) {
	var n int

	err := d.mutate(ctx, func() bool {
		n = d.store.Table(table).Delete(key)

		return true
	})
	if err != nil {
		return 0, err
	}

	return n, nil
}

// DeleteAllRows empties table, keeping it registered, and waits for the
// snapshot write.
func (d *Driver) DeleteAllRows(ctx context.Context, table string) (int, error) {
	var n int

	err := d.mutate(ctx, func() bool {
		n = d.store.Table(table).Clear()

		return true
	})
	if err != nil {
		return 0, err
	}

	return n, nil
}

// mutate applies fn to the store and, when fn reports a change, queues one
// snapshot write and waits for it. Once Close has started, fn never runs.
func (d *Driver) mutate(ctx context.Context, fn func() bool) error {
	d.gate.RLock()

	if d.closed.Load() {
		d.gate.RUnlock()

		return ErrClosed
	}

	if !fn() {
		d.gate.RUnlock()

		return nil
	}

	p, err := d.writer.enqueue()
	d.gate.RUnlock()

	if err != nil {
		return err
	}

	return p.wait(ctx)
}

var _ quickdb.Driver = (*Driver)(nil)
