package memory

import (
	"context"

	"github.com/calvinalkan/quickkv/pkg/quickdb"
	"github.com/calvinalkan/quickkv/pkg/value"
)

// Driver is a [quickdb.Driver] that keeps everything in a [Store] and
// persists nothing.
type Driver struct {
	store *Store
}

// NewDriver returns a driver over a fresh store.
func NewDriver() *Driver {
	return NewDriverWithStore(NewStore())
}

// NewDriverWithStore returns a driver over an existing store.
func NewDriverWithStore(store *Store) *Driver {
	return &Driver{store: store}
}

// Store returns the underlying store.
func (d *Driver) Store() *Store { return d.store }

func (d *Driver) Prepare(_ context.Context, table string) error {
	d.store.Table(table)

	return nil
}

func (d *Driver) GetAllRows(_ context.Context, table string) ([]quickdb.Row, error) {
	return d.store.Table(table).Rows(), nil
}

func (d *Driver) GetRowByKey(_ context.Context, table, key string) (value.Value, bool, error) {
	v, ok := d.store.Table(table).Get(key)

	return v, ok, nil
}

// SetRowByKey ignores existed: overwriting is idempotent here.
func (d *Driver) SetRowByKey(_ context.Context, table, key string, v value.Value, _ bool) (value.Value, error) {
	return d.store.Table(table).Set(key, v), nil
}

func (d *Driver) DeleteRowByKey(_ context.Context, table, key string) (int, error) {
	return d.store.Table(table).Delete(key), nil
}

func (d *Driver) DeleteAllRows(_ context.Context, table string) (int, error) {
	return d.store.Table(table).Clear(), nil
}

var _ quickdb.Driver = (*Driver)(nil)
