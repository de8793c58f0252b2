package quickdb

import (
	"context"

	"github.com/calvinalkan/quickkv/pkg/value"
)

// Row is a single entry of a table.
type Row struct {
	ID    string      `json:"id"`
	Value value.Value `json:"value"`
}

// Driver is the capability set every storage backend implements.
//
// [DB] only ever talks to a Driver through these six methods and never
// inspects the concrete type. Implementations in this module:
//   - memory.Driver: process-local, nothing persisted
//   - jsonfile.Driver: in-memory tables plus an atomic JSON snapshot written
//     after every mutation
//   - sqlite.Driver: one SQLite table per quickdb table
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Driver interface {
	// Prepare makes table usable. It is called once per table by [New] and
	// [DB.Table] before any other call names that table, and must be
	// idempotent.
	Prepare(ctx context.Context, table string) error

	// GetAllRows returns every row of table in the backend's stable order.
	GetAllRows(ctx context.Context, table string) ([]Row, error)

	// GetRowByKey returns the value stored under key. The bool reports
	// whether key has been set; a key set to null returns (null, true).
	GetRowByKey(ctx context.Context, table, key string) (value.Value, bool, error)

	// SetRowByKey stores v under key and returns the stored value.
	//
	// existed is the caller's belief about whether key is already present,
	// as returned by a preceding GetRowByKey. Backends that distinguish
	// insert from update use it as a hint; the others ignore it.
	SetRowByKey(ctx context.Context, table, key string, v value.Value, existed bool) (value.Value, error)

	// DeleteRowByKey removes key and returns the number of rows removed (0 or 1).
	DeleteRowByKey(ctx context.Context, table, key string) (int, error)

	// DeleteAllRows removes every row of table and returns how many were
	// removed. The table itself stays usable.
	DeleteAllRows(ctx context.Context, table string) (int, error)
}
