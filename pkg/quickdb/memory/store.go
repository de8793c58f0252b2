// Package memory implements the in-memory table store and the memory
// driver built on it.
//
// [Store] is the authoritative state of the file-backed driver as well: the
// jsonfile package mutates a Store and snapshots it with [Store.Export].
package memory

import (
	"slices"
	"sync"

	"github.com/calvinalkan/quickkv/pkg/quickdb"
	"github.com/calvinalkan/quickkv/pkg/value"
)

// Store maps table names to tables. Tables are created on first reference
// and never removed.
//
// All methods of Store and of the tables it hands out are safe for
// concurrent use; a single mutex guards the whole store so that [Store.Export]
// sees a consistent state across tables.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*Table
	order  []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{tables: make(map[string]*Table)}
}

// Table returns the table called name, creating and registering it if this
// is the first reference.
func (s *Store) Table(name string) *Table {
	t, _ := s.Register(name)

	return t
}

// Register is [Store.Table] that also reports whether the table was created
// by this call.
func (s *Store) Register(name string) (*Table, bool) {
	s.mu.RLock()
	t, ok := s.tables[name]
	s.mu.RUnlock()

	if ok {
		return t, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tables[name]; ok {
		return t, false
	}

	t = &Table{store: s, name: name, index: make(map[string]int)}
	s.tables[name] = t
	s.order = append(s.order, name)

	return t, true
}

// TableNames returns the registered table names in registration order.
func (s *Store) TableNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.order)
}

// TableRows is one table of an export.
type TableRows struct {
	Name string
	Rows []quickdb.Row
}

// Export returns every registered table with all its rows, tables in
// registration order and rows in table order. The result shares no mutable
// state with the store.
func (s *Store) Export() []TableRows {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TableRows, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, TableRows{Name: name, Rows: s.tables[name].rowsLocked()})
	}

	return out
}

// Table is an ordered mapping from row id to value. Overwriting an id keeps
// its position; new ids go to the end.
type Table struct {
	store *Store
	name  string
	rows  []quickdb.Row
	index map[string]int
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Get returns the value stored under id, and whether id has been set.
func (t *Table) Get(id string) (value.Value, bool) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	i, ok := t.index[id]
	if !ok {
		return value.Value{}, false
	}

	return t.rows[i].Value, true
}

// Set stores v under id and returns v.
func (t *Table) Set(id string, v value.Value) value.Value {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if i, ok := t.index[id]; ok {
		t.rows[i].Value = v

		return v
	}

	t.index[id] = len(t.rows)
	t.rows = append(t.rows, quickdb.Row{ID: id, Value: v})

	return v
}

// Delete removes id and returns the number of rows removed (0 or 1).
func (t *Table) Delete(id string) int {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	i, ok := t.index[id]
	if !ok {
		return 0
	}

	t.rows = slices.Delete(t.rows, i, i+1)
	delete(t.index, id)

	for j := i; j < len(t.rows); j++ {
		t.index[t.rows[j].ID] = j
	}

	return 1
}

// Clear removes every row and returns how many were removed. The table
// stays registered.
func (t *Table) Clear() int {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	n := len(t.rows)
	t.rows = nil
	t.index = make(map[string]int)

	return n
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	return len(t.rows)
}

// Rows returns a copy of all rows in table order.
func (t *Table) Rows() []quickdb.Row {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	return t.rowsLocked()
}

func (t *Table) rowsLocked() []quickdb.Row {
	// Values are immutable, a shallow copy is enough.
	return slices.Clone(t.rows)
}
