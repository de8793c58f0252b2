package quickdb_test

import (
	"path/filepath"
	"testing"

	"github.com/calvinalkan/quickkv/pkg/quickdb"
	"github.com/calvinalkan/quickkv/pkg/quickdb/jsonfile"
	"github.com/calvinalkan/quickkv/pkg/quickdb/memory"
	"github.com/calvinalkan/quickkv/pkg/quickdb/sqlite"
	"github.com/calvinalkan/quickkv/pkg/value"
)

// driverFactory builds a fresh driver for one test.
type driverFactory struct {
	name string
	open func(t *testing.T) quickdb.Driver
}

var driverFactories = []driverFactory{
	{
		name: "memory",
		open: func(*testing.T) quickdb.Driver { return memory.NewDriver() },
	},
	{
		name: "jsonfile",
		open: func(t *testing.T) quickdb.Driver {
			t.Helper()

			d, err := jsonfile.Open(t.Context(), jsonfile.Options{Path: filepath.Join(t.TempDir(), "db.json")})
			if err != nil {
				t.Fatalf("open jsonfile: %v", err)
			}

			t.Cleanup(func() { _ = d.Close() })

			return d
		},
	},
	{
		name: "sqlite",
		open: func(t *testing.T) quickdb.Driver {
			t.Helper()

			d, err := sqlite.Open(t.Context(), filepath.Join(t.TempDir(), "db.sqlite"), sqlite.Options{})
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}

			t.Cleanup(func() { _ = d.Close() })

			return d
		},
	},
}

// eachDriver runs fn once per driver implementation, in parallel.
func eachDriver(t *testing.T, fn func(t *testing.T, db *quickdb.DB), opts ...quickdb.Option) {
	t.Helper()

	for _, f := range driverFactories {
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()

			db, err := quickdb.New(t.Context(), f.open(t), opts...)
			if err != nil {
				t.Fatalf("new: %v", err)
			}

			fn(t, db)
		})
	}
}

func mustGet(t *testing.T, db *quickdb.DB, key string) value.Value {
	t.Helper()

	v, ok, err := db.Get(t.Context(), key)
	if err != nil {
		t.Fatalf("get %q: %v", key, err)
	}

	if !ok {
		t.Fatalf("get %q: not found", key)
	}

	return v
}

func mustSet(t *testing.T, db *quickdb.DB, key string, v any) value.Value {
	t.Helper()

	stored, err := db.Set(t.Context(), key, v)
	if err != nil {
		t.Fatalf("set %q: %v", key, err)
	}

	return stored
}

func jsonOf(t *testing.T, raw string) value.Value {
	t.Helper()

	v, err := value.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse %s: %v", raw, err)
	}

	return v
}
