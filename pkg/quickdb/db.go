package quickdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/calvinalkan/quickkv/pkg/value"
)

// DB is a table-scoped view of a [Driver]. Create it with [New]; derive
// views of other tables with [DB.Table].
type DB struct {
	driver Driver
	opts   options
}

// New binds a DB to a table of driver and prepares that table.
func New(ctx context.Context, driver Driver, opts ...Option) (*DB, error) {
	if ctx == nil {
		return nil, errors.New("context is nil")
	}

	if driver == nil {
		return nil, fmt.Errorf("%w: driver is nil", ErrInvalidArgument)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	return newDB(ctx, driver, o)
}

func newDB(ctx context.Context, driver Driver, o options) (*DB, error) {
	if o.table == "" {
		return nil, &Error{Op: "prepare", Err: fmt.Errorf("%w: table name is empty", ErrInvalidArgument)}
	}

	if !utf8.ValidString(o.table) {
		return nil, &Error{Op: "prepare", Err: fmt.Errorf("%w: table name %q is not valid UTF-8", ErrInvalidArgument, o.table)}
	}

	err := driver.Prepare(ctx, o.table)
	if err != nil {
		return nil, &Error{Op: "prepare", Table: o.table, Err: err}
	}

	return &DB{driver: driver, opts: o}, nil
}

// Table returns a DB bound to another table of the same driver, with the
// same options. The table is prepared before Table returns.
func (db *DB) Table(ctx context.Context, name string) (*DB, error) {
	o := db.opts
	o.table = name

	return newDB(ctx, db.driver, o)
}

// TableName returns the table this DB is bound to.
func (db *DB) TableName() string { return db.opts.table }

// Driver returns the driver shared by every view derived from this DB.
func (db *DB) Driver() Driver { return db.driver }

// Get returns the value at key. The bool is false when the row, or any
// level of a dotted path, does not exist. A missing level is never an error.
func (db *DB) Get(ctx context.Context, k string) (value.Value, bool, error) {
	parsed, err := parseKey(k, db.opts.normalKeys)
	if err != nil {
		return value.Value{}, false, db.fail("get", k, err)
	}

	v, ok, err := db.get(ctx, parsed)
	if err != nil {
		return value.Value{}, false, db.fail("get", k, err)
	}

	return v, ok, nil
}

// Has reports whether key holds a value other than null.
func (db *DB) Has(ctx context.Context, k string) (bool, error) {
	v, ok, err := db.Get(ctx, k)
	if err != nil {
		return false, err
	}

	return ok && !v.IsNull(), nil
}

// Set stores v at key and returns the value of the whole row afterwards. For
// a plain key that is v itself; for a dotted key it is the updated row.
//
// v may be anything [value.From] accepts.
func (db *DB) Set(ctx context.Context, k string, v any) (value.Value, error) {
	parsed, err := parseKey(k, db.opts.normalKeys)
	if err != nil {
		return value.Value{}, db.fail("set", k, err)
	}

	item, err := toValue(v)
	if err != nil {
		return value.Value{}, db.fail("set", k, err)
	}

	stored, err := db.set(ctx, parsed, item)
	if err != nil {
		return value.Value{}, db.fail("set", k, err)
	}

	return stored, nil
}

// Delete removes the value at key and reports whether something was removed.
//
// A plain key deletes the row. A dotted key removes one member from the row
// and always writes the row back, even when the member did not exist; if the
// row itself did not exist it is created as an empty object.
func (db *DB) Delete(ctx context.Context, k string) (bool, error) {
	parsed, err := parseKey(k, db.opts.normalKeys)
	if err != nil {
		return false, db.fail("delete", k, err)
	}

	if !parsed.dotted() {
		n, err := db.driver.DeleteRowByKey(ctx, db.opts.table, parsed.row)
		if err != nil {
			return false, db.fail("delete", k, err)
		}

		return n > 0, nil
	}

	row, existed, err := db.driver.GetRowByKey(ctx, db.opts.table, parsed.row)
	if err != nil {
		return false, db.fail("delete", k, err)
	}

	if !existed {
		row = value.EmptyObject()
	}

	updated, removed := row.DeletePath(parsed.path)

	_, err = db.driver.SetRowByKey(ctx, db.opts.table, parsed.row, updated, existed)
	if err != nil {
		return false, db.fail("delete", k, err)
	}

	return removed, nil
}

// Add adds n to the number at key and returns the result. A missing or
// null value counts as 0 and a numeric string is parsed; anything else fails
// with [ErrType].
func (db *DB) Add(ctx context.Context, k string, n float64) (float64, error) {
	return db.add(ctx, "add", k, n)
}

// Sub subtracts n from the number at key. See [DB.Add].
func (db *DB) Sub(ctx context.Context, k string, n float64) (float64, error) {
	return db.add(ctx, "sub", k, -n)
}

// Push appends vals to the array at key and returns the new array. A missing
// or null value counts as an empty array. A val that is itself an array is
// spread, so Push(k, []any{2, 3}) on [1] gives [1,2,3].
func (db *DB) Push(ctx context.Context, k string, vals ...any) (value.Value, error) {
	if len(vals) == 0 {
		return value.Value{}, db.fail("push", k, fmt.Errorf("%w: no values to push", ErrInvalidArgument))
	}

	var items []value.Value

	for _, raw := range vals {
		v, err := toValue(raw)
		if err != nil {
			return value.Value{}, db.fail("push", k, err)
		}

		if spread, ok := v.Items(); ok {
			items = append(items, spread...)

			continue
		}

		items = append(items, v)
	}

	return db.updateArray(ctx, "push", k, func(arr value.Value) value.Value {
		return arr.Append(items...)
	})
}

// Pull removes every element equal to v from the array at key and returns
// the remaining array. If v is an array, elements equal to any of its
// elements are removed. The array is written back even when nothing matched.
func (db *DB) Pull(ctx context.Context, k string, v any) (value.Value, error) {
	target, err := toValue(v)
	if err != nil {
		return value.Value{}, db.fail("pull", k, err)
	}

	drop, ok := target.Items()
	if !ok {
		drop = []value.Value{target}
	}

	return db.updateArray(ctx, "pull", k, func(arr value.Value) value.Value {
		return arr.Filter(func(item value.Value, _ int) bool {
			for _, d := range drop {
				if value.Equal(item, d) {
					return false
				}
			}

			return true
		})
	})
}

// PullFunc keeps the elements of the array at key for which keep returns
// true, removes the rest and returns the remaining array.
func (db *DB) PullFunc(ctx context.Context, k string, keep func(item value.Value, index int) bool) (value.Value, error) {
	if keep == nil {
		return value.Value{}, db.fail("pull", k, fmt.Errorf("%w: predicate is nil", ErrInvalidArgument))
	}

	return db.updateArray(ctx, "pull", k, func(arr value.Value) value.Value {
		return arr.Filter(keep)
	})
}

// All returns every row of the table in the driver's order.
func (db *DB) All(ctx context.Context) ([]Row, error) {
	rows, err := db.driver.GetAllRows(ctx, db.opts.table)
	if err != nil {
		return nil, db.fail("all", "", err)
	}

	return rows, nil
}

// DeleteAll removes every row of the table and returns how many there were.
// The table remains usable.
func (db *DB) DeleteAll(ctx context.Context) (int, error) {
	n, err := db.driver.DeleteAllRows(ctx, db.opts.table)
	if err != nil {
		return 0, db.fail("delete-all", "", err)
	}

	return n, nil
}

func (db *DB) get(ctx context.Context, k key) (value.Value, bool, error) {
	row, ok, err := db.driver.GetRowByKey(ctx, db.opts.table, k.row)
	if err != nil || !ok {
		return value.Value{}, false, err
	}

	if !k.dotted() {
		return row, true, nil
	}

	v, ok := row.GetPath(k.path)

	return v, ok, nil
}

func (db *DB) set(ctx context.Context, k key, item value.Value) (value.Value, error) {
	row, existed, err := db.driver.GetRowByKey(ctx, db.opts.table, k.row)
	if err != nil {
		return value.Value{}, err
	}

	if !k.dotted() {
		return db.driver.SetRowByKey(ctx, db.opts.table, k.row, item, existed)
	}

	var updated value.Value

	if db.opts.strictPaths {
		updated, err = row.SetPathStrict(k.path, item)
		if err != nil {
			return value.Value{}, fmt.Errorf("%w: %w", ErrType, err)
		}
	} else {
		if existed && row.Kind() != value.KindObject && !row.IsNull() {
			db.opts.logger.WarnContext(ctx, "Discarding non-object row value for dotted write",
				"table", db.opts.table, "row", k.row, "key", k.raw, "kind", row.Kind().String())
		}

		updated = row.SetPath(k.path, item)
	}

	return db.driver.SetRowByKey(ctx, db.opts.table, k.row, updated, existed)
}

func (db *DB) add(ctx context.Context, op, k string, n float64) (float64, error) {
	parsed, err := parseKey(k, db.opts.normalKeys)
	if err != nil {
		return 0, db.fail(op, k, err)
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, db.fail(op, k, fmt.Errorf("%w: operand %v is not finite", ErrInvalidArgument, n))
	}

	cur, _, err := db.get(ctx, parsed)
	if err != nil {
		return 0, db.fail(op, k, err)
	}

	base, err := asNumber(cur)
	if err != nil {
		return 0, db.fail(op, k, err)
	}

	result := base + n
	if math.IsInf(result, 0) {
		return 0, db.fail(op, k, fmt.Errorf("%w: result overflows", ErrInvalidArgument))
	}

	_, err = db.set(ctx, parsed, value.Number(result))
	if err != nil {
		return 0, db.fail(op, k, err)
	}

	return result, nil
}

func (db *DB) updateArray(ctx context.Context, op, k string, update func(arr value.Value) value.Value) (value.Value, error) {
	parsed, err := parseKey(k, db.opts.normalKeys)
	if err != nil {
		return value.Value{}, db.fail(op, k, err)
	}

	cur, _, err := db.get(ctx, parsed)
	if err != nil {
		return value.Value{}, db.fail(op, k, err)
	}

	switch cur.Kind() {
	case value.KindNull:
		cur = value.Array()
	case value.KindArray:
	case value.KindBool, value.KindNumber, value.KindString, value.KindObject:
		return value.Value{}, db.fail(op, k, fmt.Errorf("%w: stored value is %s, want array", ErrType, cur.Kind()))
	}

	updated := update(cur)

	_, err = db.set(ctx, parsed, updated)
	if err != nil {
		return value.Value{}, db.fail(op, k, err)
	}

	return updated, nil
}

// asNumber coerces a stored value for Add/Sub: null is 0, numbers pass,
// strings must parse as a float.
func asNumber(v value.Value) (float64, error) {
	switch v.Kind() {
	case value.KindNull:
		return 0, nil
	case value.KindNumber:
		n, _ := v.Number()

		return n, nil
	case value.KindString:
		s, _ := v.Text()

		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: stored string %q is not a number", ErrType, s)
		}

		return n, nil
	case value.KindBool, value.KindArray, value.KindObject:
		return 0, fmt.Errorf("%w: stored value is %s, want number", ErrType, v.Kind())
	default:
		return 0, fmt.Errorf("%w: stored value is %s, want number", ErrType, v.Kind())
	}
}

func toValue(v any) (value.Value, error) {
	item, err := value.From(v)
	if err != nil {
		return value.Value{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	return item, nil
}

func (db *DB) fail(op, k string, err error) error {
	var qErr *Error
	if errors.As(err, &qErr) {
		return err
	}

	return &Error{Op: op, Table: db.opts.table, Key: k, Err: err}
}
