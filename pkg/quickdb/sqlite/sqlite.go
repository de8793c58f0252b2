// Package sqlite is a quickdb driver storing each table as a SQLite table
// of (id, json) rows.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/calvinalkan/quickkv/pkg/fs"
	"github.com/calvinalkan/quickkv/pkg/quickdb"
	"github.com/calvinalkan/quickkv/pkg/value"
)

// Options configures [Open].
type Options struct {
	// FS creates the parent directory of the database. Defaults to
	// [fs.NewReal].
	FS fs.FS

	// Logger receives statement fallbacks at Debug. Defaults to discard.
	Logger *slog.Logger
}

// Driver implements [quickdb.Driver] with SQLite. The existed hint of
// [Driver.SetRowByKey] picks UPDATE or INSERT.
type Driver struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string, opts Options) (*Driver, error) {
	if path == "" {
		return nil, errors.New("open sqlite: path is empty")
	}

	if opts.FS == nil {
		opts.FS = fs.NewReal()
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if path != ":memory:" {
		err := opts.FS.MkdirAll(filepath.Dir(path), 0o750)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Pragmas are per connection, and a second connection to ":memory:"
	// would see a different database.
	db.SetMaxOpenConns(1)

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	err = applyPragmas(ctx, db)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return &Driver{db: db, logger: opts.Logger}, nil
}

// busyTimeout is the time SQLite waits when the database is locked.
const busyTimeout = 10000 // milliseconds

func applyPragmas(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		PRAGMA busy_timeout = %d;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = FULL;
		PRAGMA mmap_size = 268435456;
		PRAGMA cache_size = -20000;
		PRAGMA temp_store = MEMORY;
	`, busyTimeout))
	if err != nil {
		return fmt.Errorf("apply pragmas: %w", err)
	}

	return nil
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.db.Close()
}

// Prepare creates table if it does not exist.
func (d *Driver) Prepare(ctx context.Context, table string) error {
	_, err := d.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS "+quoteIdent(table)+
		" (id TEXT PRIMARY KEY, json TEXT NOT NULL)")
	if err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	return nil
}

// GetAllRows returns all rows in insertion order.
func (d *Driver) GetAllRows(ctx context.Context, table string) ([]quickdb.Row, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT id, json FROM "+quoteIdent(table)+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}

	defer func() { _ = rows.Close() }()

	var out []quickdb.Row

	for rows.Next() {
		var (
			id  string
			raw string
		)

		err = rows.Scan(&id, &raw)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}

		v, err := value.Parse([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", table, id, err)
		}

		out = append(out, quickdb.Row{ID: id, Value: v})
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}

	return out, nil
}

func (d *Driver) GetRowByKey(ctx context.Context, table, key string) (value.Value, bool, error) {
	var raw string

	err := d.db.QueryRowContext(ctx, "SELECT json FROM "+quoteIdent(table)+" WHERE id = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return value.Value{}, false, nil
	}

	if err != nil {
		return value.Value{}, false, fmt.Errorf("select %s/%s: %w", table, key, err)
	}

	v, err := value.Parse([]byte(raw))
	if err != nil {
		return value.Value{}, false, fmt.Errorf("decode %s/%s: %w", table, key, err)
	}

	return v, true, nil
}

// SetRowByKey writes v with UPDATE when existed, INSERT otherwise. A wrong
// hint costs one extra statement, never a lost write.
func (d *Driver) SetRowByKey(ctx context.Context, table, key string, v value.Value, existed bool) (value.Value, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return value.Value{}, fmt.Errorf("encode %s/%s: %w", table, key, err)
	}

	if existed {
		err = d.updateOrInsert(ctx, table, key, string(data))
	} else {
		err = d.insertOrUpdate(ctx, table, key, string(data))
	}

	if err != nil {
		return value.Value{}, err
	}

	return v, nil
}

func (d *Driver) updateOrInsert(ctx context.Context, table, key, data string) error {
	n, err := d.update(ctx, table, key, data)
	if err != nil {
		return err
	}

	if n > 0 {
		return nil
	}

	d.logger.DebugContext(ctx, "Row missing on update, inserting", "table", table, "key", key)

	return d.insert(ctx, table, key, data)
}

func (d *Driver) insertOrUpdate(ctx context.Context, table, key, data string) error {
	err := d.insert(ctx, table, key, data)
	if !isConstraint(err) {
		return err
	}

	d.logger.DebugContext(ctx, "Row exists on insert, updating", "table", table, "key", key)

	_, err = d.update(ctx, table, key, data)

	return err
}

func (d *Driver) insert(ctx context.Context, table, key, data string) error {
	_, err := d.db.ExecContext(ctx, "INSERT INTO "+quoteIdent(table)+" (id, json) VALUES (?, ?)", key, data)
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", table, key, err)
	}

	return nil
}

func (d *Driver) update(ctx context.Context, table, key, data string) (int64, error) {
	res, err := d.db.ExecContext(ctx, "UPDATE "+quoteIdent(table)+" SET json = ? WHERE id = ?", data, key)
	if err != nil {
		return 0, fmt.Errorf("update %s/%s: %w", table, key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update %s/%s: %w", table, key, err)
	}

	return n, nil
}

func (d *Driver) DeleteRowByKey(ctx context.Context, table, key string) (int, error) {
	res, err := d.db.ExecContext(ctx, "DELETE FROM "+quoteIdent(table)+" WHERE id = ?", key)
	if err != nil {
		return 0, fmt.Errorf("delete %s/%s: %w", table, key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete %s/%s: %w", table, key, err)
	}

	return int(n), nil
}

func (d *Driver) DeleteAllRows(ctx context.Context, table string) (int, error) {
	res, err := d.db.ExecContext(ctx, "DELETE FROM "+quoteIdent(table))
	if err != nil {
		return 0, fmt.Errorf("delete all %s: %w", table, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all %s: %w", table, err)
	}

	return int(n), nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isConstraint(err error) bool {
	var sqliteErr sqlite3.Error

	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

var _ quickdb.Driver = (*Driver)(nil)
