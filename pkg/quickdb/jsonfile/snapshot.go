package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/calvinalkan/quickkv/pkg/fs"
	"github.com/calvinalkan/quickkv/pkg/quickdb/memory"
	"github.com/calvinalkan/quickkv/pkg/value"
)

// Load reads the snapshot at path into a new store. It never writes and
// takes no lock, so it is safe to call while a [Driver] owns the file.
func Load(fsys fs.FS, path string) (*memory.Store, error) {
	if fsys == nil {
		fsys = fs.NewReal()
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: reading snapshot: %w", err)
	}

	store := memory.NewStore()

	err = decodeSnapshot(data, store)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: %s: %w", path, err)
	}

	return store, nil
}

// encodeSnapshot renders an export as
//
//	{"table": [{"id": "...", "value": ...}, ...], ...}
//
// Tables appear in registration order and rows in table order, so equal
// stores always produce identical bytes.
func encodeSnapshot(tables []memory.TableRows, indent string) ([]byte, error) {
	members := make([]value.Member, 0, len(tables))

	for _, t := range tables {
		rows := make([]value.Value, 0, len(t.Rows))
		for _, r := range t.Rows {
			rows = append(rows, value.Object(
				value.Member{Key: "id", Value: value.String(r.ID)},
				value.Member{Key: "value", Value: r.Value},
			))
		}

		members = append(members, value.Member{Key: t.Name, Value: value.Array(rows...)})
	}

	compact, err := value.Object(members...).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	if indent == "" {
		return append(compact, '\n'), nil
	}

	var buf bytes.Buffer

	buf.Grow(len(compact) * 2)

	err = json.Indent(&buf, compact, "", indent)
	if err != nil {
		return nil, fmt.Errorf("indenting snapshot: %w", err)
	}

	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

// decodeSnapshot loads data into store. Any deviation from the snapshot
// shape is reported as [ErrCorruptSnapshot]. A repeated id keeps its first
// position and its last value, the same as repeated Sets would.
func decodeSnapshot(data []byte, store *memory.Store) error {
	doc, err := value.Parse(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	tables, ok := doc.Members()
	if !ok {
		return fmt.Errorf("%w: top level is %s, want object", ErrCorruptSnapshot, doc.Kind())
	}

	err = checkUniqueTables(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	for _, t := range tables {
		rows, ok := t.Value.Items()
		if !ok {
			return fmt.Errorf("%w: table %q is %s, want array", ErrCorruptSnapshot, t.Key, t.Value.Kind())
		}

		tbl := store.Table(t.Key)

		for i, row := range rows {
			id, v, err := decodeRow(row)
			if err != nil {
				return fmt.Errorf("%w: table %q row %d: %w", ErrCorruptSnapshot, t.Key, i, err)
			}

			tbl.Set(id, v)
		}
	}

	return nil
}

// checkUniqueTables fails when a table name appears twice at the top level.
// [value.Parse] would silently keep only the last one. data must already be
// known to hold a JSON object.
func checkUniqueTables(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	// Opening '{'.
	_, err := dec.Token()
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}

		name, _ := tok.(string)
		if _, dup := seen[name]; dup {
			return fmt.Errorf("table %q appears more than once", name)
		}

		seen[name] = struct{}{}

		var skip json.RawMessage

		err = dec.Decode(&skip)
		if err != nil {
			return err
		}
	}

	return nil
}

func decodeRow(row value.Value) (string, value.Value, error) {
	if row.Kind() != value.KindObject {
		return "", value.Value{}, fmt.Errorf("row is %s, want object", row.Kind())
	}

	rawID, ok := row.Field("id")
	if !ok {
		return "", value.Value{}, fmt.Errorf("missing %q", "id")
	}

	id, ok := rawID.Text()
	if !ok {
		return "", value.Value{}, fmt.Errorf("id is %s, want string", rawID.Kind())
	}

	// A missing "value" member is a stored null.
	v, _ := row.Field("value")

	return id, v, nil
}
