package quickdb

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidArgument reports a malformed key, an unrepresentable value or
	// a missing argument. Nothing was read or written.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrType reports that the value already stored at a key has the wrong
	// shape for the operation (Add on a non-number, Push on a non-array, ...).
	// The stored value is unchanged.
	ErrType = errors.New("type mismatch")
)

// Error is the error type returned by [DB] methods.
//
// The underlying error comes first, followed by the operation context:
//
//	add: type mismatch: stored value is string, want number (table=json key=n)
//
// Use [errors.Is] with [ErrInvalidArgument] and [ErrType], or with a
// backend's own sentinels, to classify it.
type Error struct {
	// Op is the DB method that failed, e.g. "set" or "push".
	Op string

	// Table is the table the DB is bound to.
	Table string

	// Key is the key as passed by the caller, dots included.
	Key string

	// Err is the underlying cause.
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}

	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}

	var ctx []string
	if e.Table != "" {
		ctx = append(ctx, "table="+e.Table)
	}

	if e.Key != "" {
		ctx = append(ctx, "key="+e.Key)
	}

	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, " "))
		b.WriteString(")")
	}

	return b.String()
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}
