package fs

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// Real implements [FS] using the real filesystem.
//
// All methods are passthroughs to the [os] package with identical behavior
// and error semantics, except [Real.Exists] which wraps [os.Stat] and
// [Real.WriteFileAtomic] which writes through a temp file and rename.
type Real struct{}

// NewReal returns a new [Real] filesystem.
func NewReal() *Real {
	return &Real{}
}

// A passthrough wrapper for [os.OpenFile].
func (*Real) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(path, flag, perm)
}

// A passthrough wrapper for [os.ReadFile].
func (*Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFileAtomic writes data to a temp file next to path, syncs it and
// renames it over path. The mode is applied after the rename because
// atomic.WriteFile keeps the mode of an existing target and otherwise uses
// the temp file's 0600.
func (*Real) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	err := atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		return err
	}

	err = os.Chmod(path, perm)
	if err != nil {
		return fmt.Errorf("chmod %q: %w", path, err)
	}

	return nil
}

// A passthrough wrapper for [os.MkdirAll].
func (*Real) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// A passthrough wrapper for [os.Stat].
func (*Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Exists checks if a file exists using [os.Stat].
// Returns (true, nil) if the file exists, (false, nil) if it does not,
// or (false, err) for other errors.
func (*Real) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// A passthrough wrapper for [os.Remove].
func (*Real) Remove(path string) error {
	return os.Remove(path)
}

// Compile-time interface check.
var _ FS = (*Real)(nil)
