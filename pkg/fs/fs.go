// Package fs provides the filesystem abstraction used by the file-backed
// quickdb backends.
//
// The main types are:
//   - [FS]: interface for the filesystem operations a backend needs
//   - [File]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation using [os] and atomic renames
//   - [Locker]: advisory flock-based exclusive locks
//
// Tests wrap [Real] to count or fail individual operations; backends never
// touch [os] directly.
//
// Example usage:
//
//	fsys := fs.NewReal()
//	data, err := fsys.ReadFile("db.json")
//	if err != nil {
//	    return err
//	}
//
//	err = fsys.WriteFileAtomic("db.json", data, 0o644)
package fs

import (
	"io"
	"os"
)

// File represents an OS-backed open file descriptor.
//
// This interface is satisfied by [os.File]. [File.Fd] must return a valid OS
// file descriptor usable with flock until the file is closed.
type File interface {
	io.ReadWriteCloser

	// Fd returns the file descriptor. See [os.File.Fd].
	Fd() uintptr

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)
}

// FS defines the filesystem operations used by the storage backends.
//
// All methods mirror their [os] package equivalents but can be intercepted
// for testing with fault injection.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type FS interface {
	// OpenFile opens a file with specified flags and permissions. See [os.OpenFile].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic writes data to a file atomically.
	// Uses a temp file in the same directory + rename, so readers observe
	// either the previous content or the new content, never a mix.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error
}

// Compile-time interface checks.
var _ File = (*os.File)(nil)
