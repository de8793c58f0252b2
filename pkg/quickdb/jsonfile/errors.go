package jsonfile

import "errors"

var (
	// ErrCorruptSnapshot means the snapshot file exists but is not a valid
	// snapshot. Open refuses to start rather than overwrite it.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrWrite means persisting a snapshot failed. The in-memory state
	// already holds the mutation that triggered the write.
	ErrWrite = errors.New("snapshot write failed")

	// ErrClosed is returned by every method after [Driver.Close].
	ErrClosed = errors.New("driver closed")
)
