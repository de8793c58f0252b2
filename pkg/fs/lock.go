package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

var (
	// ErrWouldBlock is returned by [Locker.TryLock] when another open file
	// description already holds the lock.
	ErrWouldBlock = errors.New("lock would block")

	// errInodeMismatch indicates the lock file was replaced between open and
	// flock. Callers retry.
	errInodeMismatch = errors.New("inode mismatch")
)

// Locker provides advisory exclusive locks using flock(2).
//
// flock applies to an inode (an open file), not a pathname. Lock a dedicated
// lock file that is never replaced, for example "db.json.lock" next to the
// snapshot; the snapshot itself is replaced on every write and cannot carry
// a lock.
//
// This implementation is Unix-only.
type Locker struct {
	fs    FS
	flock func(fd int, how int) error
}

// NewLocker creates a Locker that uses the given filesystem for file operations.
func NewLocker(fs FS) *Locker {
	return &Locker{
		fs:    fs,
		flock: unix.Flock,
	}
}

// Lock represents a held file lock. Call [Lock.Close] to release it.
type Lock struct {
	mu    sync.Mutex
	file  File
	flock func(fd int, how int) error
}

// Close releases the lock and closes the underlying file descriptor.
//
// Close is idempotent. If both unlocking and closing fail, the returned error
// wraps both (see [errors.Join]).
func (lk *Lock) Close() error {
	lk.mu.Lock()
	defer lk.mu.Unlock()

	if lk.file == nil {
		return nil
	}

	fd := int(lk.file.Fd())

	unlockErr := flockRetryEINTR(lk.flock, fd, unix.LOCK_UN)
	closeErr := lk.file.Close()
	lk.file = nil

	if unlockErr != nil {
		unlockErr = fmt.Errorf("unlocking lock: %w", unlockErr)
	}

	if closeErr != nil {
		closeErr = fmt.Errorf("closing lock fd: %w", closeErr)
	}

	return errors.Join(unlockErr, closeErr)
}

// TryLock attempts to acquire an exclusive lock on path without blocking.
//
// The lock file and its parent directories are created if missing. Returns
// an error satisfying errors.Is(err, [ErrWouldBlock]) if the lock is held
// elsewhere, including by another open of the same path in this process.
func (l *Locker) TryLock(path string) (*Lock, error) {
	for {
		file, err := l.openLockFile(path)
		if err != nil {
			return nil, fmt.Errorf("opening lockfile: %w", err)
		}

		err = l.acquire(file, path)
		if err == nil {
			return &Lock{file: file, flock: l.flock}, nil
		}

		_ = file.Close()

		if errors.Is(err, errInodeMismatch) {
			continue
		}

		if errors.Is(err, ErrWouldBlock) {
			return nil, fmt.Errorf("%w: %s", ErrWouldBlock, path)
		}

		return nil, err
	}
}

// acquire flocks file and verifies it is still the file at path. On failure
// the file is unlocked but not closed.
func (l *Locker) acquire(file File, path string) error {
	fd := int(file.Fd())

	err := flockRetryEINTR(l.flock, fd, unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			return ErrWouldBlock
		}

		return fmt.Errorf("flock: %w", err)
	}

	match, err := l.inodeMatchesPath(path, file)
	if err != nil {
		_ = flockRetryEINTR(l.flock, fd, unix.LOCK_UN)
		if errors.Is(err, os.ErrNotExist) {
			return errInodeMismatch
		}

		return fmt.Errorf("verifying inode match: %w", err)
	}

	if !match {
		_ = flockRetryEINTR(l.flock, fd, unix.LOCK_UN)

		return errInodeMismatch
	}

	return nil
}

const (
	lockFilePerm = 0o600
	lockDirPerm  = 0o755
)

func (l *Locker) openLockFile(path string) (File, error) {
	f, err := l.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, lockFilePerm)
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		return f, err
	}

	if err := l.fs.MkdirAll(filepath.Dir(path), lockDirPerm); err != nil {
		return nil, err
	}

	return l.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, lockFilePerm)
}

// inodeMatchesPath compares (dev,inode) of the open fd with the file
// currently at path. A mismatch means the lock file was replaced while we
// were acquiring it and the lock guards nothing.
func (l *Locker) inodeMatchesPath(path string, f File) (bool, error) {
	openInfo, err := f.Stat()
	if err != nil {
		return false, err
	}

	openSys, ok := openInfo.Sys().(*syscall.Stat_t)
	if !ok || openSys == nil {
		return false, fmt.Errorf("file.Stat Sys=%T, want *syscall.Stat_t", openInfo.Sys())
	}

	pathInfo, err := l.fs.Stat(path)
	if err != nil {
		return false, err
	}

	pathSys, ok := pathInfo.Sys().(*syscall.Stat_t)
	if !ok || pathSys == nil {
		return false, fmt.Errorf("fs.Stat Sys=%T, want *syscall.Stat_t", pathInfo.Sys())
	}

	return openSys.Dev == pathSys.Dev && openSys.Ino == pathSys.Ino, nil
}

// flockRetryEINTR wraps flock, retrying when a signal interrupts the call.
// Retries are capped so a signal storm cannot spin forever.
func flockRetryEINTR(flock func(fd int, how int) error, fd int, how int) error {
	const maxEINTRRetries = 10000

	var err error
	for range maxEINTRRetries {
		err = flock(fd, how)
		if err == nil || !errors.Is(err, unix.EINTR) {
			return err
		}
	}

	return err
}
