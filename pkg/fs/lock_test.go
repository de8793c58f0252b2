package fs

import (
	"errors"
	"path/filepath"
	"testing"
)

func Test_Locker_TryLock_Returns_ErrWouldBlock_When_Path_Is_Locked(t *testing.T) {
	t.Parallel()

	locker := NewLocker(NewReal())
	path := filepath.Join(t.TempDir(), "db.json.lock")

	lock1, err := locker.TryLock(path)
	if err != nil {
		t.Fatalf("TryLock(%q): %v", path, err)
	}
	t.Cleanup(func() { _ = lock1.Close() })

	lock2, err := locker.TryLock(path)
	if !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("TryLock(%q) while locked: err=%v, want %v", path, err, ErrWouldBlock)
	}
	if lock2 != nil {
		_ = lock2.Close()
		t.Fatalf("TryLock(%q) while locked: want lock=nil, got non-nil", path)
	}

	if err := lock1.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	lock3, err := locker.TryLock(path)
	if err != nil {
		t.Fatalf("TryLock(%q) after release: %v", path, err)
	}
	if err := lock3.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}
}

func Test_Locker_TryLock_Creates_Missing_Parent_Directories(t *testing.T) {
	t.Parallel()

	locker := NewLocker(NewReal())
	path := filepath.Join(t.TempDir(), "a", "b", "db.json.lock")

	lock, err := locker.TryLock(path)
	if err != nil {
		t.Fatalf("TryLock(%q): %v", path, err)
	}
	defer lock.Close()

	exists, err := NewReal().Exists(path)
	if err != nil || !exists {
		t.Fatalf("Exists(%q)=%v,%v, want true,nil", path, exists, err)
	}
}

func Test_Lock_Close_Is_Idempotent(t *testing.T) {
	t.Parallel()

	locker := NewLocker(NewReal())
	path := filepath.Join(t.TempDir(), "lock")

	lock, err := locker.TryLock(path)
	if err != nil {
		t.Fatalf("TryLock(%q): %v", path, err)
	}

	if err := lock.Close(); err != nil {
		t.Fatalf("first Close(): %v", err)
	}

	if err := lock.Close(); err != nil {
		t.Fatalf("second Close(): %v", err)
	}
}
