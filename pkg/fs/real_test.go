package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func Test_RealFS_Exists_Returns_False_When_Path_Does_Not_Exist(t *testing.T) {
	t.Parallel()

	fs := NewReal()
	dir := t.TempDir()

	exists, err := fs.Exists(filepath.Join(dir, "does-not-exist.json"))

	if got, want := err, error(nil); !errors.Is(got, want) {
		t.Fatalf("err=%v, want=%v", got, want)
	}

	if got, want := exists, false; got != want {
		t.Fatalf("exists=%v, want=%v", got, want)
	}
}

func Test_RealFS_Exists_Returns_True_When_Path_Is_A_File(t *testing.T) {
	t.Parallel()

	fs := NewReal()
	path := filepath.Join(t.TempDir(), "exists.json")

	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	exists, err := fs.Exists(path)

	if got, want := err, error(nil); !errors.Is(got, want) {
		t.Fatalf("err=%v, want=%v", got, want)
	}

	if got, want := exists, true; got != want {
		t.Fatalf("exists=%v, want=%v", got, want)
	}
}

func Test_RealFS_WriteFileAtomic_Creates_File_With_Requested_Mode(t *testing.T) {
	t.Parallel()

	fs := NewReal()
	path := filepath.Join(t.TempDir(), "db.json")

	if err := fs.WriteFileAtomic(path, []byte(`{"a":[]}`), 0o640); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	got, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != `{"a":[]}` {
		t.Fatalf("content=%q, want %q", got, `{"a":[]}`)
	}

	info, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	if got, want := info.Mode().Perm(), os.FileMode(0o640); got != want {
		t.Fatalf("mode=%v, want=%v", got, want)
	}
}

func Test_RealFS_WriteFileAtomic_Replaces_Content_And_Leaves_No_Temp_Files(t *testing.T) {
	t.Parallel()

	fs := NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")

	for _, content := range []string{"first", "second, longer content", "3"} {
		if err := fs.WriteFileAtomic(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFileAtomic(%q): %v", content, err)
		}

		got, err := fs.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}

		if string(got) != content {
			t.Fatalf("content=%q, want %q", got, content)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}

	if len(names) != 1 || names[0] != "db.json" {
		t.Fatalf("dir entries=%s, want only db.json", strings.Join(names, ","))
	}
}
