package cli_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/quickkv/internal/cli"
)

// syncBuffer is a bytes.Buffer safe for one writer and a polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func Test_Watch_Reprints_Table_When_Snapshot_Changes(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("set", "a", "1")

	var stdout, stderr syncBuffer

	done := make(chan int, 1)

	go func() {
		done <- cli.Run(nil, &stdout, &stderr, []string{"qkv", "--cwd", c.Dir, "watch", "--count", "1"}, c.Env, nil)
	}()

	// The first print happens once the watch is in place.
	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "a\t1\n")
	}, 10*time.Second, 10*time.Millisecond, "initial table never printed; stderr=%s", stderr.String())

	c.MustRun("set", "b", `{"x":true}`)

	select {
	case code := <-done:
		assert.Equal(t, 0, code, "stderr=%s", stderr.String())
	case <-time.After(10 * time.Second):
		t.Fatalf("watch did not see the change; stdout=%q", stdout.String())
	}

	assert.Equal(t, "a\t1\n---\na\t1\nb\t{\"x\":true}\n", stdout.String())
}

func Test_Watch_Ignores_Other_Tables_When_Snapshot_Changes(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("set", "a", "1")

	var stdout, stderr syncBuffer

	done := make(chan int, 1)

	go func() {
		done <- cli.Run(nil, &stdout, &stderr, []string{"qkv", "--cwd", c.Dir, "watch", "-n", "1"}, c.Env, nil)
	}()

	require.Eventually(t, func() bool {
		return stdout.String() != ""
	}, 10*time.Second, 10*time.Millisecond)

	// A change to another table rewrites the file but not this table.
	c.MustRun("--table", "other", "set", "z", "0")
	c.MustRun("delete", "a")

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("watch did not see the change; stdout=%q", stdout.String())
	}

	assert.Equal(t, "a\t1\n---\n", stdout.String())
}

func Test_Watch_Requires_Json_Driver_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("--driver", "sqlite", "watch")

	cli.AssertContains(t, stderr, "watch needs the json driver")
}
