package cli

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_SplitShellLine_Keeps_Value_Whole_When_Split(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		line string
		want []string
	}{
		{line: "all", want: []string{"all"}},
		{line: "get k", want: []string{"get", "k"}},
		{line: "get  --raw   k", want: []string{"get", "--raw", "k"}},
		{line: `set k {"a": [1, 2]}`, want: []string{"set", "k", `{"a": [1, 2]}`}},
		{line: "add n -1", want: []string{"add", "n", "-1"}},
		{line: "set k   spaced  out  ", want: []string{"set", "k", "spaced  out"}},
	} {
		if diff := cmp.Diff(tt.want, splitShellLine(tt.line)); diff != "" {
			t.Errorf("splitShellLine(%q) mismatch (-want +got):\n%s", tt.line, diff)
		}
	}
}

func Test_HistoryFile_Prefers_XDG_State_When_Set(t *testing.T) {
	t.Parallel()

	if got, want := historyFile(map[string]string{"XDG_STATE_HOME": "/s", "HOME": "/h"}), "/s/qkv/history"; got != want {
		t.Errorf("historyFile=%q, want=%q", got, want)
	}

	if got, want := historyFile(map[string]string{"HOME": "/h"}), "/h/.qkv_history"; got != want {
		t.Errorf("historyFile=%q, want=%q", got, want)
	}

	if got := historyFile(nil); got != "" {
		t.Errorf("historyFile=%q, want empty", got)
	}
}
