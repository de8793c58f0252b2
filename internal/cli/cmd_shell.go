package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

// ShellCmd returns the shell command. commands are the commands available
// inside the shell; they share the session, so one database stays open for
// the whole shell.
func ShellCmd(s *session, commands func() []*Command) *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell",
		Short: "Start an interactive shell",
		Long: `Start an interactive shell on the configured database.

Every command is available without the "qkv" prefix. Everything after the
key is passed as a single value, so JSON with spaces needs no quoting:

  json> set user {"name": "ada", "tags": ["x"]}
  json> push user.tags "y"

Extra shell commands:
  use <table>    Switch to another table
  help           List commands
  exit           Leave the shell (also quit, q, Ctrl-D)`,
		Args: 0,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return runShell(ctx, s, o, commands)
		},
	}
}

// lineSource is the part of *liner.State the shell uses.
type lineSource interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// scannerSource reads lines from a non-interactive input.
type scannerSource struct {
	sc *bufio.Scanner
}

func (s *scannerSource) Prompt(string) (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}

	if err := s.sc.Err(); err != nil {
		return "", err
	}

	return "", io.EOF
}

func (*scannerSource) AppendHistory(string) {}

func runShell(ctx context.Context, s *session, o *IO, commands func() []*Command) error {
	names := []string{"exit", "help", "quit", "use"}
	for _, c := range commands() {
		names = append(names, c.Name())
	}

	slices.Sort(names)

	var src lineSource

	if f, ok := s.in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		state := liner.NewLiner()
		defer state.Close()

		state.SetCtrlCAborts(true)
		state.SetCompleter(func(line string) []string {
			var out []string

			for _, n := range names {
				if strings.HasPrefix(n, line) {
					out = append(out, n+" ")
				}
			}

			return out
		})

		history := historyFile(s.env)
		if history != "" {
			if hf, err := os.Open(history); err == nil {
				_, _ = state.ReadHistory(hf)
				_ = hf.Close()
			}

			defer saveHistory(state, history)
		}

		src = state
	} else {
		in := s.in
		if in == nil {
			in = strings.NewReader("")
		}

		src = &scannerSource{sc: bufio.NewScanner(in)}
	}

	for ctx.Err() == nil {
		line, err := src.Prompt(s.cfg.Table + "> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		src.AppendHistory(line)

		args := splitShellLine(line)

		switch args[0] {
		case "exit", "quit", "q":
			return nil
		case "help", "?":
			for _, c := range commands() {
				o.Println(c.HelpLine())
			}

			o.Println((&Command{Usage: "use <table>", Short: "Switch to another table"}).HelpLine())

			continue
		case "use":
			err := useTable(ctx, s, args[1:])
			if err != nil {
				o.ErrPrintln("error:", err)
			}

			continue
		}

		// Fresh commands per line so flag values do not carry over.
		cmds := commands()

		idx := slices.IndexFunc(cmds, func(c *Command) bool { return c.Name() == args[0] })
		if idx < 0 {
			o.ErrPrintln("error:", ErrUnknownCommand.Error()+":", args[0], "(type 'help' for commands)")

			continue
		}

		// Run reports its own errors; the shell keeps going.
		cmds[idx].Run(ctx, o, args[1:])
	}

	return nil
}

func useTable(ctx context.Context, s *session, args []string) error {
	if len(args) != 1 {
		return ErrMissingArgs
	}

	db, err := s.DB(ctx)
	if err != nil {
		return err
	}

	next, err := db.Table(ctx, args[0])
	if err != nil {
		return err
	}

	s.db = next
	s.cfg.Table = args[0]

	return nil
}

// splitShellLine splits a line into the command, any flags, the key and
// the rest of the line as one argument.
func splitShellLine(line string) []string {
	cmd, rest, _ := strings.Cut(line, " ")
	args := []string{cmd}

	for {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return args
		}

		word, tail, _ := strings.Cut(rest, " ")
		args = append(args, word)
		rest = tail

		if !strings.HasPrefix(word, "-") {
			break
		}
	}

	rest = strings.TrimSpace(rest)
	if rest != "" {
		args = append(args, rest)
	}

	return args
}

// historyFile returns ~/.qkv_history, or $XDG_STATE_HOME/qkv/history when set.
func historyFile(env map[string]string) string {
	if state := env["XDG_STATE_HOME"]; state != "" {
		return filepath.Join(state, "qkv", "history")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".qkv_history")
	}

	return ""
}

func saveHistory(state *liner.State, path string) {
	err := os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		return
	}

	_, _ = state.WriteHistory(f)
	_ = f.Close()
}
