package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"
)

var errNoCommand = errors.New("no command provided")

// Run is the main entry point. Returns exit code.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globalFlags := flag.NewFlagSet("qkv", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})

	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagCwd := globalFlags.StringP("cwd", "C", "", "Run as if started in `dir`")
	flagConfig := globalFlags.StringP("config", "c", "", "Use specified config `file`")
	flagDriver := globalFlags.String("driver", "", "Storage `driver`: json, sqlite or memory")
	flagPath := globalFlags.String("path", "", "Database `file` (default qkv.json or qkv.sqlite)")
	flagTable := globalFlags.String("table", "", "Table to operate on (default json)")
	flagVerbose := globalFlags.BoolP("verbose", "v", false, "Log storage activity to stderr")

	var argv []string
	if len(args) > 1 {
		argv = args[1:]
	}

	err := globalFlags.Parse(argv)
	if err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut, globalFlags)

		return 1
	}

	rest := globalFlags.Args()

	// "qkv" alone or "qkv --help" prints usage. Commands are listed from a
	// zero session since nothing is opened to render help.
	if *flagHelp || len(args) <= 1 {
		printUsage(out, allCommands(&session{}), globalFlags)

		return 0
	}

	if len(rest) == 0 {
		fprintln(errOut, "error:", errNoCommand)
		printUsage(errOut, allCommands(&session{}), globalFlags)

		return 1
	}

	overrides := ConfigLayer{}

	if globalFlags.Changed("driver") {
		overrides.Driver = flagDriver
	}

	if globalFlags.Changed("path") {
		overrides.Path = flagPath
	}

	if globalFlags.Changed("table") {
		overrides.Table = flagTable
	}

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: *flagCwd,
		ConfigPath:      *flagConfig,
		Overrides:       overrides,
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut, globalFlags)

		return 1
	}

	s := &session{
		cfg:    cfg,
		logger: newLogger(errOut, *flagVerbose),
		env:    env,
		in:     in,
	}

	commands := allCommands(s)

	idx := slices.IndexFunc(commands, func(c *Command) bool { return c.Name() == rest[0] })
	if idx < 0 {
		fprintln(errOut, "error:", ErrUnknownCommand.Error()+":", rest[0])
		printUsage(errOut, commands, globalFlags)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	o := NewIO(out, errOut)

	exitCode := commands[idx].Run(ctx, o, rest[1:])

	err = s.Close()
	if err != nil {
		fprintln(errOut, "error:", err)

		exitCode = 1
	}

	if exitCode != 0 {
		return exitCode
	}

	return o.Finish()
}

// allCommands lists every command bound to s, in help order.
func allCommands(s *session) []*Command {
	inShell := func() []*Command {
		return []*Command{
			GetCmd(s),
			SetCmd(s),
			HasCmd(s),
			DeleteCmd(s),
			AddCmd(s),
			SubCmd(s),
			PushCmd(s),
			PullCmd(s),
			AllCmd(s),
			DeleteAllCmd(s),
		}
	}

	return append(inShell(),
		ShellCmd(s, inShell),
		WatchCmd(s),
		PrintConfigCmd(&s.cfg),
	)
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, commands []*Command, globalFlags *flag.FlagSet) {
	fprintln(w, `qkv - quick key-value store

Usage: qkv [global flags] <command> [args]

Commands:`)

	for _, c := range commands {
		fprintln(w, c.HelpLine())
	}

	fprintln(w)
	printGlobalOptions(w, globalFlags)
	fprintln(w)
	fprintln(w, `Run "qkv <command> --help" for details on a command.`)
}

func printGlobalOptions(w io.Writer, globalFlags *flag.FlagSet) {
	fprintln(w, "Global flags:")

	var buf strings.Builder

	globalFlags.SetOutput(&buf)
	globalFlags.PrintDefaults()
	globalFlags.SetOutput(&strings.Builder{})

	_, _ = io.WriteString(w, buf.String())
}
