package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/quickkv/pkg/quickdb/jsonfile"
)

// WatchCmd returns the watch command.
func WatchCmd(s *session) *Command {
	flags := flag.NewFlagSet("watch", flag.ContinueOnError)
	count := flags.IntP("count", "n", 0, "Exit after this many changes (0 means until interrupted)")

	return &Command{
		Flags: flags,
		Usage: "watch [--count n]",
		Short: "Print the table whenever the snapshot changes",
		Long: `Print every row of the table, then print it again each time another
process changes the snapshot file. Rows are printed as by "all"; every
reprint starts with a "---" line.

watch only reads the file and takes no lock, so it runs next to a writer.
It needs the json driver.`,
		Args: 0,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			if s.cfg.Driver != DriverJSON {
				return fmt.Errorf("%w (driver is %s)", ErrWatchNeedsJSON, s.cfg.Driver)
			}

			return watchSnapshot(ctx, s, o, *count)
		},
	}
}

func watchSnapshot(ctx context.Context, s *session, o *IO, count int) error {
	path := filepath.Clean(s.cfg.PathAbs)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	defer func() { _ = w.Close() }()

	// Writes replace the file by rename, so the directory is watched and
	// events are filtered by name.
	err = w.Add(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	last, err := renderSnapshot(path, s.cfg.Table)
	if err != nil {
		return err
	}

	o.Printf("%s", last)

	changes := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}

			out, err := renderSnapshot(path, s.cfg.Table)
			if err != nil {
				s.logger.WarnContext(ctx, "Skipping unreadable snapshot", "path", path, "err", err)

				continue
			}

			if out == last {
				continue
			}

			last = out

			o.Println("---")
			o.Printf("%s", out)

			changes++
			if count > 0 && changes >= count {
				return nil
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			s.logger.WarnContext(ctx, "Error watching snapshot", "path", path, "err", err)
		}
	}
}

// renderSnapshot reads path and formats the rows of table. A file that
// does not exist yet renders as an empty table.
func renderSnapshot(path, table string) (string, error) {
	store, err := jsonfile.Load(nil, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}

		return "", err
	}

	var b strings.Builder

	for _, r := range store.Table(table).Rows() {
		fmt.Fprintf(&b, "%s\t%s\n", r.ID, r.Value.String())
	}

	return b.String(), nil
}
