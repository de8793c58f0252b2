package cli

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// newLogger returns the logger handed to the storage layer. Only warnings
// and errors are shown unless verbose is set. Colour is used only when w is
// a terminal.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	noColor := true

	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = colorable.NewColorable(f)
		noColor = false
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Round write durations to microseconds.
			if d, ok := a.Value.Any().(time.Duration); ok && len(groups) == 0 {
				return slog.String(a.Key, d.Round(time.Microsecond).String())
			}

			return a
		},
	}))
}
