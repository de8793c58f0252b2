package jsonfile

import (
	"errors"
	"log/slog"
	"os"

	"github.com/calvinalkan/quickkv/pkg/fs"
)

// DefaultIndent is the indentation used for snapshot files unless
// [Options.Indent] says otherwise.
const DefaultIndent = "  "

// DefaultPerm is the file mode for snapshot files.
const DefaultPerm os.FileMode = 0o644

// Options configures [Open].
type Options struct {
	// Path is the snapshot file. Required.
	//
	// Missing parent directories are created. With Lock set, a lock file is
	// created at Path+".lock".
	Path string

	// FS is the filesystem to use. Defaults to [fs.NewReal].
	FS fs.FS

	// Logger receives write failures at Error and completed writes at Debug.
	// Defaults to a logger that discards everything.
	Logger *slog.Logger

	// Indent is the per-level indentation of the snapshot. Empty means
	// [DefaultIndent]; use Compact for single-line output.
	Indent string

	// Compact writes the snapshot without any whitespace.
	Compact bool

	// Perm is the mode of the snapshot file. Zero means [DefaultPerm].
	Perm os.FileMode

	// Lock takes an exclusive advisory lock for the lifetime of the driver,
	// so a second Open of the same path fails with [fs.ErrWouldBlock]
	// instead of silently racing.
	Lock bool
}

func (o Options) withDefaults() (Options, error) {
	if o.Path == "" {
		return o, errors.New("jsonfile: path is empty")
	}

	if o.FS == nil {
		o.FS = fs.NewReal()
	}

	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	if o.Indent == "" {
		o.Indent = DefaultIndent
	}

	if o.Compact {
		o.Indent = ""
	}

	if o.Perm == 0 {
		o.Perm = DefaultPerm
	}

	return o, nil
}
