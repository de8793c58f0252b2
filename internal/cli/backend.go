package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/calvinalkan/quickkv/pkg/quickdb"
	"github.com/calvinalkan/quickkv/pkg/quickdb/jsonfile"
	"github.com/calvinalkan/quickkv/pkg/quickdb/memory"
	"github.com/calvinalkan/quickkv/pkg/quickdb/sqlite"
)

// session holds what every command of one invocation shares. The database
// is opened on first use so help and print-config never touch storage.
type session struct {
	cfg    Config
	logger *slog.Logger
	env    map[string]string
	in     io.Reader

	db     *quickdb.DB
	closer io.Closer
}

// DB opens the configured backend on first call and returns the same DB
// afterwards.
func (s *session) DB(ctx context.Context) (*quickdb.DB, error) {
	if s.db != nil {
		return s.db, nil
	}

	driver, closer, err := openDriver(ctx, s.cfg, s.logger)
	if err != nil {
		return nil, err
	}

	opts := []quickdb.Option{
		quickdb.WithTable(s.cfg.Table),
		quickdb.WithLogger(s.logger),
	}

	if s.cfg.NormalKeys {
		opts = append(opts, quickdb.WithNormalKeys())
	}

	if s.cfg.StrictPaths {
		opts = append(opts, quickdb.WithStrictPaths())
	}

	db, err := quickdb.New(ctx, driver, opts...)
	if err != nil {
		_ = closer.Close()

		return nil, err
	}

	s.db = db
	s.closer = closer

	return db, nil
}

// Close flushes and releases the backend if it was opened.
func (s *session) Close() error {
	if s.closer == nil {
		return nil
	}

	err := s.closer.Close()
	s.closer = nil
	s.db = nil

	return err
}

func openDriver(ctx context.Context, cfg Config, logger *slog.Logger) (quickdb.Driver, io.Closer, error) {
	switch cfg.Driver {
	case DriverJSON:
		d, err := jsonfile.Open(ctx, jsonfile.Options{
			Path:    cfg.PathAbs,
			Logger:  logger,
			Indent:  cfg.Indent,
			Compact: cfg.Indent == "",
			Lock:    cfg.Lock,
		})
		if err != nil {
			return nil, nil, err
		}

		return d, d, nil
	case DriverSQLite:
		d, err := sqlite.Open(ctx, cfg.PathAbs, sqlite.Options{Logger: logger})
		if err != nil {
			return nil, nil, err
		}

		return d, d, nil
	case DriverMemory:
		return memory.NewDriver(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
