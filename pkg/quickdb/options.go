package quickdb

import "log/slog"

// DefaultTable is the table a [DB] is bound to unless [WithTable] is given.
const DefaultTable = "json"

type options struct {
	table       string
	normalKeys  bool
	strictPaths bool
	logger      *slog.Logger
}

// Option configures [New].
type Option func(*options)

// WithTable binds the DB to table instead of [DefaultTable].
func WithTable(table string) Option {
	return func(o *options) { o.table = table }
}

// WithNormalKeys turns off path splitting: dots in keys are ordinary
// characters and every key addresses a whole row.
func WithNormalKeys() Option {
	return func(o *options) { o.normalKeys = true }
}

// WithStrictPaths makes dotted writes fail with [ErrType] instead of
// discarding a non-object value on the way to the target member.
func WithStrictPaths() Option {
	return func(o *options) { o.strictPaths = true }
}

// WithLogger sets the logger used to report coercions. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func defaultOptions() options {
	return options{
		table:  DefaultTable,
		logger: slog.New(slog.DiscardHandler),
	}
}
