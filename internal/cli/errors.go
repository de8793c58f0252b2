package cli

import "errors"

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrUnknownDriver      = errors.New("unknown driver")
	ErrTableEmpty         = errors.New("table cannot be empty")
	ErrMissingArgs        = errors.New("missing arguments")
	ErrTooManyArgs        = errors.New("too many arguments")
	ErrUnknownCommand     = errors.New("unknown command")
	ErrWatchNeedsJSON     = errors.New("watch needs the json driver")
)
