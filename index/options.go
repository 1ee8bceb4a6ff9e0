package index

import "log/slog"

// Option configures Read.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	strictPaths bool
}

// WithLogger sets the logger used for parse statistics and absorbed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithStrictPaths makes Read fail when the directory bundle cannot be
// decoded. By default the failure is logged and the index is returned with
// every path left empty.
func WithStrictPaths(strict bool) Option {
	return func(c *config) {
		c.strictPaths = strict
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (c *config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}
