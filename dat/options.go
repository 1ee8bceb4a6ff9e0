package dat

import "log/slog"

// Option configures a Reader.
type Option func(*Reader)

// With64Bit overrides the bit width inferred from the file name.
func With64Bit(is64 bool) Option {
	return func(r *Reader) {
		r.is64 = is64
		r.widthSet = true
	}
}

// WithLogger sets the logger for boundary discovery diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

func (r *Reader) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}
