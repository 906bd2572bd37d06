package sheetlock

import "log/slog"

// Options holds configuration for the Protector.
type Options struct {
	rowsPerChunk  int
	byteThreshold int
	rowSizer      RowSizer
	sheetFilter   string
	logger        *slog.Logger
}

func defaultOptions() *Options {
	return &Options{
		rowsPerChunk:  DefaultRowsPerChunk,
		byteThreshold: DefaultByteThreshold,
		rowSizer:      ApproxRowSize,
	}
}

// Option configures the Protector.
type Option func(*Options)

// WithRowsPerChunk sets how many rows are scanned before a forced flush (default: 1000).
func WithRowsPerChunk(n int) Option {
	return func(o *Options) { o.rowsPerChunk = n }
}

// WithByteThreshold sets the accumulated row size that triggers an early flush (default: 10000).
func WithByteThreshold(n int) Option {
	return func(o *Options) { o.byteThreshold = n }
}

// WithRowSizer replaces the row size estimate used against the threshold.
func WithRowSizer(fn RowSizer) Option {
	return func(o *Options) { o.rowSizer = fn }
}

// WithExactRowSize switches the threshold accounting to UTF-8 byte counts.
func WithExactRowSize(exact bool) Option {
	return func(o *Options) {
		if exact {
			o.rowSizer = ExactRowSize
		} else {
			o.rowSizer = ApproxRowSize
		}
	}
}

// WithSheetFilter restricts processing to sheets for which the expression
// evaluates to true. The expression sees `name` and `index`.
func WithSheetFilter(expression string) Option {
	return func(o *Options) { o.sheetFilter = expression }
}

// WithLogger sets the logger used for progress messages (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.logger = l }
}

func (o *Options) batchConfig(log *slog.Logger) BatchConfig {
	return BatchConfig{
		RowsPerChunk:  o.rowsPerChunk,
		ByteThreshold: o.byteThreshold,
		RowSizer:      o.rowSizer,
		Logger:        log,
	}
}
