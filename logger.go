package lexseg

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/lexseg/merge"
)

// Logger wraps slog.Logger with lexseg-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithSegment adds a segment name field to the logger.
func (l *Logger) WithSegment(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("segment", name),
	}
}

// WithStore adds a store kind field to the logger.
func (l *Logger) WithStore(kind string) *Logger {
	return &Logger{
		Logger: l.Logger.With("store", kind),
	}
}

// LogOpen logs opening a segment.
func (l *Logger) LogOpen(ctx context.Context, name string, seg *Segment, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open segment failed",
			"segment", name,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "segment opened",
		"segment", name,
		"segment_id", seg.ID().String(),
		"docs", seg.NumDocs(),
		"alive_docs", seg.NumAliveDocs(),
		"bytes", seg.Size(),
	)
}

// LogMerge logs a merge of inputs into output.
func (l *Logger) LogMerge(ctx context.Context, inputs []string, output string, stats *merge.Stats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed",
			"inputs", inputs,
			"output", output,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "merge completed",
		"inputs", len(inputs),
		"output", output,
		"segment_id", stats.SegmentID.String(),
		"docs", stats.NumDocs,
		"dropped_docs", stats.DroppedDocs,
		"bytes", stats.Bytes,
		"duration", stats.Duration,
	)
}
