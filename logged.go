package canplot

import (
	"context"
	"log/slog"

	"github.com/notnil/canplot/canbus"
)

// NewLoggedSink returns a Sink decorator that logs every appended sample at
// the given level using logger, then forwards it to inner.
func NewLoggedSink(inner Sink, logger *slog.Logger, level slog.Level) Sink {
	return &loggedSink{
		inner:  inner,
		logger: logger,
		level:  level,
	}
}

// NewLoggedSinkWithFilter wraps the given Sink and logs appends only for
// samples whose frame satisfies the provided filter. If filter is nil, all
// samples are logged (same as NewLoggedSink behavior).
func NewLoggedSinkWithFilter(inner Sink, logger *slog.Logger, level slog.Level, filter canbus.FrameFilter) Sink {
	return &loggedSink{
		inner:  inner,
		logger: logger,
		level:  level,
		filter: filter,
	}
}

type loggedSink struct {
	inner  Sink
	logger *slog.Logger
	level  slog.Level
	filter canbus.FrameFilter
}

// Append logs the sample and forwards it to the inner Sink.
func (l *loggedSink) Append(s Sample) {
	if l.filter == nil || l.filter(s.Frame) {
		l.logger.Log(context.Background(), l.level, "canplot append",
			"channel", s.Channel,
			"timestamp", s.Timestamp,
			"position", s.Position,
			"frame", s.Frame.String(),
		)
	}
	l.inner.Append(s)
}
