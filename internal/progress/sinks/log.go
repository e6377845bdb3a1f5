package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/jamscout/jamscout/internal/progress"
)

// LogSink writes one structured log line per progress event. Crawl results
// and failures surface at info/warn; discovery and skip chatter stays at
// debug so incremental runs do not flood the log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs the event using structured fields.
func (s *LogSink) Consume(_ context.Context, evt progress.Event) error {
	fields := []zap.Field{
		zap.String("run_id", evt.RunUUID().String()),
		zap.String("jam_id", evt.JamID),
	}
	switch evt.Stage {
	case progress.StageCrawled:
		fields = append(fields,
			zap.String("name", evt.JamName),
			zap.String("category", evt.Category.String()),
		)
		s.logger.Info("jam crawled", fields...)
	case progress.StageFailed:
		fields = append(fields, zap.String("error", evt.Err))
		s.logger.Warn("jam failed", fields...)
	case progress.StageSkipped:
		s.logger.Debug("jam skipped", fields...)
	default:
		s.logger.Debug("jam discovered", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
