package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/models"
	"github.com/Mark48Evo/gps-influxdb/pkg/logger"
	"github.com/Mark48Evo/gps-influxdb/pkg/metrics"
)

// LogSink logs failed writes and counts them. The point is dropped.
type LogSink struct {
	log     logger.Logger
	metrics *metrics.Pipeline
}

func NewLogSink(log logger.Logger, m *metrics.Pipeline) *LogSink {
	return &LogSink{
		log:     log,
		metrics: m,
	}
}

func (s *LogSink) Report(ctx context.Context, err error, p models.Point) {
	s.metrics.RecordWriteFailure()

	s.log.Error(ctx, "write failed", err,
		"trace", errorTrace(err),
		"point_time", p.Time.Format(time.RFC3339),
		"fix_type", p.FixType,
	)
}

// errorTrace flattens the wrap chain of err, outermost first.
func errorTrace(err error) []string {
	var trace []string
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		trace = append(trace, e.Error())

		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		default:
			walk(errors.Unwrap(e))
		}
	}
	walk(err)

	return trace
}
