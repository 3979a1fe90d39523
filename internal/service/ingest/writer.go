package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/models"
	"github.com/Mark48Evo/gps-influxdb/internal/domain/types"
	"github.com/Mark48Evo/gps-influxdb/pkg/metrics"
	wrap "github.com/Mark48Evo/gps-influxdb/pkg/logger/wrapper"
)

// AsyncWriter submits every point on its own goroutine. Failures go to the
// error sink and are never retried.
type AsyncWriter struct {
	store   PointWriter
	sink    ErrorSink
	metrics *metrics.Pipeline

	wg       sync.WaitGroup
	inFlight atomic.Int64
}

func NewAsyncWriter(store PointWriter, sink ErrorSink, m *metrics.Pipeline) *AsyncWriter {
	return &AsyncWriter{
		store:   store,
		sink:    sink,
		metrics: m,
	}
}

// Submit writes p in the background and returns a future that yields the
// outcome once and is then closed. The write is detached from ctx
// cancellation: an in-flight write is never aborted by shutdown.
func (w *AsyncWriter) Submit(ctx context.Context, p models.Point) <-chan error {
	done := make(chan error, 1)
	ctx = context.WithoutCancel(wrap.WithAction(ctx, types.ActionWritePoint))

	w.wg.Add(1)
	w.inFlight.Add(1)

	go func() {
		defer w.wg.Done()
		defer w.inFlight.Add(-1)
		defer close(done)

		done <- w.write(ctx, p)
	}()

	return done
}

func (w *AsyncWriter) write(ctx context.Context, p models.Point) (err error) {
	const op = "AsyncWriter.write"

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in store client: %v", r)
		}
		w.metrics.RecordWrite(err, time.Since(start))

		if err != nil {
			err = wrap.Error(ctx, fmt.Errorf("%s: %w: %w", op, types.ErrWriteFailed, err))
			w.sink.Report(ctx, err, p)
		}
	}()

	return w.store.WritePoint(ctx, p)
}

// InFlight returns the number of writes not yet completed.
func (w *AsyncWriter) InFlight() int64 {
	return w.inFlight.Load()
}

// Wait blocks until every submitted write has completed or ctx is done.
func (w *AsyncWriter) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%d writes still in flight: %w", w.InFlight(), ctx.Err())
	}
}
