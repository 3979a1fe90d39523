package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/models"
	"github.com/Mark48Evo/gps-influxdb/internal/domain/types"
	"github.com/Mark48Evo/gps-influxdb/pkg/logger"
	"github.com/Mark48Evo/gps-influxdb/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const fixJSON = `{
	"numSV": 8, "lat": 37.0, "lon": -122.0,
	"height": 15230, "hMSL": 15000,
	"gSpeed": 1200, "velN": 100, "velE": -50, "velD": 0,
	"headMot": 45.0, "sAcc": 30, "headAcc": 1.2, "hAcc": 2500, "vAcc": 3000,
	"fixType": {"value": 3, "string": "3D"},
	"year": 2023, "month": 1, "day": 1, "hour": 0, "minute": 0, "second": 0
}`

var testLog = logger.New(io.Discard, "test", logger.LevelDebug)

func validFix(t *testing.T) models.NavPVT {
	t.Helper()
	var fix models.NavPVT
	if err := json.Unmarshal([]byte(fixJSON), &fix); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return fix
}

// fakeStore records written points and fails with err when set.
type fakeStore struct {
	mu     sync.Mutex
	points []models.Point
	err    error
	block  chan struct{}
}

func (f *fakeStore) WritePoint(_ context.Context, p models.Point) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.points = append(f.points, p)
	return nil
}

func (f *fakeStore) written() []models.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Point(nil), f.points...)
}

type panicStore struct{}

func (panicStore) WritePoint(context.Context, models.Point) error {
	panic("driver bug")
}

// recordingSink keeps every reported error.
type recordingSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *recordingSink) Report(_ context.Context, err error, _ models.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs)
}

// sliceSource replays fixes sequentially, like the broker consumer does.
type sliceSource struct {
	fixes   []models.NavPVT
	results []error
}

func (s *sliceSource) ConsumeNavPVT(ctx context.Context, h NavPVTHandler) error {
	for _, fix := range s.fixes {
		s.results = append(s.results, h.HandleNavPVT(ctx, fix))
	}
	return nil
}

func newThroughput(t *testing.T) *metrics.Throughput {
	t.Helper()
	th := metrics.NewThroughput(prometheus.NewRegistry())
	t.Cleanup(th.Stop)
	return th
}

func waitWrites(t *testing.T, w *AsyncWriter) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Wait(ctx); err != nil {
		t.Fatalf("writes did not complete: %v", err)
	}
}

func TestAsyncWriter_Success(t *testing.T) {
	store := &fakeStore{}
	sink := &recordingSink{}
	w := NewAsyncWriter(store, sink, nil)

	p := models.Point{FixType: "3D", NumberOfSatellites: 8}
	if err := <-w.Submit(context.Background(), p); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if got := store.written(); len(got) != 1 || got[0] != p {
		t.Fatalf("written = %+v, want exactly %+v", got, p)
	}
	if sink.count() != 0 {
		t.Fatalf("sink must not be called on success")
	}
}

func TestAsyncWriter_FailureGoesToSink(t *testing.T) {
	down := errors.New("influx unreachable")
	sink := &recordingSink{}
	pipeline := metrics.NewPipeline(prometheus.NewRegistry())
	w := NewAsyncWriter(&fakeStore{err: down}, sink, pipeline)

	err := <-w.Submit(context.Background(), models.Point{})
	if !errors.Is(err, types.ErrWriteFailed) || !errors.Is(err, down) {
		t.Fatalf("future = %v, want ErrWriteFailed wrapping store error", err)
	}
	if sink.count() != 1 {
		t.Fatalf("sink reports = %d, want 1", sink.count())
	}
	if got := testutil.ToFloat64(pipeline.WritesTotal.WithLabelValues("error")); got != 1 {
		t.Fatalf("error writes = %v, want 1", got)
	}
}

func TestAsyncWriter_RecoversStorePanic(t *testing.T) {
	sink := &recordingSink{}
	w := NewAsyncWriter(panicStore{}, sink, nil)

	if err := <-w.Submit(context.Background(), models.Point{}); !errors.Is(err, types.ErrWriteFailed) {
		t.Fatalf("err = %v, want ErrWriteFailed", err)
	}
	if sink.count() != 1 {
		t.Fatalf("sink reports = %d, want 1", sink.count())
	}
}

func TestAsyncWriter_DetachedFromCancel(t *testing.T) {
	store := &fakeStore{block: make(chan struct{})}
	w := NewAsyncWriter(store, &recordingSink{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	future := w.Submit(ctx, models.Point{FixType: "2D"})
	cancel()
	close(store.block)

	if err := <-future; err != nil {
		t.Fatalf("cancelled caller context aborted the write: %v", err)
	}
}

func TestAsyncWriter_WaitTimesOut(t *testing.T) {
	store := &fakeStore{block: make(chan struct{})}
	w := NewAsyncWriter(store, &recordingSink{}, nil)
	w.Submit(context.Background(), models.Point{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := w.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait = %v, want deadline exceeded", err)
	}
	if w.InFlight() != 1 {
		t.Fatalf("InFlight = %d, want 1", w.InFlight())
	}

	close(store.block)
	waitWrites(t, w)
	if w.InFlight() != 0 {
		t.Fatalf("InFlight = %d after drain, want 0", w.InFlight())
	}
}

func TestSubscriber_FaultIsolation(t *testing.T) {
	const events = 50

	sink := &recordingSink{}
	writer := NewAsyncWriter(&fakeStore{err: errors.New("always fails")}, sink, nil)
	counters := newThroughput(t)
	sub := NewSubscriber(counters, writer, nil, testLog)

	source := &sliceSource{}
	for range events {
		source.fixes = append(source.fixes, validFix(t))
	}

	if err := sub.Subscribe(context.Background(), source); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	waitWrites(t, writer)

	if got := counters.Snapshot().Total; got != events {
		t.Fatalf("counted %d events, want %d", got, events)
	}
	if len(source.results) != events {
		t.Fatalf("handler ran %d times, want %d", len(source.results), events)
	}
	for i, err := range source.results {
		if err != nil {
			t.Fatalf("event %d: handler returned %v; write failures must not reach the dispatcher", i, err)
		}
	}
	if sink.count() != events {
		t.Fatalf("sink reports = %d, want %d", sink.count(), events)
	}
}

func TestSubscriber_DoesNotWaitForSlowStore(t *testing.T) {
	store := &fakeStore{block: make(chan struct{})}
	writer := NewAsyncWriter(store, &recordingSink{}, nil)
	sub := NewSubscriber(newThroughput(t), writer, nil, testLog)

	fix := validFix(t)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 3 {
			if err := sub.HandleNavPVT(context.Background(), fix); err != nil {
				t.Errorf("HandleNavPVT: %v", err)
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("handler blocked on a pending write")
	}

	if writer.InFlight() != 3 {
		t.Fatalf("InFlight = %d, want 3", writer.InFlight())
	}

	close(store.block)
	waitWrites(t, writer)

	if got := len(store.written()); got != 3 {
		t.Fatalf("written = %d, want 3", got)
	}
}

func TestSubscriber_MalformedIsCountedAndDropped(t *testing.T) {
	store := &fakeStore{}
	writer := NewAsyncWriter(store, &recordingSink{}, nil)
	counters := newThroughput(t)
	pipeline := metrics.NewPipeline(prometheus.NewRegistry())
	sub := NewSubscriber(counters, writer, pipeline, testLog)

	bad := validFix(t)
	bad.Lat = nil

	source := &sliceSource{fixes: []models.NavPVT{bad, validFix(t)}}
	if err := sub.Subscribe(context.Background(), source); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	waitWrites(t, writer)

	if !errors.Is(source.results[0], types.ErrMalformedRecord) {
		t.Fatalf("first result = %v, want ErrMalformedRecord", source.results[0])
	}
	if source.results[1] != nil {
		t.Fatalf("malformed fix affected the next one: %v", source.results[1])
	}
	if got := counters.Snapshot().Total; got != 2 {
		t.Fatalf("Total = %d, want 2", got)
	}
	if got := len(store.written()); got != 1 {
		t.Fatalf("written = %d, want 1", got)
	}
	if got := testutil.ToFloat64(pipeline.MalformedTotal); got != 1 {
		t.Fatalf("malformed counter = %v, want 1", got)
	}
}

func TestSubscriber_EndToEnd(t *testing.T) {
	store := &fakeStore{}
	writer := NewAsyncWriter(store, &recordingSink{}, nil)
	sub := NewSubscriber(newThroughput(t), writer, nil, testLog)

	if err := sub.Subscribe(context.Background(), &sliceSource{fixes: []models.NavPVT{validFix(t)}}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	waitWrites(t, writer)

	written := store.written()
	if len(written) != 1 {
		t.Fatalf("written = %d, want 1", len(written))
	}
	p := written[0]
	if p.FixType != "3D" || p.NumberOfSatellites != 8 || p.HorizontalAccuracy != 2.5 {
		t.Fatalf("unexpected point: %+v", p)
	}
	if !p.Time.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Time = %v", p.Time)
	}
}

func TestSubscriber_SubscribeOnce(t *testing.T) {
	sub := NewSubscriber(newThroughput(t), NewAsyncWriter(&fakeStore{}, &recordingSink{}, nil), nil, testLog)

	if sub.Subscribed() {
		t.Fatalf("new subscriber must not be subscribed")
	}
	if err := sub.Subscribe(context.Background(), &sliceSource{}); err != nil {
		t.Fatalf("first Subscribe: %v", err)
	}
	if !sub.Subscribed() {
		t.Fatalf("Subscribed = false after Subscribe")
	}
	if err := sub.Subscribe(context.Background(), &sliceSource{}); !errors.Is(err, types.ErrAlreadySubscribed) {
		t.Fatalf("second Subscribe = %v, want ErrAlreadySubscribed", err)
	}
}

func TestErrorTrace(t *testing.T) {
	root := errors.New("connection refused")
	err := errors.Join(types.ErrWriteFailed, root)

	trace := errorTrace(err)
	if len(trace) != 3 {
		t.Fatalf("trace = %v, want joined error plus both causes", trace)
	}
	if trace[2] != "connection refused" {
		t.Fatalf("trace[2] = %q", trace[2])
	}
}

func TestLogSink_Report(t *testing.T) {
	var buf bytes.Buffer
	pipeline := metrics.NewPipeline(prometheus.NewRegistry())
	sink := NewLogSink(logger.New(&buf, "test", logger.LevelDebug), pipeline)

	p := models.Point{FixType: "3D", Time: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
	sink.Report(context.Background(), errors.Join(types.ErrWriteFailed, errors.New("timeout")), p)

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("log line: %v", err)
	}
	if rec["message"] != "write failed" {
		t.Fatalf("message = %v", rec["message"])
	}
	if rec["fix_type"] != "3D" || rec["point_time"] != "2023-01-01T00:00:00Z" {
		t.Fatalf("point attributes missing: %v", rec)
	}
	if _, ok := rec["trace"].([]any); !ok {
		t.Fatalf("trace = %T, want list", rec["trace"])
	}
	if got := testutil.ToFloat64(pipeline.WriteFailures); got != 1 {
		t.Fatalf("write failures = %v, want 1", got)
	}
}

func TestSubscriber_UndecodableIsCountedAndDropped(t *testing.T) {
	store := &fakeStore{}
	counters := newThroughput(t)
	pipeline := metrics.NewPipeline(prometheus.NewRegistry())
	sub := NewSubscriber(counters, NewAsyncWriter(store, &recordingSink{}, nil), pipeline, testLog)

	decodeErr := errors.New(`json: cannot unmarshal string into Go struct field NavPVT.numSV of type int64`)
	err := sub.HandleUndecodable(context.Background(), decodeErr)

	if !errors.Is(err, types.ErrMalformedRecord) {
		t.Fatalf("err = %v, want ErrMalformedRecord", err)
	}
	if !errors.Is(err, decodeErr) {
		t.Fatalf("err = %v, lost the decode error", err)
	}
	if got := counters.Snapshot().Total; got != 1 {
		t.Fatalf("Total = %d, want 1", got)
	}
	if got := testutil.ToFloat64(pipeline.MalformedTotal); got != 1 {
		t.Fatalf("malformed counter = %v, want 1", got)
	}
	if got := len(store.written()); got != 0 {
		t.Fatalf("written = %d, want 0", got)
	}
}
