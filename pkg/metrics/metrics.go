package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors. Every component registers on an explicit registry so tests can
// build isolated instances.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Pipeline holds the write-path and broker metrics. A nil *Pipeline is valid
// and records nothing.
type Pipeline struct {
	WritesTotal      *prometheus.CounterVec
	WriteDuration    prometheus.Histogram
	WriteFailures    prometheus.Counter
	MalformedTotal   prometheus.Counter
	MessagesConsumed *prometheus.CounterVec
}

func NewPipeline(reg prometheus.Registerer) *Pipeline {
	f := promauto.With(reg)

	return &Pipeline{
		WritesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gps_writes_total",
				Help: "Total number of points submitted to the time-series store",
			},
			[]string{"status"},
		),
		WriteDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gps_write_duration_seconds",
				Help:    "Time-series store write duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		WriteFailures: f.NewCounter(
			prometheus.CounterOpts{
				Name: "gps_write_failures_total",
				Help: "Total number of failed point writes reported to the error sink",
			},
		),
		MalformedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "gps_malformed_total",
				Help: "Total number of fixes rejected as malformed",
			},
		),
		MessagesConsumed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rabbitmq_messages_consumed_total",
				Help: "Total number of messages consumed from RabbitMQ",
			},
			[]string{"queue", "status"},
		),
	}
}

// RecordWrite records the outcome of one store write
func (p *Pipeline) RecordWrite(err error, duration time.Duration) {
	if p == nil {
		return
	}
	p.WritesTotal.WithLabelValues(status(err)).Inc()
	p.WriteDuration.Observe(duration.Seconds())
}

// RecordWriteFailure counts a failure delivered to the error sink
func (p *Pipeline) RecordWriteFailure() {
	if p == nil {
		return
	}
	p.WriteFailures.Inc()
}

// RecordMalformed counts a rejected fix
func (p *Pipeline) RecordMalformed() {
	if p == nil {
		return
	}
	p.MalformedTotal.Inc()
}

// RecordRabbitMQConsume records RabbitMQ consume metrics
func (p *Pipeline) RecordRabbitMQConsume(queue string, err error) {
	if p == nil {
		return
	}
	p.MessagesConsumed.WithLabelValues(queue, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// HTTP holds the monitoring server request metrics.
type HTTP struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        prometheus.Gauge
}

func NewHTTP(reg prometheus.Registerer) *HTTP {
	f := promauto.With(reg)

	return &HTTP{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		InFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
	}
}

// Record records one served HTTP request
func (h *HTTP) Record(method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	h.RequestsTotal.WithLabelValues(method, path, status).Inc()
	h.RequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
