package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gometrics "github.com/rcrowley/go-metrics"
)

// Stats is a read-only view of the throughput counters.
type Stats struct {
	Total     uint64  `json:"total"`
	PerMinute float64 `json:"per_minute"`
}

// Throughput counts processed GPS messages: a monotonic total and a
// one-minute exponentially weighted rate.
type Throughput struct {
	total prometheus.Counter
	count atomic.Uint64
	meter gometrics.Meter
}

func NewThroughput(reg prometheus.Registerer) *Throughput {
	t := &Throughput{
		meter: gometrics.NewMeter(),
	}

	f := promauto.With(reg)
	t.total = f.NewCounter(prometheus.CounterOpts{
		Name: "gps_messages_processed_total",
		Help: "GPS messages processed",
	})
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "gps_messages_processed_per_minute",
		Help: "GPS messages processed per minute, one-minute moving average",
	}, t.perMinute)

	return t
}

// Mark counts one processed message.
func (t *Throughput) Mark() {
	t.count.Add(1)
	t.total.Inc()
	t.meter.Mark(1)
}

func (t *Throughput) Snapshot() Stats {
	return Stats{
		Total:     t.count.Load(),
		PerMinute: t.perMinute(),
	}
}

func (t *Throughput) perMinute() float64 {
	return t.meter.Rate1() * 60
}

// Stop detaches the rate meter from the go-metrics ticker.
func (t *Throughput) Stop() {
	t.meter.Stop()
}
