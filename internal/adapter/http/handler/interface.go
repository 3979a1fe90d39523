package handler

import "github.com/Mark48Evo/gps-influxdb/pkg/metrics"

type (
	// StatsProvider exposes the throughput counters read-only.
	StatsProvider interface {
		Snapshot() metrics.Stats
	}

	// BrokerStatus reports the broker connection state.
	BrokerStatus interface {
		IsConnectionClosed() bool
	}

	// SubscriptionStatus reports whether the event handler is attached.
	SubscriptionStatus interface {
		Subscribed() bool
	}

	// WriteQueue reports writes submitted but not yet acknowledged.
	WriteQueue interface {
		InFlight() int64
	}
)
