package ingest

import (
	"context"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/models"
)

type (
	// PointWriter persists one canonical point.
	PointWriter interface {
		WritePoint(ctx context.Context, p models.Point) error
	}

	// Store is the full time-series store surface the service needs.
	Store interface {
		ListDatabases(ctx context.Context) ([]string, error)
		CreateDatabase(ctx context.Context, name string) error
		PointWriter
		Close() error
	}

	// ErrorSink receives failed writes. Implementations must not panic.
	ErrorSink interface {
		Report(ctx context.Context, err error, p models.Point)
	}

	// Submitter hands a point to the store without waiting for the outcome.
	Submitter interface {
		Submit(ctx context.Context, p models.Point) <-chan error
	}

	// Counters is marked once per event reaching the handler.
	Counters interface {
		Mark()
	}

	// NavPVTHandler receives every nav.pvt event, including those whose
	// data could not be decoded.
	NavPVTHandler = interface {
		HandleNavPVT(ctx context.Context, fix models.NavPVT) error
		HandleUndecodable(ctx context.Context, err error) error
	}

	// EventSource delivers decoded nav.pvt fixes in arrival order, one at a
	// time, until ctx is cancelled.
	EventSource interface {
		ConsumeNavPVT(ctx context.Context, h NavPVTHandler) error
	}
)
