package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/models"
	"github.com/Mark48Evo/gps-influxdb/internal/domain/types"
	"github.com/Mark48Evo/gps-influxdb/internal/service/convert"
	"github.com/Mark48Evo/gps-influxdb/pkg/logger"
	wrap "github.com/Mark48Evo/gps-influxdb/pkg/logger/wrapper"
	"github.com/Mark48Evo/gps-influxdb/pkg/metrics"
)

// Subscriber binds the nav.pvt stream to the convert -> write chain.
type Subscriber struct {
	counters Counters
	writer   Submitter
	metrics  *metrics.Pipeline
	log      logger.Logger

	subscribed atomic.Bool
}

func NewSubscriber(counters Counters, writer Submitter, m *metrics.Pipeline, log logger.Logger) *Subscriber {
	return &Subscriber{
		counters: counters,
		writer:   writer,
		metrics:  m,
		log:      log,
	}
}

// Subscribe attaches s to source and blocks while source
// delivers. A Subscriber can be subscribed only once.
func (s *Subscriber) Subscribe(ctx context.Context, source EventSource) error {
	const op = "Subscriber.Subscribe"

	if !s.subscribed.CompareAndSwap(false, true) {
		return fmt.Errorf("%s: %w", op, types.ErrAlreadySubscribed)
	}

	ctx = wrap.WithEventKind(ctx, string(types.EventNavPVT))
	s.log.Info(ctx, "subscribed to gps events")

	if err := source.ConsumeNavPVT(ctx, s); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Subscribed reports whether Subscribe has been called.
func (s *Subscriber) Subscribed() bool {
	return s.subscribed.Load()
}

// HandleNavPVT counts the fix, converts it and submits the point without
// waiting for the store. A malformed fix is dropped and its error returned.
func (s *Subscriber) HandleNavPVT(ctx context.Context, fix models.NavPVT) error {
	ctx = wrap.WithAction(ctx, types.ActionHandleNavPVT)

	s.counters.Mark()

	p, err := convert.ToPoint(fix)
	if err != nil {
		s.metrics.RecordMalformed()
		s.log.Warn(ctx, "dropping fix", "reason", err.Error())
		return wrap.Error(ctx, err)
	}

	s.writer.Submit(ctx, p)

	s.log.Debug(ctx, "fix submitted",
		"time", p.Time,
		"fix_type", p.FixType,
		"satellites", p.NumberOfSatellites,
	)

	return nil
}

// HandleUndecodable counts a nav.pvt event whose data did not decode and
// drops it as malformed.
func (s *Subscriber) HandleUndecodable(ctx context.Context, err error) error {
	ctx = wrap.WithAction(ctx, types.ActionHandleNavPVT)

	s.counters.Mark()
	s.metrics.RecordMalformed()

	if !errors.Is(err, types.ErrMalformedRecord) {
		err = fmt.Errorf("%w: %w", types.ErrMalformedRecord, err)
	}
	s.log.Warn(ctx, "dropping undecodable fix", "reason", err.Error())
	return wrap.Error(ctx, err)
}
