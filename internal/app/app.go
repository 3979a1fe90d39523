package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Mark48Evo/gps-influxdb/config"
	"github.com/Mark48Evo/gps-influxdb/internal/adapter/http/server"
	rabbitAdapter "github.com/Mark48Evo/gps-influxdb/internal/adapter/rabbit"
	"github.com/Mark48Evo/gps-influxdb/internal/domain/types"
	"github.com/Mark48Evo/gps-influxdb/internal/service/bootstrap"
	"github.com/Mark48Evo/gps-influxdb/internal/service/ingest"
	"github.com/Mark48Evo/gps-influxdb/pkg/logger"
	wrap "github.com/Mark48Evo/gps-influxdb/pkg/logger/wrapper"
	"github.com/Mark48Evo/gps-influxdb/pkg/metrics"
	"github.com/Mark48Evo/gps-influxdb/pkg/rabbit"
	ws "github.com/Mark48Evo/gps-influxdb/pkg/wsHub"
)

// App is the running ingestion process: store, broker subscription and
// the monitoring server.
type App struct {
	store      ingest.Store
	rabbit     *rabbit.RabbitMQ
	consumer   *rabbitAdapter.GPSConsumer
	subscriber *ingest.Subscriber
	writer     *ingest.AsyncWriter
	throughput *metrics.Throughput
	hub        *ws.ConnectionHub
	httpServer *server.API
	registry   *prometheus.Registry

	cfg config.Config
	log logger.Logger
}

// NewApplication connects the store, makes sure the target database exists
// and wires the pipeline. Nothing is consumed until Run.
func NewApplication(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	ctx = wrap.WithAction(ctx, types.ActionBootstrap)

	a := &App{
		registry: metrics.NewRegistry(),
		cfg:      cfg,
		log:      log,
	}

	if err := a.init(ctx); err != nil {
		a.close(ctx)
		return nil, err
	}

	return a, nil
}

func (a *App) init(ctx context.Context) error {
	store, err := newStore(ctx, a.cfg)
	if err != nil {
		a.log.Error(ctx, "failed to setup store", err, "driver", a.cfg.Store.Driver)
		return fmt.Errorf("%w: %w", types.ErrBootstrapFailed, err)
	}
	a.store = store

	if err := bootstrap.EnsureDatabase(ctx, store, a.cfg.InfluxDB.Database, a.log); err != nil {
		return err
	}

	if p, ok := store.(preparer); ok {
		if err := p.Prepare(ctx); err != nil {
			return fmt.Errorf("%w: %w", types.ErrBootstrapFailed, err)
		}
	}

	a.rabbit, err = rabbit.New(ctx, a.cfg.RabbitMQ.GetDSN(), a.log)
	if err != nil {
		a.log.Error(ctx, "failed to connect rabbitmq", err)
		return err
	}

	pipeline := metrics.NewPipeline(a.registry)
	a.throughput = metrics.NewThroughput(a.registry)
	a.writer = ingest.NewAsyncWriter(store, ingest.NewLogSink(a.log, pipeline), pipeline)
	a.subscriber = ingest.NewSubscriber(a.throughput, a.writer, pipeline, a.log)
	a.consumer = rabbitAdapter.NewGPSConsumer(a.rabbit, a.cfg.RabbitMQ.Exchange, a.cfg.RabbitMQ.Queue, pipeline, a.log)
	a.hub = ws.NewConnHub(a.log)

	a.httpServer, err = server.New(a.cfg, server.Deps{
		Stats:        a.throughput,
		Writes:       a.writer,
		Broker:       a.rabbit,
		Subscription: a.subscriber,
		Hub:          a.hub,
		Registry:     a.registry,
	}, a.log)
	if err != nil {
		a.log.Error(ctx, "failed to setup http server", err)
		return err
	}

	return nil
}

// Run subscribes to gps events and serves monitoring until a signal
// arrives or a component fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)

	a.httpServer.Run(ctx, errCh)

	subscribed := make(chan struct{})
	go func() {
		defer close(subscribed)
		if err := a.subscriber.Subscribe(ctx, a.consumer); err != nil {
			errCh <- err
		}
	}()

	defer func() {
		cancel()
		<-subscribed
		a.close(context.WithoutCancel(ctx))
		a.log.Info(ctx, "gps ingestion service closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	a.log.Info(ctx, "gps ingestion service started",
		"store", a.cfg.Store.Driver,
		"database", a.cfg.InfluxDB.Database,
		"queue", a.cfg.RabbitMQ.Queue,
	)

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		a.log.Info(ctx, "shutting down application", "signal", sig.String())
		return nil
	case <-ctx.Done():
		return nil
	}
}

// close releases everything that was set up, in reverse order. Pending
// writes get SHUTDOWN_TIMEOUT to finish before the store goes away.
func (a *App) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Warn(ctx, "failed to gracefully close http server", "error", err.Error())
		}
	}

	if a.hub != nil {
		a.hub.Close()
	}

	if a.rabbit != nil {
		if err := a.rabbit.Close(ctx); err != nil {
			a.log.Warn(ctx, "failed to close rabbitmq", "error", err.Error())
		}
	}

	if a.writer != nil {
		if err := a.writer.Wait(ctx); err != nil {
			a.log.Warn(ctx, "pending writes abandoned", "in_flight", a.writer.InFlight(), "error", err.Error())
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn(ctx, "failed to close store", "error", err.Error())
		}
	}

	if a.throughput != nil {
		a.throughput.Stop()
	}
}
