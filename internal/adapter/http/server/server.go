package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Mark48Evo/gps-influxdb/config"
	"github.com/Mark48Evo/gps-influxdb/internal/adapter/http/handler"
	"github.com/Mark48Evo/gps-influxdb/internal/adapter/http/middleware"
	"github.com/Mark48Evo/gps-influxdb/pkg/logger"
	wrap "github.com/Mark48Evo/gps-influxdb/pkg/logger/wrapper"
	"github.com/Mark48Evo/gps-influxdb/pkg/metrics"
	ws "github.com/Mark48Evo/gps-influxdb/pkg/wsHub"
)

const serverIPAddress = "%s:%s"

type API struct {
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware
	reg    *prometheus.Registry

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	health *handler.Health
	stats  *handler.Stats
}

// Deps are the pipeline parts the monitoring endpoints read from.
type Deps struct {
	Stats        handler.StatsProvider
	Writes       handler.WriteQueue
	Broker       handler.BrokerStatus
	Subscription handler.SubscriptionStatus
	Hub          *ws.ConnectionHub
	Registry     *prometheus.Registry
}

func New(cfg config.Config, deps Deps, log logger.Logger) (*API, error) {
	if deps.Stats == nil {
		return nil, errors.New("stats provider is required")
	}
	if deps.Hub == nil {
		return nil, errors.New("websocket hub is required")
	}
	if deps.Registry == nil {
		return nil, errors.New("metrics registry is required")
	}

	api := &API{
		mux: http.NewServeMux(),
		routes: &handlers{
			health: handler.NewHealth(cfg.ServiceName, deps.Broker, deps.Subscription, log),
			stats:  handler.NewStats(deps.Stats, deps.Writes, deps.Hub, cfg.HTTP.StatsPushInterval, log),
		},
		m:    middleware.NewMiddleware(metrics.NewHTTP(deps.Registry), log),
		reg:  deps.Registry,
		addr: fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.HTTP.Port),
		cfg:  cfg,
		log:  log,
	}

	api.setupRoutes()

	api.server = &http.Server{
		Addr:              api.addr,
		Handler:           api.withMiddleware(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return api, nil
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

// Run starts serving and the stats broadcaster. Both stop with ctx or Stop.
func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go a.routes.stats.Broadcast(ctx)

	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// Handler exposes the full middleware chain, mainly for tests.
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

// withMiddleware applies middlewares to the mux
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(a.m.RequestID(a.m.Logging(a.m.Metrics(a.mux))))
}
