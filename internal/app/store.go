package app

import (
	"context"
	"fmt"

	"github.com/Mark48Evo/gps-influxdb/config"
	influxstore "github.com/Mark48Evo/gps-influxdb/internal/adapter/influx"
	pgstore "github.com/Mark48Evo/gps-influxdb/internal/adapter/postgres"
	"github.com/Mark48Evo/gps-influxdb/internal/domain/models"
	"github.com/Mark48Evo/gps-influxdb/internal/domain/types"
	"github.com/Mark48Evo/gps-influxdb/internal/service/ingest"
	"github.com/Mark48Evo/gps-influxdb/pkg/influx"
	"github.com/Mark48Evo/gps-influxdb/pkg/postgres"
)

// preparer is implemented by stores that need a step between database
// creation and the first write.
type preparer interface {
	Prepare(ctx context.Context) error
}

// newStore connects the configured time-series backend.
func newStore(ctx context.Context, cfg config.Config) (ingest.Store, error) {
	switch cfg.Store.Driver {
	case types.StoreInfluxDB:
		db, err := influx.New(ctx, cfg.InfluxDB, influx.Credentials{
			Username: cfg.InfluxDB.User,
			Password: cfg.InfluxDB.Password,
			Timeout:  cfg.InfluxDB.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return influxstore.NewStore(db.Client, cfg.InfluxDB.Database, models.GPSSchema), nil

	case types.StorePostgres:
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to connect postgres: %w", err)
		}
		return pgstore.NewStore(db, cfg.InfluxDB.Database, models.GPSSchema), nil

	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownStoreDriver, cfg.Store.Driver)
	}
}
