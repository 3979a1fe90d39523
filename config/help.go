package config

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Mark48Evo/gps-influxdb/pkg/logger"
	wrap "github.com/Mark48Evo/gps-influxdb/pkg/logger/wrapper"
)

const HelpMessage = `
gps-influxdb - stores decoded GPS nav.pvt fixes from RabbitMQ in a time-series database.

Usage:
  gps-influxdb [--config-path=config.yaml]

Environment:
  INFLUXDB_HOST        InfluxDB host or URL            (default localhost)
  INFLUXDB_DB          InfluxDB database               (default mark48evo)
  INFLUXDB_USER        InfluxDB user
  INFLUXDB_PASSWORD    InfluxDB password
  INFLUXDB_TIMEOUT     InfluxDB request timeout        (default 0s, none)
  RABBITMQ_HOST        AMQP URI                        (default amqp://localhost)
  RABBITMQ_EXCHANGE    decoder event exchange          (default system.gps)
  RABBITMQ_QUEUE       queue bound to nav.pvt events   (default gps-influxdb)
  STORE_DRIVER         influxdb | postgres             (default influxdb)
  POSTGRES_DSN         postgres connection string
  HTTP_PORT            monitoring HTTP port            (default 3010)
  STATS_PUSH_INTERVAL  /ws/stats push period          (default 5s)
  SERVICE_NAME         name reported in logs and /health (default gps-influxdb)
  SHUTDOWN_TIMEOUT     time allowed for pending writes (default 10s)
  LOG_LEVEL            DEBUG | INFO | WARN | ERROR     (default INFO)
`

func PrintHelp() {
	fmt.Print(HelpMessage)
}

// PrintConfig logs the effective configuration with credentials masked.
func PrintConfig(ctx context.Context, cfg *Config, log logger.Logger) {
	ctx = wrap.WithAction(ctx, "print_config")

	log.Info(ctx, "configuration",
		"store_driver", cfg.Store.Driver,
		"influxdb_addr", cfg.InfluxDB.GetAddr(),
		"influxdb_db", cfg.InfluxDB.Database,
		"influxdb_user", cfg.InfluxDB.User,
		"influxdb_password", mask(cfg.InfluxDB.Password),
		"postgres_dsn", redactURL(cfg.Postgres.DSN),
		"rabbitmq", redactURL(cfg.RabbitMQ.GetDSN()),
		"rabbitmq_exchange", cfg.RabbitMQ.Exchange,
		"rabbitmq_queue", cfg.RabbitMQ.Queue,
		"http_port", cfg.HTTP.Port,
		"log_level", cfg.LogLevel,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}
