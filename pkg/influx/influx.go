package influx

import (
	"context"
	"fmt"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
)

type Config interface {
	GetAddr() string
}

type Credentials struct {
	Username string
	Password string
	Timeout  time.Duration
}

type InfluxDB struct {
	Client client.Client
	Addr   string
}

// New creates an InfluxDB 1.x HTTP client and pings the server.
func New(ctx context.Context, cfg Config, creds Credentials) (*InfluxDB, error) {
	addr := cfg.GetAddr()

	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     addr,
		Username: creds.Username,
		Password: creds.Password,
		Timeout:  creds.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create influxdb client: %w", err)
	}

	pingTimeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		pingTimeout = time.Until(deadline)
	}

	if _, _, err := c.Ping(pingTimeout); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to ping influxdb at %s: %w", addr, err)
	}

	return &InfluxDB{
		Client: c,
		Addr:   addr,
	}, nil
}
