package influx

import (
	"context"
	"fmt"

	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/models"
)

const precision = "s"

// Store writes gps points to one InfluxDB database. The client handle is
// shared by all concurrent writes.
type Store struct {
	client   client.Client
	database string
	schema   models.Schema
}

func NewStore(c client.Client, database string, schema models.Schema) *Store {
	return &Store{
		client:   c,
		database: database,
		schema:   schema,
	}
}

func (s *Store) ListDatabases(ctx context.Context) ([]string, error) {
	const op = "influx.ListDatabases"

	resp, err := s.query(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var names []string
	for _, result := range resp.Results {
		for _, series := range result.Series {
			for _, row := range series.Values {
				if len(row) == 0 {
					continue
				}
				if name, ok := row[0].(string); ok {
					names = append(names, name)
				}
			}
		}
	}

	return names, nil
}

func (s *Store) CreateDatabase(ctx context.Context, name string) error {
	const op = "influx.CreateDatabase"

	if _, err := s.query(ctx, fmt.Sprintf("CREATE DATABASE %s", quoteIdent(name))); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// WritePoint writes exactly one point. Fields are coerced to the declared
// schema types before submission.
func (s *Store) WritePoint(ctx context.Context, p models.Point) error {
	const op = "influx.WritePoint"

	tags, fields, err := coerce(s.schema, p.Tags(), p.Fields())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  s.database,
		Precision: precision,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	pt, err := client.NewPoint(s.schema.Measurement, tags, fields, p.Time)
	if err != nil {
		return fmt.Errorf("%s: build point: %w", op, err)
	}
	bp.AddPoint(pt)

	if err := run(ctx, func() error { return s.client.Write(bp) }); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) query(ctx context.Context, command string) (*client.Response, error) {
	var resp *client.Response

	err := run(ctx, func() error {
		r, err := s.client.Query(client.NewQuery(command, "", ""))
		if err != nil {
			return err
		}
		if r.Error() != nil {
			return r.Error()
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", command, err)
	}

	return resp, nil
}

// run executes fn, returning early with ctx.Err() if ctx is done first. The
// v1 client has no context support, so fn keeps running in the background.
func run(ctx context.Context, fn func() error) error {
	if ctx.Done() == nil {
		return fn()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
