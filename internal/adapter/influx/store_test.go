package influx

import (
	"context"
	"errors"
	"testing"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"
	influxmodels "github.com/influxdata/influxdb1-client/models"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/models"
	"github.com/Mark48Evo/gps-influxdb/internal/domain/types"
)

// fakeClient is an in-memory client.Client.
type fakeClient struct {
	databases []string
	queries   []string
	writes    []client.BatchPoints
	writeErr  error
	block     chan struct{}
}

func (f *fakeClient) Ping(time.Duration) (time.Duration, string, error) { return 0, "1.8", nil }

func (f *fakeClient) Write(bp client.BatchPoints) error {
	if f.block != nil {
		<-f.block
	}
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, bp)
	return nil
}

func (f *fakeClient) Query(q client.Query) (*client.Response, error) {
	f.queries = append(f.queries, q.Command)

	if q.Command == "SHOW DATABASES" {
		values := make([][]interface{}, 0, len(f.databases))
		for _, db := range f.databases {
			values = append(values, []interface{}{db})
		}
		return &client.Response{Results: []client.Result{{
			Series: []influxmodels.Row{{Name: "databases", Columns: []string{"name"}, Values: values}},
		}}}, nil
	}

	return &client.Response{Results: []client.Result{{}}}, nil
}

func (f *fakeClient) QueryAsChunk(client.Query) (*client.ChunkedResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) Close() error { return nil }

func TestStore_ListDatabases(t *testing.T) {
	fc := &fakeClient{databases: []string{"_internal", "mark48evo"}}
	s := NewStore(fc, "mark48evo", models.GPSSchema)

	names, err := s.ListDatabases(context.Background())
	if err != nil {
		t.Fatalf("ListDatabases: %v", err)
	}
	if len(names) != 2 || names[1] != "mark48evo" {
		t.Fatalf("names = %v", names)
	}
}

func TestStore_CreateDatabaseQuotes(t *testing.T) {
	fc := &fakeClient{}
	s := NewStore(fc, "gps", models.GPSSchema)

	if err := s.CreateDatabase(context.Background(), `my"db`); err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	if want := `CREATE DATABASE "my\"db"`; fc.queries[0] != want {
		t.Fatalf("query = %s, want %s", fc.queries[0], want)
	}
}

func TestStore_WritePoint(t *testing.T) {
	fc := &fakeClient{}
	s := NewStore(fc, "mark48evo", models.GPSSchema)

	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	p := models.Point{FixType: "3D", NumberOfSatellites: 8, Latitude: 37, HeightEllipsoid: 15.23, Time: ts}

	if err := s.WritePoint(context.Background(), p); err != nil {
		t.Fatalf("WritePoint: %v", err)
	}
	if len(fc.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(fc.writes))
	}

	bp := fc.writes[0]
	if bp.Database() != "mark48evo" || bp.Precision() != "s" {
		t.Fatalf("batch config = %s/%s", bp.Database(), bp.Precision())
	}
	if len(bp.Points()) != 1 {
		t.Fatalf("points per write = %d, want exactly 1", len(bp.Points()))
	}

	pt := bp.Points()[0]
	if pt.Name() != "gps" {
		t.Fatalf("measurement = %s", pt.Name())
	}
	if pt.Tags()["fixType"] != "3D" {
		t.Fatalf("tags = %v", pt.Tags())
	}
	if !pt.Time().Equal(ts) {
		t.Fatalf("time = %v", pt.Time())
	}

	fields, err := pt.Fields()
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	if v, ok := fields["numberOfSatellites"].(int64); !ok || v != 8 {
		t.Fatalf("numberOfSatellites = %#v, want int64(8)", fields["numberOfSatellites"])
	}
	if v, ok := fields["heightEllipsoid"].(float64); !ok || v != 15.23 {
		t.Fatalf("heightEllipsoid = %#v", fields["heightEllipsoid"])
	}
}

func TestStore_WriteError(t *testing.T) {
	down := errors.New("503 service unavailable")
	s := NewStore(&fakeClient{writeErr: down}, "db", models.GPSSchema)

	if err := s.WritePoint(context.Background(), models.Point{FixType: "2D"}); !errors.Is(err, down) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
}

func TestStore_WriteHonoursContext(t *testing.T) {
	fc := &fakeClient{block: make(chan struct{})}
	defer close(fc.block)
	s := NewStore(fc, "db", models.GPSSchema)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := s.WritePoint(ctx, models.Point{FixType: "3D"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestCoerce(t *testing.T) {
	tags, fields, err := coerce(models.GPSSchema,
		map[string]string{"fixType": "3D"},
		map[string]any{"numberOfSatellites": 7.0, "latitude": int64(1)},
	)
	if err != nil {
		t.Fatalf("coerce: %v", err)
	}
	if tags["fixType"] != "3D" {
		t.Fatalf("tags = %v", tags)
	}
	if _, ok := fields["numberOfSatellites"].(int64); !ok {
		t.Fatalf("numberOfSatellites = %T, want int64", fields["numberOfSatellites"])
	}
	if _, ok := fields["latitude"].(float64); !ok {
		t.Fatalf("latitude = %T, want float64", fields["latitude"])
	}
}

func TestCoerce_Undeclared(t *testing.T) {
	if _, _, err := coerce(models.GPSSchema, nil, map[string]any{"altitude": 1.0}); !errors.Is(err, types.ErrUndeclaredField) {
		t.Fatalf("err = %v, want ErrUndeclaredField", err)
	}
	if _, _, err := coerce(models.GPSSchema, map[string]string{"device": "x"}, nil); !errors.Is(err, types.ErrUndeclaredTag) {
		t.Fatalf("err = %v, want ErrUndeclaredTag", err)
	}
	if _, _, err := coerce(models.GPSSchema, nil, map[string]any{"latitude": "north"}); err == nil {
		t.Fatalf("string latitude must be rejected")
	}
}
