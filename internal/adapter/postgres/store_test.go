package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/models"
)

func TestCreateTableStatement(t *testing.T) {
	ddl := createTableStatement(models.GPSSchema)

	for _, want := range []string{
		`CREATE TABLE IF NOT EXISTS "gps"`,
		`time TIMESTAMPTZ NOT NULL`,
		`"fixType" TEXT NOT NULL`,
		`"numberOfSatellites" BIGINT`,
		`"verticalAccuracy" DOUBLE PRECISION`,
	} {
		if !strings.Contains(ddl, want) {
			t.Errorf("DDL missing %q:\n%s", want, ddl)
		}
	}
}

func TestInsertStatement(t *testing.T) {
	stmt := insertStatement(models.GPSSchema)

	if !strings.HasPrefix(stmt, `INSERT INTO "gps" (time, "fixType", "numberOfSatellites", "latitude"`) {
		t.Fatalf("unexpected statement: %s", stmt)
	}
	// time + 1 tag + 14 fields
	if !strings.HasSuffix(stmt, "$16)") {
		t.Fatalf("statement must have 16 placeholders: %s", stmt)
	}
}

func TestInsertArgs(t *testing.T) {
	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	p := models.Point{FixType: "3D", NumberOfSatellites: 8, Latitude: 37, VerticalAccuracy: 3, Time: ts}

	args, err := insertArgs(models.GPSSchema, p)
	if err != nil {
		t.Fatalf("insertArgs: %v", err)
	}
	if len(args) != 16 {
		t.Fatalf("args = %d, want 16", len(args))
	}
	if args[0] != ts || args[1] != "3D" || args[2] != int64(8) || args[3] != 37.0 || args[15] != 3.0 {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestWritePoint_NotPrepared(t *testing.T) {
	s := NewStore(nil, "gps", models.GPSSchema)

	if err := s.WritePoint(context.Background(), models.Point{}); !errors.Is(err, ErrNotPrepared) {
		t.Fatalf("err = %v, want ErrNotPrepared", err)
	}
}

func TestIsDuplicateDatabase(t *testing.T) {
	if !isDuplicateDatabase(&pgconn.PgError{Code: "42P04"}) {
		t.Fatalf("42P04 must be a duplicate database")
	}
	if isDuplicateDatabase(errors.New("other")) {
		t.Fatalf("plain error is not a duplicate database")
	}
}
