package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/models"
	"github.com/Mark48Evo/gps-influxdb/internal/domain/types"
	"github.com/Mark48Evo/gps-influxdb/pkg/postgres"
)

// SQLSTATE 42P04 duplicate_database
const duplicateDatabase = "42P04"

var ErrNotPrepared = errors.New("postgres store not prepared")

// Store keeps gps points in a table of the target database. Catalog
// operations run on the maintenance connection; writes go to the target
// database once Prepare has run.
type Store struct {
	admin    *postgres.PostgreDB
	database string
	schema   models.Schema

	mu     sync.RWMutex
	target *postgres.PostgreDB

	insertSQL string
}

func NewStore(admin *postgres.PostgreDB, database string, schema models.Schema) *Store {
	return &Store{
		admin:     admin,
		database:  database,
		schema:    schema,
		insertSQL: insertStatement(schema),
	}
}

func (s *Store) ListDatabases(ctx context.Context) ([]string, error) {
	const op = "postgres.ListDatabases"

	rows, err := s.admin.Pool.Query(ctx, `SELECT datname FROM pg_database WHERE NOT datistemplate`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return names, nil
}

func (s *Store) CreateDatabase(ctx context.Context, name string) error {
	const op = "postgres.CreateDatabase"

	_, err := s.admin.Pool.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize())
	if err != nil && !isDuplicateDatabase(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Prepare connects to the target database and creates the measurement table.
func (s *Store) Prepare(ctx context.Context) error {
	const op = "postgres.Prepare"

	target, err := postgres.NewWithDatabase(ctx, s.admin.DBConfig, s.database)
	if err != nil {
		return fmt.Errorf("%s: connect %q: %w", op, s.database, err)
	}

	if _, err := target.Pool.Exec(ctx, createTableStatement(s.schema)); err != nil {
		target.Pool.Close()
		return fmt.Errorf("%s: create table: %w", op, err)
	}

	s.mu.Lock()
	s.target = target
	s.mu.Unlock()

	return nil
}

func (s *Store) WritePoint(ctx context.Context, p models.Point) error {
	const op = "postgres.WritePoint"

	s.mu.RLock()
	target := s.target
	s.mu.RUnlock()
	if target == nil {
		return fmt.Errorf("%s: %w", op, ErrNotPrepared)
	}

	args, err := insertArgs(s.schema, p)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := target.Pool.Exec(ctx, s.insertSQL, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.target != nil {
		s.target.Pool.Close()
		s.target = nil
	}
	s.admin.Pool.Close()
	return nil
}

func isDuplicateDatabase(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == duplicateDatabase
}

func columnType(ft types.FieldType) string {
	switch ft {
	case types.FieldInteger:
		return "BIGINT"
	case types.FieldString:
		return "TEXT"
	case types.FieldBoolean:
		return "BOOLEAN"
	default:
		return "DOUBLE PRECISION"
	}
}

// createTableStatement renders the table DDL: time, then tags, then fields
// in schema order.
func createTableStatement(schema models.Schema) string {
	cols := []string{"time TIMESTAMPTZ NOT NULL"}
	for _, tag := range schema.Tags {
		cols = append(cols, pgx.Identifier{tag}.Sanitize()+" TEXT NOT NULL")
	}
	for _, f := range schema.Fields {
		cols = append(cols, pgx.Identifier{f.Name}.Sanitize()+" "+columnType(f.Type))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		pgx.Identifier{schema.Measurement}.Sanitize(),
		strings.Join(cols, ",\n\t"),
	)
}

func insertStatement(schema models.Schema) string {
	cols := []string{"time"}
	for _, tag := range schema.Tags {
		cols = append(cols, pgx.Identifier{tag}.Sanitize())
	}
	for _, f := range schema.Fields {
		cols = append(cols, pgx.Identifier{f.Name}.Sanitize())
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{schema.Measurement}.Sanitize(),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
	)
}

// insertArgs orders the point's values to match insertStatement.
func insertArgs(schema models.Schema, p models.Point) ([]any, error) {
	tags := p.Tags()
	fields := p.Fields()

	args := make([]any, 0, 1+len(schema.Tags)+len(schema.Fields))
	args = append(args, p.Time)

	for _, tag := range schema.Tags {
		args = append(args, tags[tag])
	}
	for _, f := range schema.Fields {
		v, ok := fields[f.Name]
		if !ok {
			return nil, fmt.Errorf("point has no value for %s", f.Name)
		}
		args = append(args, v)
	}

	for name := range fields {
		if _, ok := schema.FieldType(name); !ok {
			return nil, fmt.Errorf("%w: %s", types.ErrUndeclaredField, name)
		}
	}

	return args, nil
}
