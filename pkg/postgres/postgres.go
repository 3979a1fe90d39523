package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgreDB struct {
	Pool     *pgxpool.Pool
	DBConfig *pgxpool.Config
}

type Config interface {
	GetDSN() string
}

func New(ctx context.Context, config Config) (*PostgreDB, error) {
	dbConfig, err := pgxpool.ParseConfig(config.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	return NewWithConfig(ctx, dbConfig)
}

// NewWithDatabase connects with the same settings as config but to database.
func NewWithDatabase(ctx context.Context, config *pgxpool.Config, database string) (*PostgreDB, error) {
	dbConfig := config.Copy()
	dbConfig.ConnConfig.Database = database
	return NewWithConfig(ctx, dbConfig)
}

func NewWithConfig(ctx context.Context, dbConfig *pgxpool.Config) (*PostgreDB, error) {
	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, err
	}

	// Ping the database
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgreDB{
		Pool:     pool,
		DBConfig: dbConfig,
	}, nil
}
