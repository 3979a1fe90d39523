package bootstrap

import (
	"context"
	"fmt"
	"slices"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/types"
	"github.com/Mark48Evo/gps-influxdb/pkg/logger"
	wrap "github.com/Mark48Evo/gps-influxdb/pkg/logger/wrapper"
)

// EnsureDatabase creates the database name unless the store already has it.
// Calling it for an existing database is a no-op. Every failure wraps
// types.ErrBootstrapFailed; the caller must not start ingesting after one.
func EnsureDatabase(ctx context.Context, catalog DatabaseCatalog, name string, log logger.Logger) error {
	const op = "bootstrap.EnsureDatabase"
	ctx = wrap.WithAction(ctx, types.ActionBootstrap)

	names, err := catalog.ListDatabases(ctx)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: list databases: %w: %w", op, types.ErrBootstrapFailed, err))
	}

	if slices.Contains(names, name) {
		log.Debug(ctx, "database already exists", "database", name)
		return nil
	}

	log.Info(ctx, "creating database", "database", name)

	if err := catalog.CreateDatabase(ctx, name); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: create database %q: %w: %w", op, name, types.ErrBootstrapFailed, err))
	}

	return nil
}
