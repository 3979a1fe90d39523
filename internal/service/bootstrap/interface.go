package bootstrap

import "context"

// DatabaseCatalog lists and creates databases in the time-series store.
type DatabaseCatalog interface {
	ListDatabases(ctx context.Context) ([]string, error)
	CreateDatabase(ctx context.Context, name string) error
}
