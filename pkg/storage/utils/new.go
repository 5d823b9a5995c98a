package storageutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/memgraph/pkg/storage"
	"github.com/papercomputeco/memgraph/pkg/storage/inmemory"
	"github.com/papercomputeco/memgraph/pkg/storage/postgres"
	"github.com/papercomputeco/memgraph/pkg/storage/sqlite"
)

const (
	ProviderSQLite   = "sqlite"
	ProviderPostgres = "postgres"
	ProviderInMemory = "inmemory"
)

type NewStorageDriverOpts struct {
	ProviderType string
	SQLitePath   string
	PostgresDSN  string
	Logger       *slog.Logger
}

// Durable reports whether the provider keeps data across restarts.
func Durable(providerType string) bool {
	return providerType == ProviderSQLite || providerType == ProviderPostgres
}

func NewStorageDriver(ctx context.Context, o *NewStorageDriverOpts) (storage.Driver, error) {
	switch o.ProviderType {
	case ProviderSQLite, "":
		path := o.SQLitePath
		if path == "" {
			path = sqlite.InMemory
		}
		return sqlite.NewDriver(path, o.Logger)
	case ProviderPostgres:
		if o.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage requires a connection string")
		}
		return postgres.NewDriver(ctx, o.PostgresDSN, o.Logger)
	case ProviderInMemory:
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", o.ProviderType)
	}
}
