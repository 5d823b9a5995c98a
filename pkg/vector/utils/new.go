package vectorutils

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/papercomputeco/memgraph/pkg/vector"
	"github.com/papercomputeco/memgraph/pkg/vector/chromem"
	"github.com/papercomputeco/memgraph/pkg/vector/flat"
	"github.com/papercomputeco/memgraph/pkg/vector/qdrant"
	"github.com/papercomputeco/memgraph/pkg/vector/sqlitevec"
)

const (
	ProviderFlat      = "flat"
	ProviderSQLiteVec = "sqlitevec"
	ProviderChromem   = "chromem"
	ProviderQdrant    = "qdrant"
)

type NewVectorIndexOpts struct {
	ProviderType string

	// Target is a file path for sqlitevec, a directory for chromem, and
	// host:port for qdrant. Unused by flat.
	Target string

	Dimensions int
	Collection string
	Exact      bool
	HnswEf     uint64
	APIKey     string
	Logger     *slog.Logger
}

// InProcess reports whether the provider loses its entries when the process
// exits, so it must be rebuilt from storage on startup.
func InProcess(o *NewVectorIndexOpts) bool {
	switch o.ProviderType {
	case ProviderFlat, "":
		return true
	case ProviderChromem:
		return o.Target == ""
	case ProviderSQLiteVec:
		return o.Target == "" || o.Target == ":memory:"
	default:
		return false
	}
}

func NewVectorIndex(ctx context.Context, o *NewVectorIndexOpts) (vector.Index, error) {
	switch o.ProviderType {
	case ProviderFlat, "":
		return flat.New(flat.Config{Dimensions: o.Dimensions}, o.Logger), nil
	case ProviderSQLiteVec:
		path := o.Target
		if path == "" {
			path = ":memory:"
		}
		return sqlitevec.New(sqlitevec.Config{
			DBPath:     path,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case ProviderChromem:
		return chromem.New(chromem.Config{
			Path:       o.Target,
			Collection: o.Collection,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case ProviderQdrant:
		host, port, err := splitTarget(o.Target)
		if err != nil {
			return nil, err
		}
		return qdrant.New(ctx, qdrant.Config{
			Host:       host,
			Port:       port,
			APIKey:     o.APIKey,
			Collection: o.Collection,
			Dimensions: o.Dimensions,
			Exact:      o.Exact,
			HnswEf:     o.HnswEf,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector index provider: %s", o.ProviderType)
	}
}

// splitTarget parses "host" or "host:port".
func splitTarget(target string) (string, int, error) {
	if target == "" {
		return "", 0, nil
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// no port
		return target, 0, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, nil
}
