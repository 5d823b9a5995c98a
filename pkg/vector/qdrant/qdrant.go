// Package qdrant provides a vector.Index backed by a remote Qdrant
// collection.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	sdk "github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/memgraph/pkg/vector"
)

const (
	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	// DefaultCollection is the collection name used when none is configured.
	DefaultCollection = "memories"
)

// Index implements vector.Index over a Qdrant collection using the cosine
// distance. Re-adding an id replaces its point.
//
// Qdrant searches an HNSW graph, which is approximate. Exact forces a full
// scan; HnswEf widens the beam to trade latency for recall.
type Index struct {
	client     *sdk.Client
	collection string
	dimensions int
	params     *sdk.SearchParams
	logger     *slog.Logger
}

// Config holds configuration for the Qdrant index.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool

	// Collection is created with the cosine distance if it does not exist.
	Collection string

	// Dimensions is the vector size of the collection.
	Dimensions int

	// Exact disables the HNSW index for searches.
	Exact bool

	// HnswEf is the HNSW beam size. Zero keeps the server default.
	HnswEf uint64
}

// New connects to Qdrant and ensures the collection exists.
func New(ctx context.Context, c Config, logger *slog.Logger) (*Index, error) {
	if c.Dimensions <= 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions must be configured")
	}

	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	collection := c.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := sdk.NewClient(&sdk.Config{
		Host:                   host,
		Port:                   port,
		APIKey:                 c.APIKey,
		UseTLS:                 c.UseTLS,
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}

	x := &Index{
		client:     client,
		collection: collection,
		dimensions: c.Dimensions,
		params:     &sdk.SearchParams{Exact: sdk.PtrOf(c.Exact)},
		logger:     logger,
	}
	if c.HnswEf > 0 {
		x.params.HnswEf = sdk.PtrOf(c.HnswEf)
	}

	if err := x.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("qdrant vector index initialized",
		"host", host,
		"port", port,
		"collection", collection,
		"dimensions", c.Dimensions,
		"exact", c.Exact,
		"hnsw_ef", c.HnswEf,
	)

	return x, nil
}

func (x *Index) ensureCollection(ctx context.Context) error {
	exists, err := x.client.CollectionExists(ctx, x.collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", x.collection, err)
	}
	if exists {
		return nil
	}

	err = x.client.CreateCollection(ctx, &sdk.CreateCollection{
		CollectionName: x.collection,
		VectorsConfig: sdk.NewVectorsConfig(&sdk.VectorParams{
			Size:     uint64(x.dimensions),
			Distance: sdk.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", x.collection, err)
	}
	return nil
}

// Add upserts a point for id and waits for it to be searchable.
func (x *Index) Add(ctx context.Context, id uuid.UUID, embedding []float32) error {
	op := "add " + id.String()
	if err := vector.CheckDimensions(op, x.dimensions, embedding); err != nil {
		return err
	}
	if vector.Magnitude(embedding) == 0 {
		return &vector.Error{Op: op, Err: vector.ErrZeroVector}
	}

	_, err := x.client.Upsert(ctx, &sdk.UpsertPoints{
		CollectionName: x.collection,
		Wait:           sdk.PtrOf(true),
		Points: []*sdk.PointStruct{
			{
				Id:      sdk.NewIDUUID(id.String()),
				Vectors: sdk.NewVectors(embedding...),
			},
		},
	})
	if err != nil {
		return &vector.Error{Op: op, Err: err}
	}

	x.logger.Debug("upserted point to qdrant", "id", id)
	return nil
}

// Delete removes the point of id and waits for the deletion to apply.
func (x *Index) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := x.client.Delete(ctx, &sdk.DeletePoints{
		CollectionName: x.collection,
		Wait:           sdk.PtrOf(true),
		Points:         sdk.NewPointsSelector(sdk.NewIDUUID(id.String())),
	})
	if err != nil {
		return &vector.Error{Op: "delete " + id.String(), Err: err}
	}

	x.logger.Debug("deleted point from qdrant", "id", id)
	return nil
}

// Search queries the collection for the k nearest points.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]vector.Result, error) {
	if k <= 0 {
		return []vector.Result{}, nil
	}
	if err := vector.CheckDimensions("search", x.dimensions, query); err != nil {
		return nil, err
	}
	if vector.Magnitude(query) == 0 {
		return nil, &vector.Error{Op: "search", Err: vector.ErrZeroVector}
	}

	points, err := x.client.Query(ctx, &sdk.QueryPoints{
		CollectionName: x.collection,
		Query:          sdk.NewQuery(query...),
		Limit:          sdk.PtrOf(uint64(k)),
		Params:         x.params,
	})
	if err != nil {
		return nil, &vector.Error{Op: "search", Err: err}
	}

	results := make([]vector.Result, 0, len(points))
	for _, p := range points {
		id, err := uuid.Parse(p.GetId().GetUuid())
		if err != nil {
			return nil, &vector.Error{Op: "search", Err: fmt.Errorf("decoding point id: %w", err)}
		}
		results = append(results, vector.Result{ID: id, Score: p.GetScore()})
	}

	x.logger.Debug("queried qdrant", "k", k, "results", len(results))
	return results, nil
}

// Close closes the gRPC connection.
func (x *Index) Close() error {
	return x.client.Close()
}
