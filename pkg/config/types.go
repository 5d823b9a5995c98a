package config

import (
	"fmt"
	"strconv"
)

// Config is the persistent memgraph configuration stored as config.toml in
// the .memgraph/ directory.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	VectorIndex VectorIndexConfig `toml:"vector_index"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Ingest      IngestConfig      `toml:"ingest"`
}

// StorageConfig selects and locates the storage backend.
type StorageConfig struct {
	Provider    string `toml:"provider,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// VectorIndexConfig selects and locates the vector index backend.
type VectorIndexConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
	Collection string `toml:"collection,omitempty"`
	Exact      bool   `toml:"exact,omitempty"`

	// HnswEf is the qdrant HNSW search beam size. Zero keeps the server default.
	HnswEf uint `toml:"hnsw_ef,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that talk to a running API
// server. APITarget is a full URL.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// EventStreamConfig configures change event publishing. Brokers is a comma
// separated list of host:port pairs.
type EventStreamConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// IngestConfig sizes the asynchronous ingest pool.
type IngestConfig struct {
	Workers   uint `toml:"workers,omitempty"`
	QueueSize uint `toml:"queue_size,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.provider":     stringKey(func(c *Config) *string { return &c.Storage.Provider }),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),

	"vector_index.provider":   stringKey(func(c *Config) *string { return &c.VectorIndex.Provider }),
	"vector_index.target":     stringKey(func(c *Config) *string { return &c.VectorIndex.Target }),
	"vector_index.dimensions": uintKey("vector_index.dimensions", func(c *Config) *uint { return &c.VectorIndex.Dimensions }),
	"vector_index.collection": stringKey(func(c *Config) *string { return &c.VectorIndex.Collection }),
	"vector_index.exact":      boolKey("vector_index.exact", func(c *Config) *bool { return &c.VectorIndex.Exact }),
	"vector_index.hnsw_ef":    uintKey("vector_index.hnsw_ef", func(c *Config) *uint { return &c.VectorIndex.HnswEf }),

	"api.listen":        stringKey(func(c *Config) *string { return &c.API.Listen }),
	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),

	"eventstream.provider": stringKey(func(c *Config) *string { return &c.EventStream.Provider }),
	"eventstream.brokers":  stringKey(func(c *Config) *string { return &c.EventStream.Brokers }),
	"eventstream.topic":    stringKey(func(c *Config) *string { return &c.EventStream.Topic }),

	"ingest.workers":    uintKey("ingest.workers", func(c *Config) *uint { return &c.Ingest.Workers }),
	"ingest.queue_size": uintKey("ingest.queue_size", func(c *Config) *uint { return &c.Ingest.QueueSize }),
}

// orderedKeys lists configKeys in TOML section order.
var orderedKeys = []string{
	"storage.provider",
	"storage.sqlite_path",
	"storage.postgres_dsn",
	"vector_index.provider",
	"vector_index.target",
	"vector_index.dimensions",
	"vector_index.collection",
	"vector_index.exact",
	"vector_index.hnsw_ef",
	"api.listen",
	"client.api_target",
	"eventstream.provider",
	"eventstream.brokers",
	"eventstream.topic",
	"ingest.workers",
	"ingest.queue_size",
}
