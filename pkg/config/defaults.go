package config

const (
	defaultStorageProvider = "sqlite"
	// DefaultSQLiteFile is the database file created in the .memgraph/ directory
	// when storage.sqlite_path is unset.
	DefaultSQLiteFile = "memgraph.db"

	defaultVectorProvider   = "flat"
	defaultVectorCollection = "memories"

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "memgraph.events"

	defaultIngestWorkers   = 3
	defaultIngestQueueSize = 256
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		VectorIndex: VectorIndexConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
		Ingest: IngestConfig{
			Workers:   defaultIngestWorkers,
			QueueSize: defaultIngestQueueSize,
		},
	}
}
