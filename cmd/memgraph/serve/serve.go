// Package servecmder provides the serve command that runs the memgraph API
// and MCP server.
package servecmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/papercomputeco/memgraph/pkg/config"
	"github.com/papercomputeco/memgraph/pkg/logger"
	storageutils "github.com/papercomputeco/memgraph/pkg/storage/utils"
)

const shutdownTimeout = 10 * time.Second

type serveCommander struct {
	configDir string
	debug     bool
	logFile   string
	viper     *viper.Viper
	logger    *slog.Logger

	// flag targets; resolved values are read back through viper
	listen         string
	storage        string
	sqlitePath     string
	postgresDSN    string
	vectorProvider string
	vectorTarget   string
	dimensions     uint
	collection     string
	exact          bool
	hnswEf         uint
	eventstream    string
	brokers        string
	topic          string
	workers        uint
	queueSize      uint
}

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagVectorProvider,
	config.FlagVectorTarget,
	config.FlagVectorDims,
	config.FlagVectorColl,
	config.FlagVectorExact,
	config.FlagVectorHnswEf,
	config.FlagEventStream,
	config.FlagBrokers,
	config.FlagTopic,
	config.FlagWorkers,
	config.FlagQueueSize,
}

const serveLongDesc string = `Run the memgraph server.

Serves the REST API under /v1 and the MCP endpoint at /mcp on one listener.
Settings come from flags, MEMGRAPH_* environment variables, config.toml in
the .memgraph directory, then defaults.

With durable storage (sqlite, postgres) and an in-process vector index (flat,
or chromem and sqlitevec without a target) the index is rebuilt from storage
on startup.

--log-file appends JSON records with source locations to a file alongside
the console output.

Examples:
  memgraph serve
  memgraph serve --storage postgres --postgres-dsn postgres://localhost/memgraph
  memgraph serve --vector-index qdrant --vector-target localhost:6334 --dimensions 768
  memgraph serve --log-file /var/log/memgraph.jsonl`

const serveShortDesc string = "Run the memgraph server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Registry, serveFlags)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Registry, config.FlagStorage, &cmder.storage)
	config.AddStringFlag(cmd, config.Registry, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Registry, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Registry, config.FlagVectorProvider, &cmder.vectorProvider)
	config.AddStringFlag(cmd, config.Registry, config.FlagVectorTarget, &cmder.vectorTarget)
	config.AddUintFlag(cmd, config.Registry, config.FlagVectorDims, &cmder.dimensions)
	config.AddStringFlag(cmd, config.Registry, config.FlagVectorColl, &cmder.collection)
	config.AddBoolFlag(cmd, config.Registry, config.FlagVectorExact, &cmder.exact)
	config.AddUintFlag(cmd, config.Registry, config.FlagVectorHnswEf, &cmder.hnswEf)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventStream, &cmder.eventstream)
	config.AddStringFlag(cmd, config.Registry, config.FlagBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, config.Registry, config.FlagTopic, &cmder.topic)
	config.AddUintFlag(cmd, config.Registry, config.FlagWorkers, &cmder.workers)
	config.AddUintFlag(cmd, config.Registry, config.FlagQueueSize, &cmder.queueSize)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")

	return cmd
}

func (c *serveCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var logFile io.Writer
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logFile = f
	}

	pretty := term.IsTerminal(int(os.Stdout.Fd()))
	c.logger = newLogger(c.debug, pretty, os.Stdout, logFile)

	// spinner only on a terminal
	var progress io.Writer
	if pretty {
		progress = os.Stderr
	}

	cfg := config.FromViper(c.viper)

	sqlitePath := cfg.Storage.SQLitePath
	if cfg.Storage.Provider == storageutils.ProviderSQLite || cfg.Storage.Provider == "" {
		cfger, err := config.NewConfiger(c.configDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		sqlitePath = cfger.SQLitePath(sqlitePath)
	}

	s, err := buildStack(ctx, stackOpts{
		config:       cfg,
		sqlitePath:   sqlitePath,
		vectorAPIKey: c.viper.GetString("vector_index.api_key"),
		logger:       c.logger,
		progress:     progress,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := s.close(); err != nil {
			c.logger.Error("closing server components", "error", err)
		}
	}()

	c.logger.Info("memgraph ready",
		"listen", cfg.API.Listen,
		"storage", cfg.Storage.Provider,
		"vector_index", cfg.VectorIndex.Provider,
		"eventstream", cfg.EventStream.Provider,
		"reindexed", s.reindexed,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// newLogger logs to console and, when logFile is set, also writes JSON
// records with source locations to logFile.
func newLogger(debug, pretty bool, console, logFile io.Writer) *slog.Logger {
	l := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(pretty),
		logger.WithWriters(console),
	)
	if logFile == nil {
		return l
	}
	return logger.Multi(l, logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithSource(true),
		logger.WithWriters(logFile),
	))
}
