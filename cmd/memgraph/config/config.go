// Package configcmder provides the config command for managing persistent
// memgraph configuration stored in the .memgraph/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memgraph/pkg/cliui"
	"github.com/papercomputeco/memgraph/pkg/config"
)

const configLongDesc string = `Manage persistent memgraph configuration.

Configuration is stored as config.toml in the .memgraph/ directory and
provides default values for command flags. CLI flags and MEMGRAPH_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  vector_index.provider, vector_index.target, vector_index.dimensions,
  vector_index.collection, vector_index.exact, vector_index.hnsw_ef,
  api.listen, client.api_target,
  eventstream.provider, eventstream.brokers, eventstream.topic,
  ingest.workers, ingest.queue_size

Use subcommands to get, set, or list configuration values:
  memgraph config set <key> <value>    Set a configuration value
  memgraph config get <key>            Get a configuration value
  memgraph config list                 List all configuration values

Examples:
  memgraph config set storage.provider postgres
  memgraph config set vector_index.dimensions 768
  memgraph config get api.listen
  memgraph config list`

const configShortDesc string = "Manage persistent memgraph configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(w io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}
