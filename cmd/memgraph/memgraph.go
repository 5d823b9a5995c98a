// Package memgraphcmder is the root memgraph command.
package memgraphcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/memgraph/cmd/memgraph/config"
	getcmder "github.com/papercomputeco/memgraph/cmd/memgraph/get"
	querycmder "github.com/papercomputeco/memgraph/cmd/memgraph/query"
	servecmder "github.com/papercomputeco/memgraph/cmd/memgraph/serve"
	versioncmder "github.com/papercomputeco/memgraph/cmd/version"
)

const memgraphLongDesc string = `Memgraph is a hybrid vector and graph memory store for AI agents.

Run the server and query it using:
  memgraph serve           Run the API and MCP server
  memgraph query <json>    Run a hybrid query against a running server
  memgraph get <id>        Show one memory and its relationships
  memgraph config          Manage persistent configuration`

const memgraphShortDesc string = "Memgraph - hybrid memory for agents"

func NewMemgraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "memgraph",
		Short:        memgraphShortDesc,
		Long:         memgraphLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .memgraph/ config directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(querycmder.NewQueryCmd())
	cmd.AddCommand(getcmder.NewGetCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
