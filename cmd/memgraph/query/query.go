// Package querycmder provides the query command that runs a hybrid query
// against a running memgraph server.
package querycmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memgraph/api"
	"github.com/papercomputeco/memgraph/pkg/client"
	"github.com/papercomputeco/memgraph/pkg/cliui"
	"github.com/papercomputeco/memgraph/pkg/config"
	"github.com/papercomputeco/memgraph/pkg/query"
	"github.com/papercomputeco/memgraph/pkg/utils"
)

const previewLen = 60

type queryCommander struct {
	apiTarget string
	file      string
	asJSON    bool
}

const queryLongDesc string = `Run a hybrid query against the memgraph API.

The query is a JSON document read from the argument, from --file, or from
stdin when neither is given. It is validated locally before it is sent.

Example:
  memgraph query '{"filter": {"memory_type": "Semantic"}}'
  memgraph query --file query.json
  echo '{"search": {"vector": {"embedding": [0.1, 0.9]}}, "limit": 5}' | memgraph query
  memgraph query '{"traverse": {"direction": "both", "depth": 2}}' --json`

const queryShortDesc string = "Run a hybrid query"

func NewQueryCmd() *cobra.Command {
	cmder := &queryCommander{}

	cmd := &cobra.Command{
		Use:   "query [json]",
		Short: queryShortDesc,
		Long:  queryLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Registry, []string{config.FlagAPITarget})
			cmder.apiTarget = v.GetString("client.api_target")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := cmder.readQuery(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), body, cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "Read the query from this file")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the raw JSON response")

	return cmd
}

func (c *queryCommander) readQuery(args []string, stdin io.Reader) ([]byte, error) {
	switch {
	case len(args) == 1:
		return []byte(args[0]), nil
	case c.file != "":
		data, err := os.ReadFile(c.file)
		if err != nil {
			return nil, fmt.Errorf("reading query file: %w", err)
		}
		return data, nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading query from stdin: %w", err)
		}
		return data, nil
	}
}

func (c *queryCommander) run(ctx context.Context, body []byte, w io.Writer) error {
	if _, err := query.Parse(body); err != nil {
		return err
	}

	resp, err := client.New(c.apiTarget).Query(ctx, body)
	if err != nil {
		return err
	}

	if c.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintln(w, Render(resp))
	return nil
}

// Render formats query results as a table, best first.
func Render(resp *api.QueryResponse) string {
	if resp.Count == 0 {
		return cliui.DimStyle.Render("No results found.")
	}

	rows := make([][]string, len(resp.Results))
	for i, r := range resp.Results {
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.3f", r.Score),
			string(r.Memory.Kind()),
			r.Memory.ID.String(),
			utils.Truncate(strings.ReplaceAll(r.Memory.Content, "\n", " "), previewLen),
		}
	}

	return cliui.Table([]string{"#", "score", "type", "id", "content"}, rows)
}
