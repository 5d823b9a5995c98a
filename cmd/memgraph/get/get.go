// Package getcmder provides the get command that shows one memory and its
// relationships from a running memgraph server.
package getcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/memgraph/api"
	"github.com/papercomputeco/memgraph/pkg/client"
	"github.com/papercomputeco/memgraph/pkg/cliui"
	"github.com/papercomputeco/memgraph/pkg/config"
	"github.com/papercomputeco/memgraph/pkg/memory"
)

type getCommander struct {
	apiTarget string
	direction string
	asJSON    bool
}

const getLongDesc string = `Show a memory and its relationships.

Fetches the memory with the given id from the memgraph API together with
its adjacency lists.

Examples:
  memgraph get 0192f0c1-7c5e-7a8b-9d4e-1f2a3b4c5d6e
  memgraph get 0192f0c1-7c5e-7a8b-9d4e-1f2a3b4c5d6e --direction inbound
  memgraph get 0192f0c1-7c5e-7a8b-9d4e-1f2a3b4c5d6e --json`

const getShortDesc string = "Show a memory and its relationships"

func NewGetCmd() *cobra.Command {
	cmder := &getCommander{}

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: getShortDesc,
		Long:  getLongDesc,
		Args:  cobra.ExactArgs(1),
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
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid memory id %q: %w", args[0], err)
			}
			return cmder.run(cmd.Context(), id, cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().StringVar(&cmder.direction, "direction", "both", "Edges to show: outbound, inbound or both")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print the raw JSON memory and edges")

	return cmd
}

type getOutput struct {
	Memory *memory.Memory     `json:"memory"`
	Edges  *api.EdgesResponse `json:"edges"`
}

func (c *getCommander) run(ctx context.Context, id uuid.UUID, w io.Writer) error {
	cl := client.New(c.apiTarget)

	m, ok, err := cl.GetMemory(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("memory not found: %s", id)
	}

	edges, err := cl.Edges(ctx, id, c.direction)
	if err != nil {
		return err
	}

	if c.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(getOutput{Memory: m, Edges: edges})
	}

	fmt.Fprint(w, Render(m, edges))
	return nil
}

// Render formats a memory and its edges for the terminal.
func Render(m *memory.Memory, edges *api.EdgesResponse) string {
	var b strings.Builder

	field := func(key, value string) {
		fmt.Fprintf(&b, "  %s  %s\n", cliui.KeyStyle.Render(fmt.Sprintf("%-12s", key)), cliui.ValueStyle.Render(value))
	}

	b.WriteString("\n")
	b.WriteString("  " + cliui.HeaderStyle.Render(m.ID.String()) + "\n\n")
	field("type", string(m.Kind()))
	field("content", m.Content)
	field("created", m.CreatedAt.Format("2006-01-02 15:04:05"))
	field("importance", fmt.Sprintf("%.2f", m.Importance))
	field("embedding", fmt.Sprintf("%d dims", len(m.Embedding)))
	for _, k := range slices.Sorted(maps.Keys(m.Metadata)) {
		field("meta."+k, fmt.Sprint(m.Metadata[k]))
	}
	b.WriteString("\n")

	if edges != nil && edges.Outbound != nil {
		rows := make([][]string, 0, len(*edges.Outbound))
		for _, e := range *edges.Outbound {
			rows = append(rows, []string{e.RelationType, e.TargetID.String(), fmt.Sprintf("%.2f", e.Weight)})
		}
		writeEdges(&b, "Outbound", []string{"relation", "target", "weight"}, rows)
	}
	if edges != nil && edges.Inbound != nil {
		rows := make([][]string, 0, len(*edges.Inbound))
		for _, e := range *edges.Inbound {
			rows = append(rows, []string{e.RelationType, e.SourceID.String(), fmt.Sprintf("%.2f", e.Weight)})
		}
		writeEdges(&b, "Inbound", []string{"relation", "source", "weight"}, rows)
	}

	return b.String()
}

func writeEdges(b *strings.Builder, title string, headers []string, rows [][]string) {
	b.WriteString("  " + cliui.StepStyle.Render(title) + "\n")
	if len(rows) == 0 {
		b.WriteString("  " + cliui.DimStyle.Render("none") + "\n\n")
		return
	}
	b.WriteString(cliui.Table(headers, rows) + "\n\n")
}
