package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ha1tch/codemap/internal/ui"
	"github.com/ha1tch/codemap/pkg/graph"
	"github.com/ha1tch/codemap/pkg/layout"
)

func infoCmd(g *globals) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "info <graph.json>",
		Short: "Summarise and validate a graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gr, err := graph.ReadFile(args[0])
			if err != nil {
				return err
			}
			return printInfo(cmd.OutOrStdout(), gr, g.cfg.Layout, top)
		},
	}
	cmd.Flags().IntVar(&top, "top", 5, "number of most connected nodes to list")
	return cmd
}

// printInfo writes the summary. A graph that fails validation is reported,
// then returned as an error so the exit status reflects it.
func printInfo(out io.Writer, g *graph.Graph, lc layout.Config, top int) error {
	ui.Header(out, "Graph")
	fmt.Fprint(out, g.String())

	edgeCounts := make(map[graph.EdgeType]int)
	for _, e := range g.Edges {
		edgeCounts[e.Type]++
	}
	var rows [][]string
	for _, t := range graph.EdgeTypes {
		if n := edgeCounts[t]; n > 0 {
			rows = append(rows, []string{string(t), strconv.Itoa(n)})
		}
	}
	if len(rows) > 0 {
		fmt.Fprintln(out)
		ui.Header(out, "Edges")
		ui.Table(out, []string{"TYPE", "COUNT"}, rows)
	}

	if top > 0 && len(g.Nodes) > 0 {
		fmt.Fprintln(out)
		ui.Header(out, "Most connected")
		ui.Table(out, []string{"ID", "TYPE", "DEGREE"}, topByDegree(g, top))
	}

	large, strategy := layout.Classify("fcose", len(g.Nodes), lc)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Layout: %s (threshold %d, large=%t)\n", strategy, lc.LargeGraphThreshold, large)

	err := g.Validate()
	if err == nil {
		fmt.Fprintf(out, "  %s valid\n", ui.StatusIcon(true))
		return nil
	}
	fmt.Fprintf(out, "  %s invalid\n", ui.StatusIcon(false))
	msg := strings.TrimPrefix(err.Error(), graph.ErrInvalidGraph.Error()+": ")
	for _, line := range strings.Split(msg, "; ") {
		fmt.Fprintf(out, "    %s\n", ui.Warn.Sprint(line))
	}
	return err
}

func topByDegree(g *graph.Graph, n int) [][]string {
	deg := graph.Degrees(g)
	nodes := make([]graph.Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool {
		return deg[nodes[i].ID] > deg[nodes[j].ID]
	})
	if len(nodes) > n {
		nodes = nodes[:n]
	}
	rows := make([][]string, len(nodes))
	for i, nd := range nodes {
		rows[i] = []string{nd.ID, string(nd.Type), strconv.Itoa(deg[nd.ID])}
	}
	return rows
}
