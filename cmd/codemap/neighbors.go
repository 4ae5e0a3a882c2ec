package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ha1tch/codemap/internal/ui"
	"github.com/ha1tch/codemap/pkg/graph"
	"github.com/ha1tch/codemap/pkg/scene"
	"github.com/ha1tch/codemap/pkg/view"
)

func neighborsCmd(g *globals) *cobra.Command {
	var (
		direction string
		filters   filterFlags
		idsOnly   bool
	)

	cmd := &cobra.Command{
		Use:     "neighbors <graph.json> <node-id>",
		Aliases: []string{"nb"},
		Short:   "List the direct neighbours of a node",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, ok := view.ParseDirection(direction)
			if !ok {
				return fmt.Errorf("unknown direction %q (want in, out or both)", direction)
			}
			f, err := filters.filter()
			if err != nil {
				return err
			}
			gr, err := graph.ReadFile(args[0])
			if err != nil {
				return err
			}

			sc := scene.New()
			sc.SetElements(view.NewBuilder().Build(gr, f, view.BuildOptions{}))
			if !sc.HasNode(args[1]) {
				return fmt.Errorf("node %q is not in the graph", args[1])
			}
			ids := view.NewNavigator(sc).ConnectedNodeIDs(args[1], dir)
			return printNeighbors(cmd.OutOrStdout(), sc, args[1], ids, idsOnly)
		},
	}
	cmd.Flags().StringVarP(&direction, "direction", "d", "both", "in, out or both")
	cmd.Flags().BoolVar(&idsOnly, "ids", false, "print neighbour ids only, one per line")
	filters.register(cmd.Flags())
	return cmd
}

func printNeighbors(out io.Writer, sc *scene.Scene, id string, ids []string, idsOnly bool) error {
	if idsOnly {
		for _, n := range ids {
			fmt.Fprintln(out, n)
		}
		return nil
	}

	fmt.Fprintf(out, "%s: %s\n\n", ui.Brand.Sprint(id), ui.Count(len(ids), "neighbour"))
	rows := make([][]string, 0, len(ids))
	for _, n := range ids {
		el, _ := sc.Element(n)
		rows = append(rows, []string{n, el.Data.Kind, el.Data.Label})
	}
	ui.Table(out, []string{"ID", "TYPE", "LABEL"}, rows)
	return nil
}
