package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ha1tch/codemap/internal/ui"
	"github.com/ha1tch/codemap/pkg/graph"
	"github.com/ha1tch/codemap/pkg/scene"
	"github.com/ha1tch/codemap/pkg/view"
)

func searchCmd(g *globals) *cobra.Command {
	var (
		filters filterFlags
		idsOnly bool
	)

	cmd := &cobra.Command{
		Use:   "search <graph.json> <query>",
		Short: "List the nodes matching a search query",
		Long: `List the nodes matching a search query, in graph order.

Query forms:
  @Name          annotation
  type:kind      node type prefix
  public, ...    modifier keyword
  text           label or qualified name contains text`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := filters.filter()
			if err != nil {
				return err
			}
			gr, err := graph.ReadFile(args[0])
			if err != nil {
				return err
			}
			els := view.NewBuilder().Build(gr, f, view.BuildOptions{})
			return printMatches(cmd.OutOrStdout(), els, args[1], idsOnly)
		},
	}
	cmd.Flags().BoolVar(&idsOnly, "ids", false, "print matching ids only, one per line")
	filters.register(cmd.Flags())
	return cmd
}

func printMatches(out io.Writer, els []scene.Element, query string, idsOnly bool) error {
	q := view.ParseQuery(query)
	if !q.Active() {
		return fmt.Errorf("empty query")
	}
	ids := view.MatchElements(q, els)

	if idsOnly {
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	}

	byID := make(map[string]scene.Element, len(els))
	for _, el := range els {
		byID[el.ID] = el
	}

	fmt.Fprintf(out, "%s for %q\n\n", ui.Match.Sprint(ui.Count(len(ids), "result")), q.String())
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		d := byID[id].Data
		rows = append(rows, []string{id, d.Kind, d.Label, d.FQN, strings.Join(d.Annotations, " ")})
	}
	ui.Table(out, []string{"ID", "TYPE", "LABEL", "FQN", "ANNOTATIONS"}, rows)
	return nil
}
