package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ha1tch/codemap/internal/ui"
	"github.com/ha1tch/codemap/pkg/export"
	"github.com/ha1tch/codemap/pkg/scene"
)

// ErrUnknownFormat is returned for an output path whose extension is not
// an export format.
var ErrUnknownFormat = errors.New("unknown output format")

// renderOptions collects the flags of the render command.
type renderOptions struct {
	outputs  []string
	view     viewSettings
	filters  filterFlags
	selectID string
	search   string
	width    int
	height   int
	padding  float64
	noLabels bool
	title    string
	stats    bool
}

func renderCmd(g *globals) *cobra.Command {
	var ro renderOptions

	cmd := &cobra.Command{
		Use:   "render <graph.json>",
		Short: "Lay out a graph and export it as PNG, SVG or DOT",
		Long: "Lay out a graph and write one or more exports. The format is taken\n" +
			"from each output's extension: .png, .svg, .dot or .gv.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), g, ro, args[0], cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	fs.StringSliceVarP(&ro.outputs, "output", "o", nil, "output file (repeatable; default <graph>.png)")
	fs.StringVarP(&ro.view.algorithm, "algorithm", "a", "", "layout algorithm (fcose, cose, grid, circle, breadthfirst)")
	fs.StringVarP(&ro.view.quality, "quality", "q", "", "layout quality (draft, default, proof)")
	fs.StringVar(&ro.view.sizing, "sizing", "", "node sizing (fixed, type, degree)")
	fs.BoolVar(&ro.view.cluster, "cluster", false, "group nodes by package")
	fs.StringVar(&ro.selectID, "select", "", "highlight a node and its neighbourhood")
	fs.StringVar(&ro.search, "search", "", "dim everything that does not match a search query")
	fs.IntVar(&ro.width, "width", 0, "image width in pixels")
	fs.IntVar(&ro.height, "height", 0, "image height in pixels")
	fs.Float64Var(&ro.padding, "padding", -1, "padding around the graph in pixels")
	fs.BoolVar(&ro.noLabels, "no-labels", false, "omit node labels")
	fs.StringVar(&ro.title, "title", "", "title for SVG and DOT output")
	fs.BoolVar(&ro.stats, "stats", false, "print layout metrics when done")
	ro.filters.register(fs)
	return cmd
}

func runRender(ctx context.Context, g *globals, ro renderOptions, path string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(ro.outputs) == 0 {
		ro.outputs = []string{strings.TrimSuffix(path, filepath.Ext(path)) + ".png"}
	}
	for _, o := range ro.outputs {
		if formatOf(o) == "" {
			return fmt.Errorf("%w: %s", ErrUnknownFormat, o)
		}
	}
	if ro.view.sizing == "" {
		ro.view.sizing = g.cfg.View.Sizing
	}
	ro.view.cluster = ro.view.cluster || g.cfg.View.Cluster

	f, err := ro.filters.filter()
	if err != nil {
		return err
	}
	ro.view.filter = f

	s, err := g.newSession(ro.view)
	if err != nil {
		return err
	}
	defer s.close()

	if _, err := s.load(ctx, path); err != nil {
		return err
	}
	if ro.selectID != "" {
		if !s.scene.HasNode(ro.selectID) {
			return fmt.Errorf("node %q is not in the rendered graph", ro.selectID)
		}
		s.view.Select(ro.selectID)
	}
	if ro.search != "" {
		s.view.Search(ro.search)
	}
	s.scene.Finish()

	snap := s.scene.Snapshot()
	settings := g.exportSettings(ro)

	eg, _ := errgroup.WithContext(ctx)
	for _, o := range ro.outputs {
		o := o
		eg.Go(func() error {
			return writeExport(o, snap, settings)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for _, o := range ro.outputs {
		fmt.Fprintf(out, "  %s %s\n", ui.StatusIcon(true), o)
	}
	g.log.Info("render complete",
		zap.String("graph", path),
		zap.Strings("outputs", ro.outputs),
		zap.Int("elements", len(snap.Elements)))

	if ro.stats {
		return printStats(out, s)
	}
	return nil
}

// exportSettings merges render flags over the export config.
type exportSettings struct {
	png export.PNGOptions
	svg export.SVGOptions
	dot string // title
}

func (g *globals) exportSettings(ro renderOptions) exportSettings {
	ec := g.cfg.Export
	width, height, padding := ec.Width, ec.Height, ec.Padding
	if ro.width > 0 {
		width = ro.width
	}
	if ro.height > 0 {
		height = ro.height
	}
	if ro.padding >= 0 {
		padding = ro.padding
	}
	labels := ec.Labels && !ro.noLabels

	png := export.DefaultPNGOptions()
	png.Width, png.Height, png.Padding = width, height, padding
	png.Background = ec.Background
	png.Labels = labels

	svg := export.DefaultSVGOptions()
	svg.Width, svg.Height, svg.Padding = width, height, padding
	svg.Background = ec.Background
	svg.Labels = labels
	svg.Title = ro.title

	return exportSettings{png: png, svg: svg, dot: ro.title}
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".svg":
		return "svg"
	case ".dot", ".gv":
		return "dot"
	}
	return ""
}

func writeExport(path string, snap scene.Snapshot, es exportSettings) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	switch formatOf(path) {
	case "png":
		err = export.PNG(f, snap, es.png)
	case "svg":
		_, err = io.WriteString(f, export.SVG(snap, es.svg))
	case "dot":
		_, err = io.WriteString(f, export.DOT(snap, es.dot))
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func printStats(out io.Writer, s *session) error {
	samples, err := s.metrics.Summary()
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	ui.Header(out, "Layout metrics")
	rows := make([][]string, 0, len(samples))
	for _, smp := range samples {
		rows = append(rows, []string{smp.Name, fmt.Sprintf("%g", smp.Value)})
	}
	ui.Table(out, []string{"SERIES", "VALUE"}, rows)
	return nil
}
