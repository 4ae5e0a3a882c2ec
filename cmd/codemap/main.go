// Command codemap lays out and exports code-structure graphs from the
// command line.
//
// Usage:
//
//	codemap render   <graph.json> -o out.png [-o out.svg ...]
//	codemap search   <graph.json> <query>
//	codemap info     <graph.json>
//	codemap neighbors <graph.json> <node-id> [--direction in|out|both]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ha1tch/codemap/internal/config"
	"github.com/ha1tch/codemap/internal/logging"
	"github.com/ha1tch/codemap/internal/ui"
)

var version = "0.3.0"

// globals holds what every subcommand needs after the persistent flags are
// parsed.
type globals struct {
	configPath string
	logLevel   string
	noColor    bool

	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "codemap",
		Short: "codemap lays out and exports code-structure graphs",
		Long: ui.Brand.Sprint("codemap") + " renders dependency graphs of classes, interfaces and endpoints\n" +
			ui.Subtle.Sprint("Layout, search and export from the command line"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.log != nil {
				_ = g.log.Sync()
			}
		},
	}
	root.SetVersionTemplate("codemap {{ .Version }}\n")

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVar(&g.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	pf.BoolVar(&g.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(
		renderCmd(g),
		searchCmd(g),
		infoCmd(g),
		neighborsCmd(g),
	)
	return root
}

func (g *globals) init() error {
	if g.noColor {
		ui.SetColor(false)
	}

	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	g.cfg = cfg

	log, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	g.log = log
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.Bad.Sprint("error:"), err)
		os.Exit(1)
	}
}
