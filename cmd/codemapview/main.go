// Command codemapview is an interactive terminal viewer for code-structure
// graphs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ha1tch/codemap/internal/config"
	"github.com/ha1tch/codemap/internal/logging"
	"github.com/ha1tch/codemap/internal/metrics"
)

var version = "0.3.0"

type options struct {
	configPath  string
	metricsAddr string
	logFile     string
	algorithm   string
	noWatch     bool
}

func newRootCmd() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:           "codemapview <graph.json>",
		Short:         "Interactive terminal viewer for code-structure graphs",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o, args[0])
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&o.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.StringVar(&o.logFile, "log-file", "", "write logs to this file (default "+defaultLogFile()+")")
	fs.StringVarP(&o.algorithm, "algorithm", "a", "", "initial layout algorithm")
	fs.BoolVar(&o.noWatch, "no-watch", false, "do not reload the graph and config when they change")
	return cmd
}

// defaultLogFile keeps log output off the terminal the UI draws on.
func defaultLogFile() string {
	return filepath.Join(os.TempDir(), "codemapview.log")
}

func run(ctx context.Context, o options, graphPath string) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Addr = o.metricsAddr
	}
	if o.algorithm != "" {
		cfg.View.Algorithm = o.algorithm
	}
	if o.logFile != "" {
		cfg.Log.File = o.logFile
	}
	if cfg.Log.File == "" {
		cfg.Log.File = defaultLogFile()
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse(tcell.MouseButtonEvents, tcell.MouseDragEvents, tcell.MouseMotionEvents)
	screen.Clear()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collector := metrics.NewCollector()
	app := NewApp(screen, cfg, log, collector)
	defer app.Close()

	if err := app.Load(graphPath); err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Addr != "" {
		eg.Go(func() error {
			log.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
			return collector.Serve(ctx, cfg.Metrics.Addr)
		})
	}

	if !o.noWatch {
		w, err := config.NewWatcher(log)
		if err != nil {
			return err
		}
		defer w.Stop()
		app.Watch(w, graphPath, o.configPath)
	}

	eg.Go(func() error {
		defer cancel()
		return app.Run(ctx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "codemapview: %v\n", err)
		os.Exit(1)
	}
}
