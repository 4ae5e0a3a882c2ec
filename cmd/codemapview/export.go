package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ha1tch/codemap/pkg/export"
	"github.com/ha1tch/codemap/pkg/scene"
)

// export writes the current scene to path. The snapshot is taken here; the
// encoding runs on its own goroutine and reports back through the
// dispatcher.
func (a *App) export(path string) {
	if path == "" {
		return
	}
	if len(a.scene.NodeIDs()) == 0 {
		a.showMessage("Canvas is empty - nothing to export", MsgError)
		return
	}

	snap := a.scene.Snapshot()
	ec := a.cfg.Export
	d := screenDispatcher{a.screen}
	a.showMessage("Exporting "+path+"...", MsgInfo)

	go func() {
		err := writeSnapshot(path, snap, ec.Width, ec.Height, ec.Padding, ec.Background, ec.Labels)
		d.Dispatch(func() {
			if err != nil {
				a.log.Error("export failed", zap.String("path", path), zap.Error(err))
				a.showMessage("Export failed: "+err.Error(), MsgError)
				return
			}
			a.log.Info("exported", zap.String("path", path))
			a.showMessage("Exported "+path, MsgSuccess)
		})
	}()
}

func writeSnapshot(path string, snap scene.Snapshot, width, height int, padding float64, bg string, labels bool) error {
	var write func(io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		opts := export.DefaultPNGOptions()
		opts.Width, opts.Height, opts.Padding = width, height, padding
		opts.Background, opts.Labels = bg, labels
		write = func(w io.Writer) error { return export.PNG(w, snap, opts) }
	case ".svg":
		opts := export.DefaultSVGOptions()
		opts.Width, opts.Height, opts.Padding = width, height, padding
		opts.Background, opts.Labels = bg, labels
		write = func(w io.Writer) error {
			_, err := io.WriteString(w, export.SVG(snap, opts))
			return err
		}
	case ".dot", ".gv":
		write = func(w io.Writer) error {
			_, err := io.WriteString(w, export.DOT(snap, ""))
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q (use .png, .svg or .dot)", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
