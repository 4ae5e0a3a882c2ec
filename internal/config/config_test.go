package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/codemap/pkg/layout"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadDefaultsWhenAbsent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadExplicitMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[layout]
large_graph_threshold = 50
animation_duration = "250ms"
quality = "proof"
timeout = "2s"

[view]
algorithm = "grid"
sizing = "degree"
cluster = true

[export]
background = "#000000"

[log]
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Layout.LargeGraphThreshold)
	assert.Equal(t, 250*time.Millisecond, cfg.Layout.AnimationDuration)
	assert.Equal(t, layout.Proof, cfg.Layout.Quality)
	assert.Equal(t, 2*time.Second, cfg.Layout.Timeout)
	assert.Equal(t, "grid", cfg.View.Algorithm)
	assert.True(t, cfg.View.Cluster)
	assert.True(t, cfg.View.Minimap, "unset keys keep their defaults")
	assert.Equal(t, "#000000", cfg.Export.Background)
	assert.Equal(t, 1600, cfg.Export.Width)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"unknown key", "[view]\ncolour = \"red\"\n", "unknown keys view.colour"},
		{"bad algorithm", "[view]\nalgorithm = \"spiral\"\n", "view.algorithm must be one of"},
		{"zero threshold", "[layout]\nlarge_graph_threshold = 0\n", "layout.largegraphthreshold must be at least 1"},
		{"bad colour", "[export]\nbackground = \"white\"\n", "export.background must be a hex colour"},
		{"syntax", "[view\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, tt.body)
			_, err := Load(path)
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CODEMAP_LAYOUT_THRESHOLD", "10")
	t.Setenv("CODEMAP_LAYOUT_QUALITY", "draft")
	t.Setenv("CODEMAP_ALGORITHM", "CIRCLE")
	t.Setenv("CODEMAP_METRICS_ADDR", "127.0.0.1:9100")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Layout.LargeGraphThreshold)
	assert.Equal(t, layout.Draft, cfg.Layout.Quality)
	assert.Equal(t, "circle", cfg.View.Algorithm)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)

	t.Setenv("CODEMAP_LAYOUT_TIMEOUT", "soon")
	_, err = Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.View.Algorithm = "breadthfirst"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "[view]\nalgorithm = \"grid\"\n")

	w, err := NewWatcher(nil, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	got := make(chan Config, 4)
	require.NoError(t, w.WatchConfig(path, func(c Config) { got <- c }))

	// Invalid contents are skipped
	writeFile(t, path, "[view]\nalgorithm = \"spiral\"\n")
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "[view]\nalgorithm = \"circle\"\n")

	select {
	case c := <-got:
		assert.Equal(t, "circle", c.View.Algorithm)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	writeFile(t, path, "{}")

	w, err := NewWatcher(nil, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	fired := make(chan struct{}, 8)
	require.NoError(t, w.Watch(path, func() { fired <- struct{}{} }))

	writeFile(t, filepath.Join(dir, "other.json"), "{}")
	select {
	case <-fired:
		t.Fatal("callback for unrelated file")
	case <-time.After(150 * time.Millisecond):
	}

	writeFile(t, path, `{"nodes":[]}`)
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("no callback")
	}
}
