package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/codemap/internal/config"
	"github.com/ha1tch/codemap/internal/ui"
	"github.com/ha1tch/codemap/pkg/graph"
)

const sampleGraph = `{
  "nodes": [
    {"id": "A", "label": "UserService", "type": "class",
     "metadata": {"fullyQualifiedName": "app.UserService", "package": "app",
                  "modifiers": ["public"], "annotations": ["@Service"]}},
    {"id": "B", "label": "UserRepository", "type": "interface",
     "metadata": {"fullyQualifiedName": "app.UserRepository", "package": "app"}},
    {"id": "C", "label": "GET /users", "type": "endpoint",
     "metadata": {"package": "web"}},
    {"id": "D", "label": "Util", "type": "class"}
  ],
  "edges": [
    {"source": "A", "target": "B", "type": "implements"},
    {"source": "C", "target": "A", "type": "calls"},
    {"source": "A", "target": "D", "type": "imports"}
  ]
}`

func writeGraph(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// run executes the root command with an isolated config directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	ui.SetColor(false)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return out.String(), err
}

func TestRenderWritesEveryFormat(t *testing.T) {
	path := writeGraph(t, sampleGraph)
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "out.png")
	svgPath := filepath.Join(dir, "out.svg")
	dotPath := filepath.Join(dir, "out.dot")

	out, err := run(t, "render", path,
		"-o", pngPath, "-o", svgPath, "-o", dotPath,
		"--algorithm", "grid", "--width", "320", "--height", "240",
		"--select", "A", "--title", "users", "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, pngPath)
	assert.Contains(t, out, "SERIES")
	assert.Contains(t, out, `codemap_layout_runs_total{algorithm="grid",strategy="inline"}`)

	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 240, cfg.Height)

	svg, err := os.ReadFile(svgPath)
	require.NoError(t, err)
	assert.Contains(t, string(svg), `class="title">users</text>`)
	assert.Contains(t, string(svg), "selected")

	dot, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(dot), "digraph codemap {"))
	assert.Contains(t, string(dot), `"C" -> "A"`)
}

func TestRenderBackgroundLayout(t *testing.T) {
	path := writeGraph(t, sampleGraph)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[layout]\nlarge_graph_threshold = 1\n"), 0o644))
	outPath := filepath.Join(t.TempDir(), "out.dot")

	out, err := run(t, "render", path, "-o", outPath, "--config", cfgPath, "-a", "fcose", "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, `codemap_layout_runs_total{algorithm="fcose",strategy="background"}`)

	dot, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(dot), `pos="`)
}

func TestRenderFilterHidesNodes(t *testing.T) {
	path := writeGraph(t, sampleGraph)
	outPath := filepath.Join(t.TempDir(), "out.dot")

	_, err := run(t, "render", path, "-o", outPath, "-a", "circle", "--hide-type", "endpoint", "--cluster")
	require.NoError(t, err)

	dot, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.NotContains(t, string(dot), `"C"`)
	assert.Contains(t, string(dot), `subgraph "cluster_pkg:app"`)
}

func TestRenderErrors(t *testing.T) {
	path := writeGraph(t, sampleGraph)
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown format", []string{"-o", filepath.Join(dir, "x.bmp")}, "unknown output format"},
		{"unknown node", []string{"-o", filepath.Join(dir, "x.png"), "--select", "Z"}, `node "Z"`},
		{"unknown algorithm", []string{"-o", filepath.Join(dir, "x.png"), "-a", "spiral"}, "unknown layout algorithm"},
		{"unknown type", []string{"-o", filepath.Join(dir, "x.png"), "--hide-type", "widget"}, `unknown node type "widget"`},
		{"unknown sizing", []string{"-o", filepath.Join(dir, "x.png"), "--sizing", "huge"}, "unknown sizing"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, append([]string{"render", path}, tc.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestSearch(t *testing.T) {
	path := writeGraph(t, sampleGraph)

	tests := []struct {
		query string
		want  []string
	}{
		{"type:interface", []string{"B"}},
		{"@Service", []string{"A"}},
		{"public", []string{"A"}},
		{"user", []string{"A", "B", "C"}},
		{"nothing-here", []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			out, err := run(t, "search", path, tc.query, "--ids")
			require.NoError(t, err)
			assert.Equal(t, tc.want, strings.Fields(out))
		})
	}
}

func TestSearchTable(t *testing.T) {
	path := writeGraph(t, sampleGraph)
	out, err := run(t, "search", path, "user")
	require.NoError(t, err)
	assert.Contains(t, out, `3 results for "user"`)
	assert.Contains(t, out, "app.UserService")

	_, err = run(t, "search", path, "  ")
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	path := writeGraph(t, sampleGraph)
	out, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Graph: 4 nodes, 3 edges")
	assert.Contains(t, out, "implements")
	assert.Contains(t, out, "✓ valid")
	assert.Contains(t, out, "Layout: inline")

	bad := writeGraph(t, `{"nodes": [{"id": "A"}], "edges": [{"source": "A", "target": "ghost"}]}`)
	out, err = run(t, "info", bad)
	assert.ErrorIs(t, err, graph.ErrInvalidGraph)
	assert.Contains(t, out, `edge 0: target "ghost" not in nodes`)
}

func TestNeighbors(t *testing.T) {
	path := writeGraph(t, sampleGraph)

	out, err := run(t, "neighbors", path, "A", "--ids", "-d", "out")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D"}, strings.Fields(out))

	out, err = run(t, "neighbors", path, "A", "--ids", "-d", "in")
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, strings.Fields(out))

	out, err = run(t, "neighbors", path, "A", "--ids")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D", "C"}, strings.Fields(out))

	out, err = run(t, "neighbors", path, "A", "--ids", "--hide-edge", "imports")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, strings.Fields(out))

	_, err = run(t, "neighbors", path, "A", "-d", "sideways")
	assert.Error(t, err)
	_, err = run(t, "neighbors", path, "Z")
	assert.Error(t, err)
}

func TestExplicitConfigMustExist(t *testing.T) {
	path := writeGraph(t, sampleGraph)
	_, err := run(t, "info", path, "--config", filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
