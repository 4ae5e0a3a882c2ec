package autolayout

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/codemap/pkg/geom"
)

func chainGraph(n int) Graph {
	var g Graph
	for i := 0; i < n; i++ {
		g.Nodes = append(g.Nodes, Node{ID: fmt.Sprintf("n%d", i), Width: 40, Height: 40})
		if i > 0 {
			g.Edges = append(g.Edges, Edge{Source: fmt.Sprintf("n%d", i-1), Target: fmt.Sprintf("n%d", i)})
		}
	}
	return g
}

func noOverlap(t *testing.T, g Graph, pos Positions) {
	t.Helper()
	for i, a := range g.Nodes {
		for _, b := range g.Nodes[i+1:] {
			ra := geom.RectAround(pos[a.ID], a.Width, a.Height)
			rb := geom.RectAround(pos[b.ID], b.Width, b.Height)
			assert.Zero(t, geom.RectOverlap(ra, rb), "%s overlaps %s", a.ID, b.ID)
		}
	}
}

func TestRunEveryAlgorithmPlacesEveryNode(t *testing.T) {
	g := chainGraph(12)
	g.Edges = append(g.Edges, Edge{Source: "n3", Target: "n3"}, Edge{Source: "n1", Target: "ghost"})

	for _, alg := range Algorithms {
		t.Run(alg, func(t *testing.T) {
			pos, err := Run(context.Background(), g, Params{Name: alg, NumIter: 200, AvoidOverlap: true})
			require.NoError(t, err)
			assert.Empty(t, pos.Missing(g))
			assert.Len(t, pos, len(g.Nodes))
			noOverlap(t, g, pos)
		})
	}
}

func TestRunDeterministic(t *testing.T) {
	g := chainGraph(20)
	p := Params{Name: FCoSE, NumIter: 300}
	a, err := Run(context.Background(), g, p)
	require.NoError(t, err)
	b, err := Run(context.Background(), g, p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunUnknown(t *testing.T) {
	_, err := Run(context.Background(), chainGraph(2), Params{Name: "spiral"})
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	// Empty input short-circuits before the name is checked
	pos, err := Run(context.Background(), Graph{}, Params{Name: "spiral"})
	require.NoError(t, err)
	assert.Empty(t, pos)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, chainGraph(50), Params{Name: CoSE, NumIter: 100000})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGridLayout(t *testing.T) {
	g := chainGraph(4)
	pos, err := Run(context.Background(), g, Params{Name: Grid, Width: 400, Height: 400})
	require.NoError(t, err)

	// 2x2 grid on a square canvas
	assert.Equal(t, geom.Point{X: 100, Y: 100}, pos["n0"])
	assert.Equal(t, geom.Point{X: 300, Y: 100}, pos["n1"])
	assert.Equal(t, geom.Point{X: 100, Y: 300}, pos["n2"])
	assert.Equal(t, geom.Point{X: 300, Y: 300}, pos["n3"])
}

func TestCircleStartsAtTop(t *testing.T) {
	g := chainGraph(6)
	pos, err := Run(context.Background(), g, Params{Name: Circle, Width: 400, Height: 400, Padding: 50})
	require.NoError(t, err)

	top := pos["n0"]
	assert.InDelta(t, 200, top.X, 1e-9)
	assert.InDelta(t, 50, top.Y, 1e-9)
	for _, n := range g.Nodes {
		assert.InDelta(t, 150, pos[n.ID].Dist(geom.Point{X: 200, Y: 200}), 1e-9)
	}
}

func TestBreadthFirstLayers(t *testing.T) {
	g := Graph{
		Nodes: []Node{
			{ID: "root", Width: 40, Height: 40},
			{ID: "b", Width: 40, Height: 40},
			{ID: "a", Width: 40, Height: 40},
			{ID: "leaf", Width: 40, Height: 40},
		},
		Edges: []Edge{
			{Source: "root", Target: "a"},
			{Source: "root", Target: "b"},
			{Source: "a", Target: "leaf"},
		},
	}
	pos, err := Run(context.Background(), g, Params{Name: BreadthFirst})
	require.NoError(t, err)

	assert.Less(t, pos["root"].Y, pos["a"].Y)
	assert.Equal(t, pos["a"].Y, pos["b"].Y)
	assert.Less(t, pos["a"].Y, pos["leaf"].Y)
	assert.Less(t, pos["a"].X, pos["b"].X, "ties are broken by id")
}

func TestCompoundMembersStayClose(t *testing.T) {
	var g Graph
	for i := 0; i < 6; i++ {
		parent := "pkg:left"
		if i >= 3 {
			parent = "pkg:right"
		}
		g.Nodes = append(g.Nodes, Node{ID: fmt.Sprintf("n%d", i), Width: 30, Height: 30, Parent: parent})
	}
	pos, err := Run(context.Background(), g, Params{Name: FCoSE, NumIter: 500})
	require.NoError(t, err)

	centroid := func(ids ...string) geom.Point {
		var c geom.Point
		for _, id := range ids {
			c = c.Add(pos[id])
		}
		return c.Scale(1 / float64(len(ids)))
	}
	left := centroid("n0", "n1", "n2")
	right := centroid("n3", "n4", "n5")
	for _, id := range []string{"n0", "n1", "n2"} {
		assert.Less(t, pos[id].Dist(left), pos[id].Dist(right), id)
	}
}

func TestPositionsBounds(t *testing.T) {
	g := chainGraph(2)
	pos := Positions{"n0": {X: 0, Y: 0}, "n1": {X: 100, Y: 0}}
	b, ok := pos.Bounds(g)
	require.True(t, ok)
	assert.Equal(t, geom.Rect{MinX: -20, MinY: -20, MaxX: 120, MaxY: 20}, b)

	assert.Equal(t, []string{"n1"}, Positions{"n0": {}}.Missing(g))
}

func TestKnownAndForceDirected(t *testing.T) {
	assert.True(t, Known(BreadthFirst))
	assert.False(t, Known("spiral"))
	assert.True(t, IsForceDirected(FCoSE))
	assert.True(t, IsForceDirected(CoSE))
	assert.False(t, IsForceDirected(Grid))
}
