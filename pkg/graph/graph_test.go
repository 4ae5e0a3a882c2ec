package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNodeIgnoresDuplicates(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "A", Label: "First"})
	g.AddNode(Node{ID: "A", Label: "Second"})
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "First", g.Nodes[0].Label)

	n, ok := g.Node("A")
	assert.True(t, ok)
	assert.Equal(t, "First", n.Label)
	_, ok = g.Node("B")
	assert.False(t, ok)
	assert.Equal(t, -1, g.NodeIndex("B"))
}

func TestValidate(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "A", Type: TypeClass})
	g.AddNode(Node{ID: "B", Type: TypeInterface})
	g.AddEdge("A", "B", EdgeImplements)
	assert.NoError(t, g.Validate())

	g.AddEdge("A", "ghost", EdgeCalls)
	g.Nodes = append(g.Nodes, Node{ID: "A"}, Node{})
	err := g.Validate()
	require.ErrorIs(t, err, ErrInvalidGraph)
	assert.Contains(t, err.Error(), `duplicate id "A"`)
	assert.Contains(t, err.Error(), "node 3: empty id")
	assert.Contains(t, err.Error(), `edge 1: target "ghost" not in nodes`)
}

func TestDegreesAndCounts(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "A", Type: TypeClass})
	g.AddNode(Node{ID: "B", Type: TypeClass})
	g.AddNode(Node{ID: "C", Type: TypeFile})
	g.AddEdge("A", "B", EdgeCalls)
	g.AddEdge("A", "C", EdgeImports)
	g.AddEdge("A", "A", EdgeCalls)

	deg := Degrees(g)
	assert.Equal(t, 4, deg["A"])
	assert.Equal(t, 1, deg["B"])
	assert.Equal(t, 0, deg["missing"])

	counts := g.CountByType()
	assert.Equal(t, 2, counts[TypeClass])
	assert.Equal(t, 1, counts[TypeFile])

	assert.Contains(t, g.String(), "Graph: 3 nodes, 3 edges")
	assert.Contains(t, g.String(), "class      2")
	assert.NotContains(t, g.String(), "interface")
}

func TestParseJSON(t *testing.T) {
	data := []byte(`{
		"nodes": [
			{"id": "A", "label": "UserController", "type": "class",
			 "metadata": {"fullyQualifiedName": "com.example.UserController", "methodCount": 12}},
			{"id": "B", "type": "interface"}
		],
		"edges": [
			{"source": "A", "target": "B", "type": "implements"},
			{"from": "B", "to": "A", "type": "calls"}
		]
	}`)
	g, err := ParseJSON(data)
	require.NoError(t, err)

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "B", g.Nodes[1].Label, "label falls back to id")
	assert.Equal(t, "com.example.UserController", g.Nodes[0].Metadata.FQN())
	assert.Equal(t, 12, g.Nodes[0].Metadata.MethodCount())

	require.Len(t, g.Edges, 2)
	assert.Equal(t, Edge{Source: "B", Target: "A", Type: EdgeCalls}, g.Edges[1])

	_, err = ParseJSON([]byte(`{"nodes": 3}`))
	assert.Error(t, err)
}

func TestParseJSONMalformedMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata string
	}{
		{"string", `"oops"`},
		{"array", `[1, 2]`},
		{"number", `42`},
		{"null", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(`{"nodes": [
				{"id": "A", "type": "class", "metadata": {"package": "app"}},
				{"id": "B", "type": "class", "metadata": ` + tt.metadata + `}
			], "edges": [{"source": "A", "target": "B", "type": "calls"}]}`)

			g, err := ParseJSON(data)
			require.NoError(t, err)
			require.Len(t, g.Nodes, 2, "the node is kept")
			assert.Equal(t, "app", g.Nodes[0].Metadata.Package())
			assert.Nil(t, g.Nodes[1].Metadata)
			assert.Equal(t, "unknown", g.Nodes[1].Metadata.Category())
			assert.Len(t, g.Edges, 1)
		})
	}
}

func TestReadFileAndToJSON(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "A", Label: "A", Type: TypeEndpoint})
	g.AddEdge("A", "A", EdgeCalls)

	data, err := ToJSON(g, true)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, g.Nodes[0].ID, back.Nodes[0].ID)
	assert.Equal(t, g.Edges, back.Edges)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestMetadataAccessors(t *testing.T) {
	m := Metadata{
		KeyFQN:         "pkg.Type",
		KeyLine:        "42",
		KeyPackage:     7.0,
		KeyModifiers:   []any{"public", 3, "static"},
		KeyAnnotations: "@A @B",
		KeyMethodCount: "lots",
		KeyFieldCount:  int64(5),
		KeyCategory:    "",
	}

	assert.Equal(t, "pkg.Type", m.FQN())
	assert.Equal(t, 42, m.Line())
	assert.Equal(t, "7", m.Package())
	assert.Equal(t, []string{"public", "static"}, m.Modifiers())
	assert.Equal(t, []string{"@A", "@B"}, m.Annotations())
	assert.Equal(t, 0, m.MethodCount())
	assert.Equal(t, 5, m.FieldCount())
	assert.Equal(t, DefaultCategory, m.Category())
	assert.Equal(t, "", m.FilePath())

	var empty Metadata
	assert.Equal(t, "", empty.FQN())
	assert.Nil(t, empty.Modifiers())
	assert.Equal(t, DefaultCategory, empty.Category())
}
