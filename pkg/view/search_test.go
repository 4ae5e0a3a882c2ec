package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ha1tch/codemap/pkg/scene"
)

func TestQueryMatch(t *testing.T) {
	controller := scene.Data{
		Label:       "UserController",
		Kind:        "class",
		FQN:         "com.example.UserController",
		Modifiers:   []string{"public"},
		Annotations: []string{"@RestController"},
	}
	iface := scene.Data{Label: "Repository", Kind: "interface", FQN: "com.example.Repository", Modifiers: []string{"Public", "abstract"}}
	handle := scene.Data{Label: "handle@Get", Kind: "endpoint"}
	shortName := scene.Data{Label: "UserCtl", Kind: "class", FQN: "com.example.UserController"}

	tests := []struct {
		name  string
		query string
		data  scene.Data
		want  bool
	}{
		{"annotation falls through to label", "@Controller", controller, true},
		{"annotation falls through to fqn", "@Controller", shortName, true},
		{"annotation fall-through misses", "@Service", shortName, false},
		{"annotation list", "@restcontroller", controller, true},
		{"literal at-sign in label", "@get", handle, true},
		{"annotation no match", "@Service", controller, false},
		{"bare at-sign", "@", controller, false},
		{"type prefix", "type:inter", iface, true},
		{"type prefix mismatch", "type:inter", controller, false},
		{"type prefix case", "TYPE:CL", controller, true},
		{"empty type prefix", "type:", controller, false},
		{"modifier", "abstract", iface, true},
		{"modifier case-insensitive", "PUBLIC", iface, true},
		{"modifier absent", "static", iface, false},
		{"modifier not substring", "abstract", scene.Data{Label: "AbstractFactory"}, false},
		{"substring label", "userctrl", controller, false},
		{"substring label hit", "usercon", controller, true},
		{"substring fqn", "example.repo", iface, true},
		{"whitespace trimmed", "  repository ", iface, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseQuery(tt.query)
			assert.True(t, q.Active())
			assert.Equal(t, tt.want, q.Match(tt.data))
		})
	}
}

func TestQueryInactive(t *testing.T) {
	for _, s := range []string{"", "   ", "\t\n"} {
		q := ParseQuery(s)
		assert.False(t, q.Active(), "%q", s)
		assert.False(t, q.Match(scene.Data{Label: "anything"}))
	}
}

func TestMatchElementsOrder(t *testing.T) {
	els := []scene.Element{
		{Group: scene.Nodes, ID: "pkg:user", Data: scene.Data{Label: "user", Compound: true}},
		{Group: scene.Nodes, ID: "z", Data: scene.Data{Label: "UserZ"}},
		{Group: scene.Nodes, ID: "a", Data: scene.Data{Label: "UserA"}},
		{Group: scene.Nodes, ID: "m", Data: scene.Data{Label: "Other"}},
		{Group: scene.Edges, ID: "z|calls|a", Source: "z", Target: "a", Data: scene.Data{Label: "user"}},
	}
	// Element order, not alphabetical or relevance order
	assert.Equal(t, []string{"z", "a"}, MatchElements(ParseQuery("user"), els))
	assert.Nil(t, MatchElements(ParseQuery(""), els))
}

func TestSearchStateClamp(t *testing.T) {
	var s SearchState
	_, ok := s.Current()
	assert.False(t, ok)
	_, ok = s.Next()
	assert.False(t, ok)

	s.Update([]string{"a", "b", "c", "d"})
	s.Next()
	s.Next()
	s.Next()
	assert.Equal(t, 3, s.Cursor())

	// Shrinks below the cursor
	s.Update([]string{"a", "b"})
	assert.Equal(t, 0, s.Cursor())
	cur, _ := s.Current()
	assert.Equal(t, "a", cur)

	// Cursor still in range is kept
	s.Next()
	s.Update([]string{"x", "y", "z"})
	assert.Equal(t, 1, s.Cursor())

	s.Update(nil)
	assert.Equal(t, 0, s.Cursor())
	_, ok = s.Current()
	assert.False(t, ok)
}

func TestSearchStateWraps(t *testing.T) {
	var s SearchState
	s.Update([]string{"a", "b", "c"})

	id, _ := s.Prev()
	assert.Equal(t, "c", id)
	id, _ = s.Next()
	assert.Equal(t, "a", id)
	assert.True(t, s.IsMatch("b"))
	assert.False(t, s.IsMatch("q"))
}

func TestSearchStateReadersOnReturnedValue(t *testing.T) {
	snapshot := func() SearchState {
		var s SearchState
		s.Update([]string{"a", "b"})
		s.Next()
		return s
	}

	assert.Equal(t, 2, snapshot().Len())
	assert.Equal(t, 1, snapshot().Cursor())
	assert.Equal(t, []string{"a", "b"}, snapshot().Matches())
	assert.True(t, snapshot().IsMatch("a"))
	cur, ok := snapshot().Current()
	assert.True(t, ok)
	assert.Equal(t, "b", cur)
}
