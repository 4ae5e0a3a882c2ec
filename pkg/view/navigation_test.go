package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ha1tch/codemap/pkg/geom"
)

func TestConnectedNodeIDs(t *testing.T) {
	s := loadedScene(t)
	nav := NewNavigator(s)

	tests := []struct {
		id   string
		dir  Direction
		want []string
	}{
		{"A", Outgoing, []string{"B", "C"}},
		{"A", Incoming, []string{}},
		{"B", Incoming, []string{"A", "E"}},
		{"E", Both, []string{"B", "D"}},
		{"ghost", Both, []string{}},
	}

	for _, tt := range tests {
		got := nav.ConnectedNodeIDs(tt.id, tt.dir)
		assert.NotNil(t, got)
		assert.Equal(t, tt.want, got, "%s/%d", tt.id, tt.dir)
	}
}

func TestNavigatorCamera(t *testing.T) {
	s := loadedScene(t)
	nav := NewNavigator(s)

	assert.False(t, nav.CenterOnNode("ghost"))
	assert.False(t, s.Animating())

	// Two rapid commands are both issued; the last one wins
	assert.True(t, nav.CenterOnNode("B"))
	assert.True(t, nav.CenterOnNode("C"))
	s.Finish()
	assert.Equal(t, geom.Point{X: 0, Y: 100}, s.Camera().Pan)

	nav.Fit()
	vp := s.Viewport()
	for _, id := range s.NodeIDs() {
		p, _ := s.Position(id)
		assert.True(t, vp.Contains(p), id)
	}
}

func TestParseDirection(t *testing.T) {
	d, ok := ParseDirection("in")
	assert.True(t, ok)
	assert.Equal(t, Incoming, d)
	d, ok = ParseDirection("outgoing")
	assert.True(t, ok)
	assert.Equal(t, Outgoing, d)
	_, ok = ParseDirection("sideways")
	assert.False(t, ok)
}
