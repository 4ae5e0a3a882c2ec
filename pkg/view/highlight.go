package view

import (
	"github.com/ha1tch/codemap/pkg/scene"
)

var (
	selectionClasses = []string{scene.ClassHighlighted, scene.ClassFaded, scene.ClassSelected}
	searchClasses    = []string{scene.ClassSearchMatch, scene.ClassSearchDimmed, scene.ClassSearchCurrent}
)

// Synchronizer mirrors the selected node and the search query onto the
// engine's state classes. Every update clears its classes from all
// elements and marks them again, so the result depends only on the current
// elements, selection and query.
type Synchronizer struct {
	engine scene.Engine
	nav    *Navigator

	selected string
	query    Query
	search   SearchState
}

// NewSynchronizer creates a synchronizer that centres through nav.
func NewSynchronizer(engine scene.Engine, nav *Navigator) *Synchronizer {
	return &Synchronizer{engine: engine, nav: nav}
}

// Selected returns the selected node id, or "".
func (s *Synchronizer) Selected() string { return s.selected }

// Query returns the active query.
func (s *Synchronizer) Query() Query { return s.query }

// SearchState returns a copy of the match list and cursor.
func (s *Synchronizer) SearchState() SearchState {
	return SearchState{matches: s.search.Matches(), cursor: s.search.cursor}
}

// Select changes the selection. An empty id deselects. Selecting a
// rendered node centres the camera on it.
func (s *Synchronizer) Select(id string) {
	s.selected = id
	s.applySelection()
	if id != "" {
		s.nav.CenterOnNode(id)
	}
}

// Search sets a new query, recomputes the matches and centres on the first
// one.
func (s *Synchronizer) Search(text string) {
	q := ParseQuery(text)
	changed := q.String() != s.query.String()
	s.query = q
	if changed {
		s.search.Reset()
	}
	s.applySearch()
	if id, ok := s.search.Current(); ok && changed {
		s.nav.CenterOnNode(id)
	}
}

// NextMatch advances the search cursor and centres on the new match.
func (s *Synchronizer) NextMatch() (string, bool) {
	id, ok := s.search.Next()
	if ok {
		s.markCurrent()
		s.nav.CenterOnNode(id)
	}
	return id, ok
}

// PrevMatch moves the search cursor back and centres on the new match.
func (s *Synchronizer) PrevMatch() (string, bool) {
	id, ok := s.search.Prev()
	if ok {
		s.markCurrent()
		s.nav.CenterOnNode(id)
	}
	return id, ok
}

// Refresh reapplies selection and search after the element set changed.
// The camera does not move.
func (s *Synchronizer) Refresh() {
	s.applySelection()
	s.applySearch()
}

func (s *Synchronizer) applySelection() {
	s.engine.RemoveClasses(selectionClasses...)
	if s.selected == "" || !s.engine.HasNode(s.selected) {
		return
	}

	lit := map[string]bool{s.selected: true}
	outNodes, outEdges := s.engine.Outgoers(s.selected)
	inNodes, inEdges := s.engine.Incomers(s.selected)
	for _, group := range [][]string{outNodes, outEdges, inNodes, inEdges} {
		for _, id := range group {
			lit[id] = true
		}
	}

	s.engine.AddClass(s.selected, scene.ClassSelected)
	for _, el := range s.engine.Elements() {
		if el.Data.Compound {
			continue
		}
		if lit[el.ID] {
			s.engine.AddClass(el.ID, scene.ClassHighlighted)
		} else {
			s.engine.AddClass(el.ID, scene.ClassFaded)
		}
	}
}

func (s *Synchronizer) applySearch() {
	s.engine.RemoveClasses(searchClasses...)
	if !s.query.Active() {
		s.search.Reset()
		return
	}

	els := s.engine.Elements()
	s.search.Update(MatchElements(s.query, els))

	match := make(map[string]bool, s.search.Len())
	for _, id := range s.search.matches {
		match[id] = true
	}
	for _, el := range els {
		switch {
		case el.Data.Compound:
		case el.IsEdge():
			if !match[el.Source] || !match[el.Target] {
				s.engine.AddClass(el.ID, scene.ClassSearchDimmed)
			}
		case match[el.ID]:
			s.engine.AddClass(el.ID, scene.ClassSearchMatch)
		default:
			s.engine.AddClass(el.ID, scene.ClassSearchDimmed)
		}
	}
	if id, ok := s.search.Current(); ok {
		s.engine.AddClass(id, scene.ClassSearchCurrent)
	}
}

func (s *Synchronizer) markCurrent() {
	s.engine.RemoveClasses(scene.ClassSearchCurrent)
	if id, ok := s.search.Current(); ok {
		s.engine.AddClass(id, scene.ClassSearchCurrent)
	}
}
