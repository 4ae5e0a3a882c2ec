package view

import (
	"strings"

	"github.com/ha1tch/codemap/pkg/scene"
)

// Modifiers recognised as bare search keywords.
var modifierKeywords = map[string]bool{
	"public":       true,
	"private":      true,
	"protected":    true,
	"static":       true,
	"abstract":     true,
	"final":        true,
	"synchronized": true,
	"native":       true,
	"transient":    true,
	"volatile":     true,
	"default":      true,
	"sealed":       true,
}

type queryKind int

const (
	queryNone queryKind = iota
	queryAnnotation
	queryType
	queryModifier
	querySubstring
)

// Query is a parsed search query.
//
//	@Name          label or fqn contains "@Name", or an annotation is Name,
//	               otherwise label (then fqn) contains Name
//	type:<prefix>  node type starts with prefix; empty prefix matches nothing
//	<modifier>     modifier list contains the keyword
//	anything else  label, then fqn, contains the text
//
// Matching is case-insensitive. An empty query is inactive.
type Query struct {
	raw  string
	kind queryKind
	term string // lower-cased operand
}

// ParseQuery parses the search mini-language.
func ParseQuery(s string) Query {
	raw := strings.TrimSpace(s)
	q := Query{raw: raw}
	lower := strings.ToLower(raw)

	switch {
	case raw == "":
		q.kind = queryNone
	case strings.HasPrefix(raw, "@"):
		q.kind = queryAnnotation
		q.term = lower[1:]
	case strings.HasPrefix(lower, "type:"):
		q.kind = queryType
		q.term = strings.TrimSpace(lower[len("type:"):])
	case modifierKeywords[lower]:
		q.kind = queryModifier
		q.term = lower
	default:
		q.kind = querySubstring
		q.term = lower
	}
	return q
}

// String returns the query text as typed, trimmed.
func (q Query) String() string { return q.raw }

// Active reports whether the query selects anything at all.
func (q Query) Active() bool { return q.kind != queryNone }

// Match reports whether a node with data d matches the query.
func (q Query) Match(d scene.Data) bool {
	label := strings.ToLower(d.Label)
	fqn := strings.ToLower(d.FQN)

	switch q.kind {
	case queryAnnotation:
		at := "@" + q.term
		if strings.Contains(label, at) || strings.Contains(fqn, at) {
			return true
		}
		for _, a := range d.Annotations {
			if strings.TrimPrefix(strings.ToLower(a), "@") == q.term {
				return true
			}
		}
		if q.term == "" {
			return false
		}
		return strings.Contains(label, q.term) || strings.Contains(fqn, q.term)

	case queryType:
		return q.term != "" && strings.HasPrefix(strings.ToLower(d.Kind), q.term)

	case queryModifier:
		for _, m := range d.Modifiers {
			if strings.ToLower(m) == q.term {
				return true
			}
		}
		return false

	case querySubstring:
		return strings.Contains(label, q.term) || strings.Contains(fqn, q.term)
	}
	return false
}

// MatchElements returns the ids of the leaf nodes in els that match q, in
// element order.
func MatchElements(q Query, els []scene.Element) []string {
	if !q.Active() {
		return nil
	}
	var ids []string
	for _, el := range els {
		if el.IsNode() && !el.Data.Compound && q.Match(el.Data) {
			ids = append(ids, el.ID)
		}
	}
	return ids
}

// SearchState is the ordered list of matches plus a cursor into it.
type SearchState struct {
	matches []string
	cursor  int
}

// Update replaces the match list. A cursor that falls outside the new list
// resets to 0.
func (s *SearchState) Update(matches []string) {
	s.matches = append([]string(nil), matches...)
	if s.cursor < 0 || s.cursor >= len(s.matches) {
		s.cursor = 0
	}
}

// Reset clears the matches and the cursor.
func (s *SearchState) Reset() {
	s.matches = nil
	s.cursor = 0
}

// Matches returns the match ids.
func (s SearchState) Matches() []string {
	return append([]string(nil), s.matches...)
}

// Len returns the number of matches.
func (s SearchState) Len() int { return len(s.matches) }

// Cursor returns the cursor index.
func (s SearchState) Cursor() int { return s.cursor }

// Current returns the match under the cursor.
func (s SearchState) Current() (string, bool) {
	if len(s.matches) == 0 {
		return "", false
	}
	return s.matches[s.cursor], true
}

// Next advances the cursor, wrapping at the end.
func (s *SearchState) Next() (string, bool) {
	if len(s.matches) == 0 {
		return "", false
	}
	s.cursor = (s.cursor + 1) % len(s.matches)
	return s.matches[s.cursor], true
}

// Prev moves the cursor back, wrapping at the start.
func (s *SearchState) Prev() (string, bool) {
	if len(s.matches) == 0 {
		return "", false
	}
	s.cursor = (s.cursor - 1 + len(s.matches)) % len(s.matches)
	return s.matches[s.cursor], true
}

// IsMatch reports whether id is in the match list.
func (s SearchState) IsMatch(id string) bool {
	for _, m := range s.matches {
		if m == id {
			return true
		}
	}
	return false
}
