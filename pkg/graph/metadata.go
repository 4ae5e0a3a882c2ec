package graph

import (
	"math"
	"strconv"
	"strings"
)

// Metadata is the free-form metadata attached to a node by the scanner.
// Accessors never fail: a missing or mistyped field yields the zero value.
type Metadata map[string]any

// Metadata keys written by the scanner.
const (
	KeyFQN         = "fullyQualifiedName"
	KeyFilePath    = "filePath"
	KeyLine        = "line"
	KeyPackage     = "package"
	KeyCategory    = "category"
	KeyModifiers   = "modifiers"
	KeyAnnotations = "annotations"
	KeyMethodCount = "methodCount"
	KeyFieldCount  = "fieldCount"
)

// DefaultCategory is used when a node declares no category.
const DefaultCategory = "unknown"

// FQN returns the fully-qualified name.
func (m Metadata) FQN() string { return m.str(KeyFQN) }

// FilePath returns the source file path.
func (m Metadata) FilePath() string { return m.str(KeyFilePath) }

// Package returns the declaring package name.
func (m Metadata) Package() string { return m.str(KeyPackage) }

// Line returns the declaration line, or 0.
func (m Metadata) Line() int { return m.int(KeyLine) }

// MethodCount returns the number of declared methods, or 0.
func (m Metadata) MethodCount() int { return m.int(KeyMethodCount) }

// FieldCount returns the number of declared fields, or 0.
func (m Metadata) FieldCount() int { return m.int(KeyFieldCount) }

// Category returns the node category, defaulting to "unknown".
func (m Metadata) Category() string {
	if c := m.str(KeyCategory); c != "" {
		return c
	}
	return DefaultCategory
}

// Modifiers returns the declared modifier keywords.
func (m Metadata) Modifiers() []string { return m.strs(KeyModifiers) }

// Annotations returns the declared annotations, as written (e.g. "@Service").
func (m Metadata) Annotations() []string { return m.strs(KeyAnnotations) }

func (m Metadata) str(key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

func (m Metadata) int(key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func (m Metadata) strs(key string) []string {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		// Some scanners emit a space separated list.
		return strings.Fields(v)
	}
	return nil
}
