package render

import (
	"fmt"
	"sort"
	"strings"
)

// HiddenField is a hidden input emitted alongside the visible controls of a
// preview form.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// VersionField carries the document schema version so a submission handler
// can reject values collected against an older layout.
func VersionField(version int) HiddenField {
	return Hidden("_schemaVersion", version)
}

// MergeHiddenFields returns a copy of base with fields applied. Empty names
// are ignored; later fields win on collisions.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		out[field.Name] = field.Value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields returns fields ordered by name for deterministic output.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	result := make([]HiddenField, 0, len(fields))
	for name, value := range fields {
		if key := strings.TrimSpace(name); key != "" {
			result = append(result, HiddenField{Name: key, Value: value})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}
