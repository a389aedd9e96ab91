package render

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formdesigner/pkg/schema"
)

// ErrorMapping splits an error payload into field-level messages keyed by
// field name and form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors concatenates and normalises form-level error slices,
// trimming whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload resolves loosely keyed error payloads onto the fields of
// doc. Keys may be a field name, a field id, or a JSON pointer / dotted path
// whose wrapper segments ("body", "data", ...) are skipped. Keys matching no
// field become form-level messages so nothing is lost.
func MapErrorPayload(doc schema.FormDocument, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{
		Fields: make(map[string][]string),
	}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	names := make(map[string]string, len(doc.Fields)*2)
	for _, field := range doc.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" || !field.Submittable() {
			continue
		}
		names[name] = name
		if field.ID != "" {
			if _, taken := names[field.ID]; !taken {
				names[field.ID] = name
			}
		}
	}

	for _, key := range sortedKeys(payload) {
		messages := normalizeMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		name, ok := resolveErrorKey(key, names)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[name] = normalizeMessages(append(mapping.Fields[name], messages...))
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// SubmissionErrors groups "<name>: <reason>" messages, as produced by
// export.ValidateSubmission, into a payload MapErrorPayload understands.
// Messages without a name prefix are keyed as form-level.
func SubmissionErrors(messages []string) map[string][]string {
	if len(messages) == 0 {
		return nil
	}
	payload := make(map[string][]string)
	for _, msg := range messages {
		key, reason, found := strings.Cut(msg, ": ")
		if !found || strings.ContainsAny(key, " \t") {
			payload["form"] = append(payload["form"], msg)
			continue
		}
		payload[key] = append(payload[key], reason)
	}
	return payload
}

func resolveErrorKey(raw string, names map[string]string) (string, bool) {
	if isFormLevelKey(raw) {
		return "", false
	}
	segments := dropWrapperSegments(parsePathSegments(raw))
	if len(segments) == 0 {
		return "", false
	}
	name, ok := names[segments[0]]
	return name, ok
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = clean[1:]
	}
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 0 {
		switch strings.ToLower(out[0]) {
		case "body", "request", "payload", "data", "values", "fields":
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}

func sortedKeys(payload map[string][]string) []string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
