package schema

import (
	"fmt"
	"strings"
)

// ValidationError aggregates every violation found in a document.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Messages) == 0 {
		return "schema: document is invalid"
	}
	return "schema: invalid document: " + strings.Join(e.Messages, "; ")
}

// Validate checks the semantic validity of a document and returns every
// violation in document order. An empty result means the document is valid.
// Intermediate editing states are allowed to be invalid, so the designer only
// calls this on demand.
func Validate(doc FormDocument) []string {
	var errs []string
	if strings.TrimSpace(doc.Title) == "" {
		errs = append(errs, "form title must not be empty")
	}

	names := make(map[string]struct{}, len(doc.Fields))
	for _, field := range doc.Fields {
		if field.ID == "" {
			errs = append(errs, "a field is missing an id")
		}
		if strings.TrimSpace(field.Name) == "" {
			errs = append(errs, fmt.Sprintf("field (%s) name must not be empty", field.ID))
		}
		if field.Name != "" {
			if _, seen := names[field.Name]; seen {
				errs = append(errs, fmt.Sprintf("duplicate field name: %s", field.Name))
			}
			names[field.Name] = struct{}{}
		}
		if field.ColSpan != nil && (*field.ColSpan < MinColSpan || *field.ColSpan > MaxColSpan) {
			errs = append(errs, fmt.Sprintf("field (%s) colSpan must be between %d and %d", field.Name, MinColSpan, MaxColSpan))
		}
		if field.Type.HasOptions() && len(field.Options()) == 0 {
			errs = append(errs, fmt.Sprintf("field (%s) requires at least one option", field.Name))
		}
	}
	return errs
}

// ValidateDocument wraps Validate for callers that prefer an error value. It
// returns nil for valid documents and a *ValidationError otherwise.
func ValidateDocument(doc FormDocument) error {
	if errs := Validate(doc); len(errs) > 0 {
		return &ValidationError{Messages: errs}
	}
	return nil
}
