package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formdesigner/pkg/schema"
)

// ValidateSubmission checks values, keyed by field name, against the schema
// derived from doc. It returns every violation as "<name>: <reason>", or a
// bare reason for form level problems. An empty result means the submission
// is acceptable.
func ValidateSubmission(ctx context.Context, doc schema.FormDocument, values map[string]any) []string {
	if err := ctx.Err(); err != nil {
		return []string{err.Error()}
	}

	normalised, err := normaliseValues(values)
	if err != nil {
		return []string{err.Error()}
	}

	err = OpenAPISchema(doc).VisitJSON(normalised, openapi3.MultiErrors())
	if err == nil {
		return nil
	}
	return submissionMessages(err)
}

// normaliseValues round-trips values through JSON so every number is a
// float64 and every nested value has the shape a JSON decoder produces.
func normaliseValues(values map[string]any) (map[string]any, error) {
	if values == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("export: submission values: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("export: submission values: %w", err)
	}
	return out, nil
}

func submissionMessages(err error) []string {
	var messages []string
	var collect func(error)
	collect = func(err error) {
		var multi openapi3.MultiError
		if errors.As(err, &multi) {
			for _, inner := range multi {
				collect(inner)
			}
			return
		}
		var schemaErr *openapi3.SchemaError
		if errors.As(err, &schemaErr) {
			reason := schemaErr.Reason
			if pointer := schemaErr.JSONPointer(); len(pointer) > 0 {
				reason = strings.Join(pointer, ".") + ": " + reason
			}
			messages = append(messages, reason)
			return
		}
		messages = append(messages, err.Error())
	}
	collect(err)
	return dedupe(messages)
}

func dedupe(messages []string) []string {
	seen := make(map[string]struct{}, len(messages))
	out := make([]string, 0, len(messages))
	for _, msg := range messages {
		msg = strings.TrimSpace(msg)
		if msg == "" {
			continue
		}
		if _, ok := seen[msg]; ok {
			continue
		}
		seen[msg] = struct{}{}
		out = append(out, msg)
	}
	return out
}
