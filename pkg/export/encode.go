package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formdesigner/pkg/schema"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatOpenAPI Format = "openapi"
)

// ErrUnsupportedFormat is returned for unknown format names.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// ParseFormat resolves a user supplied format name. An empty name selects
// JSON.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "openapi", "oas":
		return FormatOpenAPI, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// ContentType returns the media type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/json"
	}
}

// Extension returns the file extension, dot included, for f.
func (f Format) Extension() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// Encode serialises doc. JSON output is indented with two spaces; the OpenAPI
// format emits the derived request schema as JSON.
func Encode(doc schema.FormDocument, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("export: encode json: %w", err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("export: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("export: encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatOpenAPI:
		out, err := json.MarshalIndent(OpenAPISchema(doc), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("export: encode openapi: %w", err)
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
