package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formdesigner/pkg/schema"
	"github.com/goliatone/go-formdesigner/pkg/widgets"
)

// Extension keys written on derived property schemas.
const (
	ExtensionFieldID = "x-formdesigner-field-id"
	ExtensionWidget  = "x-formdesigner-widget"
	ExtensionColSpan = "x-formdesigner-col-span"
	ExtensionVersion = "x-formdesigner-schema-version"
)

var defaultWidgets = widgets.NewRegistry()

// OpenAPISchema derives the request body schema a submission of doc must
// satisfy. Dividers and sections carry no value and are skipped. Property
// names are field names; fields with a blank name are skipped too, since
// they cannot be submitted.
func OpenAPISchema(doc schema.FormDocument) *openapi3.Schema {
	return schemaFor(doc, defaultWidgets)
}

func schemaFor(doc schema.FormDocument, reg *widgets.Registry) *openapi3.Schema {
	root := openapi3.NewObjectSchema()
	root.Title = doc.Title
	root.Description = doc.Description
	closed := false
	root.AdditionalProperties = openapi3.AdditionalProperties{Has: &closed}
	root.Extensions = map[string]any{ExtensionVersion: doc.SchemaVersion}

	var required []string
	for _, field := range doc.Fields {
		name := strings.TrimSpace(field.Name)
		if !field.Submittable() || name == "" {
			continue
		}
		if _, exists := root.Properties[name]; exists {
			continue
		}
		prop := propertySchema(field)
		prop.Extensions = map[string]any{ExtensionFieldID: field.ID}
		if widget, ok := reg.Resolve(field); ok {
			prop.Extensions[ExtensionWidget] = widget
		}
		if field.ColSpan != nil {
			prop.Extensions[ExtensionColSpan] = *field.ColSpan
		}
		root.WithProperty(name, prop)
		if field.Required {
			required = append(required, name)
		}
	}
	if len(required) > 0 {
		root.WithRequired(required)
	}
	return root
}

func propertySchema(field schema.Field) *openapi3.Schema {
	var prop *openapi3.Schema
	var def any

	switch props := field.Props.(type) {
	case schema.InputProps:
		prop = openapi3.NewStringSchema()
		def = nonEmpty(props.DefaultValue)
	case schema.TextareaProps:
		prop = openapi3.NewStringSchema()
		def = nonEmpty(props.DefaultValue)
	case schema.DateProps:
		prop = openapi3.NewStringSchema().WithFormat("date")
		if _, err := time.Parse(time.DateOnly, props.DefaultValue); err == nil {
			def = props.DefaultValue
		}
	case schema.SelectProps:
		prop = choiceSchema(props.Options)
		def = nonEmpty(props.DefaultValue)
	case schema.RadioProps:
		prop = choiceSchema(props.Options)
		def = nonEmpty(props.DefaultValue)
	case schema.NumberProps:
		prop = openapi3.NewFloat64Schema()
		if props.Min != nil {
			prop.WithMin(*props.Min)
		}
		if props.Max != nil {
			prop.WithMax(*props.Max)
		}
		if props.Step > 0 {
			step := props.Step
			prop.MultipleOf = &step
		}
		def = props.DefaultValue
	case schema.CheckboxProps:
		prop = openapi3.NewBoolSchema()
		if field.Required {
			prop.WithEnum(true)
		}
		def = props.DefaultValue
	default:
		prop = openapi3.NewStringSchema()
	}

	if field.Required && prop.Type.Is(openapi3.TypeString) && len(prop.Enum) == 0 {
		prop.WithMinLength(1)
	}
	prop.Title = field.Label
	prop.Description = field.HelpText
	prop.ReadOnly = field.Disabled

	// Defaults that fail the property's own constraints are dropped.
	if def != nil && prop.VisitJSON(def) == nil {
		prop.Default = def
	}
	return prop
}

// ValidateDocumentSchema checks that the derived schema of doc is itself a
// valid OpenAPI schema.
func ValidateDocumentSchema(ctx context.Context, doc schema.FormDocument) error {
	if err := OpenAPISchema(doc).Validate(ctx); err != nil {
		return fmt.Errorf("export: derived schema: %w", err)
	}
	return nil
}

func choiceSchema(options []schema.Option) *openapi3.Schema {
	prop := openapi3.NewStringSchema()
	if values := optionValues(options); len(values) > 0 {
		prop.WithEnum(values...)
	}
	return prop
}

func optionValues(options []schema.Option) []any {
	values := make([]any, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		if _, dup := seen[opt.Value]; dup {
			continue
		}
		seen[opt.Value] = struct{}{}
		values = append(values, opt.Value)
	}
	return values
}

func nonEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
