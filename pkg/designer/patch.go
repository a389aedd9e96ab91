package designer

import (
	"encoding/json"

	"github.com/goliatone/go-formdesigner/pkg/schema"
)

// FieldPatch lists the attributes UpdateField may overwrite. Nil members are
// left untouched. Variant attributes that do not apply to the target field's
// type are ignored, and neither ID nor Type can be patched.
type FieldPatch struct {
	Name     *string `json:"name,omitempty"`
	Label    *string `json:"label,omitempty"`
	Required *bool   `json:"required,omitempty"`
	Disabled *bool   `json:"disabled,omitempty"`
	ColSpan  *int    `json:"colSpan,omitempty"`
	HelpText *string `json:"helpText,omitempty"`

	Placeholder *string `json:"placeholder,omitempty"`
	// DefaultValue must match the variant: string for text, date and choice
	// fields, a number for number fields, a bool for checkboxes.
	DefaultValue any      `json:"defaultValue,omitempty"`
	Rows         *int     `json:"rows,omitempty"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Step         *float64 `json:"step,omitempty"`
	// Options replaces the whole choice list when non-nil.
	Options     []schema.Option `json:"options,omitempty"`
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
}

// MarshalJSON keeps an empty, non-nil Options so a patch clearing the choice
// list survives encoding. Nil Options stay absent.
func (p FieldPatch) MarshalJSON() ([]byte, error) {
	type plain FieldPatch
	out := struct {
		plain
		Options *[]schema.Option `json:"options,omitempty"`
	}{plain: plain(p)}
	if p.Options != nil {
		options := p.Options
		out.Options = &options
	}
	return json.Marshal(out)
}

// FormPatch lists the document metadata UpdateForm may overwrite.
type FormPatch struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	SchemaVersion *int    `json:"schemaVersion,omitempty"`
}

// String returns a pointer to v, for building patches.
func String(v string) *string {
	return &v
}

// Bool returns a pointer to v, for building patches.
func Bool(v bool) *bool {
	return &v
}

// Int returns a pointer to v, for building patches.
func Int(v int) *int {
	return &v
}

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 {
	return &v
}

// Empty reports whether the patch would leave every attribute untouched.
func (p FieldPatch) Empty() bool {
	return p.Name == nil && p.Label == nil && p.Required == nil && p.Disabled == nil &&
		p.ColSpan == nil && p.HelpText == nil && p.Placeholder == nil && p.DefaultValue == nil &&
		p.Rows == nil && p.Min == nil && p.Max == nil && p.Step == nil && p.Options == nil &&
		p.Title == nil && p.Description == nil
}

// apply merges the patch into a copy of field. The input is never modified.
func (p FieldPatch) apply(field schema.Field) schema.Field {
	out := field.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Label != nil {
		out.Label = *p.Label
	}
	if p.Required != nil {
		out.Required = *p.Required
	}
	if p.Disabled != nil {
		out.Disabled = *p.Disabled
	}
	if p.ColSpan != nil {
		out.ColSpan = schema.Int(*p.ColSpan)
	}
	if p.HelpText != nil {
		out.HelpText = *p.HelpText
	}

	switch props := out.Props.(type) {
	case schema.InputProps:
		setString(&props.Placeholder, p.Placeholder)
		setStringValue(&props.DefaultValue, p.DefaultValue)
		out.Props = props
	case schema.TextareaProps:
		setString(&props.Placeholder, p.Placeholder)
		setStringValue(&props.DefaultValue, p.DefaultValue)
		if p.Rows != nil {
			props.Rows = *p.Rows
		}
		out.Props = props
	case schema.NumberProps:
		setString(&props.Placeholder, p.Placeholder)
		if v, ok := numberValue(p.DefaultValue); ok {
			props.DefaultValue = v
		}
		if p.Min != nil {
			props.Min = schema.Float(*p.Min)
		}
		if p.Max != nil {
			props.Max = schema.Float(*p.Max)
		}
		if p.Step != nil {
			props.Step = *p.Step
		}
		out.Props = props
	case schema.DateProps:
		setStringValue(&props.DefaultValue, p.DefaultValue)
		out.Props = props
	case schema.SelectProps:
		setString(&props.Placeholder, p.Placeholder)
		setStringValue(&props.DefaultValue, p.DefaultValue)
		if p.Options != nil {
			props.Options = append([]schema.Option{}, p.Options...)
		}
		out.Props = props
	case schema.RadioProps:
		setStringValue(&props.DefaultValue, p.DefaultValue)
		if p.Options != nil {
			props.Options = append([]schema.Option{}, p.Options...)
		}
		out.Props = props
	case schema.CheckboxProps:
		if v, ok := p.DefaultValue.(bool); ok {
			props.DefaultValue = v
		}
		out.Props = props
	case schema.SectionProps:
		setString(&props.Title, p.Title)
		setString(&props.Description, p.Description)
		out.Props = props
	}
	return out
}

// Empty reports whether the patch would leave the metadata untouched.
func (p FormPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.SchemaVersion == nil
}

func (p FormPatch) apply(doc schema.FormDocument) schema.FormDocument {
	if p.Title != nil {
		doc.Title = *p.Title
	}
	if p.Description != nil {
		doc.Description = *p.Description
	}
	if p.SchemaVersion != nil {
		doc.SchemaVersion = *p.SchemaVersion
	}
	return doc
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setStringValue(dst *string, src any) {
	if v, ok := src.(string); ok {
		*dst = v
	}
}

func numberValue(src any) (float64, bool) {
	switch v := src.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
