package schema

// FieldType is the variant tag of a Field. It is assigned at creation and never
// changes for the lifetime of the field.
type FieldType string

const (
	FieldTypeInput    FieldType = "input"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeDivider  FieldType = "divider"
	FieldTypeSection  FieldType = "section"
)

// CurrentSchemaVersion is stamped on documents created by this package.
const CurrentSchemaVersion = 1

const (
	MinColSpan = 1
	MaxColSpan = 12
)

var fieldTypes = []FieldType{
	FieldTypeInput,
	FieldTypeTextarea,
	FieldTypeNumber,
	FieldTypeDate,
	FieldTypeSelect,
	FieldTypeRadio,
	FieldTypeCheckbox,
	FieldTypeSection,
	FieldTypeDivider,
}

// FieldTypes lists every supported variant in palette order.
func FieldTypes() []FieldType {
	return append([]FieldType(nil), fieldTypes...)
}

// Valid reports whether t names a known variant.
func (t FieldType) Valid() bool {
	for _, known := range fieldTypes {
		if known == t {
			return true
		}
	}
	return false
}

// Structural reports whether the variant is layout-only and never carries a
// submitted value.
func (t FieldType) Structural() bool {
	return t == FieldTypeDivider || t == FieldTypeSection
}

// HasOptions reports whether the variant renders a choice list.
func (t FieldType) HasOptions() bool {
	return t == FieldTypeSelect || t == FieldTypeRadio
}

// Option is a single label/value pair of a select or radio field.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// FormDocument is the root aggregate edited by the designer. Field order is
// significant: it defines render and tab order.
type FormDocument struct {
	SchemaVersion int     `json:"schemaVersion" yaml:"schemaVersion"`
	Title         string  `json:"title" yaml:"title"`
	Description   string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields        []Field `json:"fields" yaml:"fields"`
}

// Field is one entry of a form. Attributes shared by every variant live on the
// struct; variant specific attributes live in Props, whose concrete type always
// matches Type. Field values serialise as a single flat object.
type Field struct {
	ID       string
	Type     FieldType
	Name     string
	Label    string
	Required bool
	Disabled bool
	// ColSpan is nil when the layout width is not set.
	ColSpan  *int
	HelpText string
	Props    FieldProps
}

// FieldProps is implemented by the variant attribute structs below. The set is
// closed: only this package can add variants.
type FieldProps interface {
	FieldType() FieldType
	cloneProps() FieldProps
}

// InputProps holds single-line text attributes.
type InputProps struct {
	Placeholder  string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	DefaultValue string `json:"defaultValue" yaml:"defaultValue"`
}

// TextareaProps holds multi-line text attributes.
type TextareaProps struct {
	Placeholder  string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	DefaultValue string `json:"defaultValue" yaml:"defaultValue"`
	Rows         int    `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// NumberProps holds numeric input attributes. Min and Max are nil when
// unbounded.
type NumberProps struct {
	Placeholder  string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	DefaultValue float64  `json:"defaultValue" yaml:"defaultValue"`
	Min          *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max          *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Step         float64  `json:"step,omitempty" yaml:"step,omitempty"`
}

// DateProps holds date picker attributes. DefaultValue is date formatted
// (YYYY-MM-DD) or empty.
type DateProps struct {
	DefaultValue string `json:"defaultValue" yaml:"defaultValue"`
}

// SelectProps holds dropdown attributes.
type SelectProps struct {
	Placeholder  string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	DefaultValue string   `json:"defaultValue" yaml:"defaultValue"`
	Options      []Option `json:"options" yaml:"options"`
}

// RadioProps holds radio group attributes.
type RadioProps struct {
	DefaultValue string   `json:"defaultValue" yaml:"defaultValue"`
	Options      []Option `json:"options" yaml:"options"`
}

// CheckboxProps holds single checkbox attributes.
type CheckboxProps struct {
	DefaultValue bool `json:"defaultValue" yaml:"defaultValue"`
}

// SectionProps holds group container metadata.
type SectionProps struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// DividerProps is empty; dividers are visual separators only.
type DividerProps struct{}

func (InputProps) FieldType() FieldType    { return FieldTypeInput }
func (TextareaProps) FieldType() FieldType { return FieldTypeTextarea }
func (NumberProps) FieldType() FieldType   { return FieldTypeNumber }
func (DateProps) FieldType() FieldType     { return FieldTypeDate }
func (SelectProps) FieldType() FieldType   { return FieldTypeSelect }
func (RadioProps) FieldType() FieldType    { return FieldTypeRadio }
func (CheckboxProps) FieldType() FieldType { return FieldTypeCheckbox }
func (SectionProps) FieldType() FieldType  { return FieldTypeSection }
func (DividerProps) FieldType() FieldType  { return FieldTypeDivider }

func (p InputProps) cloneProps() FieldProps    { return p }
func (p TextareaProps) cloneProps() FieldProps { return p }
func (p DateProps) cloneProps() FieldProps     { return p }
func (p CheckboxProps) cloneProps() FieldProps { return p }
func (p SectionProps) cloneProps() FieldProps  { return p }
func (p DividerProps) cloneProps() FieldProps  { return p }

func (p NumberProps) cloneProps() FieldProps {
	p.Min = cloneFloat(p.Min)
	p.Max = cloneFloat(p.Max)
	return p
}

func (p SelectProps) cloneProps() FieldProps {
	p.Options = cloneOptions(p.Options)
	return p
}

func (p RadioProps) cloneProps() FieldProps {
	p.Options = cloneOptions(p.Options)
	return p
}

// Options returns the choice list of select and radio fields, or nil for every
// other variant.
func (f Field) Options() []Option {
	switch props := f.Props.(type) {
	case SelectProps:
		return props.Options
	case RadioProps:
		return props.Options
	default:
		return nil
	}
}

// Submittable reports whether the field contributes a value on submission.
func (f Field) Submittable() bool {
	return !f.Type.Structural()
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	out.ColSpan = cloneInt(f.ColSpan)
	if f.Props != nil {
		out.Props = f.Props.cloneProps()
	}
	return out
}

// Clone returns a deep copy of the document.
func (d FormDocument) Clone() FormDocument {
	out := d
	if d.Fields != nil {
		out.Fields = make([]Field, len(d.Fields))
		for idx, field := range d.Fields {
			out.Fields[idx] = field.Clone()
		}
	}
	return out
}

// FieldByID returns the field with the given id.
func (d FormDocument) FieldByID(id string) (Field, bool) {
	if idx := d.IndexOf(id); idx >= 0 {
		return d.Fields[idx], true
	}
	return Field{}, false
}

// IndexOf returns the position of the field with the given id, or -1.
func (d FormDocument) IndexOf(id string) int {
	for idx, field := range d.Fields {
		if field.ID == id {
			return idx
		}
	}
	return -1
}

// Int returns a pointer to v. Handy for ColSpan literals.
func Int(v int) *int {
	return &v
}

// Float returns a pointer to v. Handy for NumberProps bounds.
func Float(v float64) *float64 {
	return &v
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneOptions(src []Option) []Option {
	if src == nil {
		return nil
	}
	return append(make([]Option, 0, len(src)), src...)
}
