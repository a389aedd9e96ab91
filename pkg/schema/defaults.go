package schema

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultFormTitle  = "Untitled form"
	DefaultFieldLabel = "Untitled field"
	DefaultColSpan    = MaxColSpan
	DefaultTextRows   = 4

	nameSuffixLength = 6
)

// IDSource produces fresh field identifiers. Implementations must not repeat
// an id within a process.
type IDSource func() string

// NewID returns a dash-free random UUID.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Factory builds fields pre-populated with variant defaults. It does not look
// at any existing document, so generated names are collision resistant but
// not guaranteed unique; Validate reports duplicates.
type Factory struct {
	newID IDSource
}

// NewFactory returns a Factory drawing ids from src. A nil src falls back to
// NewID.
func NewFactory(src IDSource) *Factory {
	if src == nil {
		src = NewID
	}
	return &Factory{newID: src}
}

var defaultFactory = NewFactory(nil)

// CreateDefaultField builds a field of type t using random ids.
func CreateDefaultField(t FieldType) (Field, error) {
	return defaultFactory.Create(t)
}

// MustCreateDefaultField panics when t is unknown. Useful for tests and
// palette wiring where the type set is fixed.
func MustCreateDefaultField(t FieldType) Field {
	field, err := CreateDefaultField(t)
	if err != nil {
		panic(err)
	}
	return field
}

// Create builds a field of type t with a fresh id, a name derived from the type
// and id, and the variant's default attributes.
func (f *Factory) Create(t FieldType) (Field, error) {
	if !t.Valid() {
		return Field{}, fmt.Errorf("%w: %q", ErrUnknownFieldType, t)
	}
	src := NewID
	if f != nil && f.newID != nil {
		src = f.newID
	}

	id := src()
	field := Field{
		ID:      id,
		Type:    t,
		Name:    string(t) + "_" + nameSuffix(id),
		Label:   DefaultFieldLabel,
		ColSpan: Int(DefaultColSpan),
	}

	switch t {
	case FieldTypeInput:
		field.Props = InputProps{Placeholder: "Please enter"}
	case FieldTypeTextarea:
		field.Props = TextareaProps{Placeholder: "Please enter", Rows: DefaultTextRows}
	case FieldTypeNumber:
		field.Props = NumberProps{Placeholder: "Please enter a number", Step: 1}
	case FieldTypeSelect:
		field.Props = SelectProps{Placeholder: "Please select", Options: defaultOptions()}
	case FieldTypeCheckbox:
		field.Label = "Checkbox"
		field.Props = CheckboxProps{}
	case FieldTypeRadio:
		field.Label = "Radio"
		field.Props = RadioProps{DefaultValue: "opt1", Options: defaultOptions()}
	case FieldTypeDate:
		field.Label = "Date"
		field.Props = DateProps{}
	case FieldTypeDivider:
		field.Label = ""
		field.Props = DividerProps{}
	case FieldTypeSection:
		field.Props = SectionProps{Title: "Section title"}
	}
	return field, nil
}

// DefaultDocument returns an empty document with the default title.
func DefaultDocument() FormDocument {
	return FormDocument{
		SchemaVersion: CurrentSchemaVersion,
		Title:         DefaultFormTitle,
		Fields:        []Field{},
	}
}

func defaultOptions() []Option {
	return []Option{
		{Label: "Option 1", Value: "opt1"},
		{Label: "Option 2", Value: "opt2"},
	}
}

func nameSuffix(id string) string {
	if len(id) <= nameSuffixLength {
		return id
	}
	return id[:nameSuffixLength]
}
