package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownFieldType is returned when a serialised field carries a type tag
	// outside the supported variant set.
	ErrUnknownFieldType = errors.New("schema: unknown field type")
	// ErrPropsMismatch is returned when a field's Props do not match its Type.
	ErrPropsMismatch = errors.New("schema: field props do not match field type")
)

// fieldHeader carries the attributes common to every variant. Variant keys are
// written next to these in the same object.
type fieldHeader struct {
	ID       string    `json:"id" yaml:"id"`
	Type     FieldType `json:"type" yaml:"type"`
	Name     string    `json:"name" yaml:"name"`
	Label    string    `json:"label,omitempty" yaml:"label,omitempty"`
	Required bool      `json:"required" yaml:"required"`
	Disabled bool      `json:"disabled" yaml:"disabled"`
	ColSpan  *int      `json:"colSpan,omitempty" yaml:"colSpan,omitempty"`
	HelpText string    `json:"helpText,omitempty" yaml:"helpText,omitempty"`
}

func (f Field) header() fieldHeader {
	return fieldHeader{
		ID:       f.ID,
		Type:     f.Type,
		Name:     f.Name,
		Label:    f.Label,
		Required: f.Required,
		Disabled: f.Disabled,
		ColSpan:  f.ColSpan,
		HelpText: f.HelpText,
	}
}

func (h fieldHeader) field() Field {
	return Field{
		ID:       h.ID,
		Type:     h.Type,
		Name:     h.Name,
		Label:    h.Label,
		Required: h.Required,
		Disabled: h.Disabled,
		ColSpan:  h.ColSpan,
		HelpText: h.HelpText,
	}
}

func (f Field) checkProps() error {
	if !f.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFieldType, f.Type)
	}
	if f.Props != nil && f.Props.FieldType() != f.Type {
		return fmt.Errorf("%w: field %q is %s, props are %s", ErrPropsMismatch, f.ID, f.Type, f.Props.FieldType())
	}
	return nil
}

// MarshalJSON writes the field as one flat object.
func (f Field) MarshalJSON() ([]byte, error) {
	if err := f.checkProps(); err != nil {
		return nil, err
	}
	head, err := json.Marshal(f.header())
	if err != nil {
		return nil, err
	}
	props := f.Props
	if props == nil {
		props = zeroProps(f.Type)
	}
	body, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) <= 2 {
		return head, nil
	}

	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head[:len(head)-1]...)
	out = append(out, ',')
	out = append(out, body[1:]...)
	return out, nil
}

// UnmarshalJSON reads a flat field object, selecting the Props variant from the
// "type" key.
func (f *Field) UnmarshalJSON(data []byte) error {
	var head fieldHeader
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	props, err := decodeProps(head.Type, func(target any) error {
		return json.Unmarshal(data, target)
	})
	if err != nil {
		return err
	}
	decoded := head.field()
	decoded.Props = props
	*f = decoded
	return nil
}

// MarshalYAML writes the field as one mapping, common keys first.
func (f Field) MarshalYAML() (any, error) {
	if err := f.checkProps(); err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := node.Encode(f.header()); err != nil {
		return nil, err
	}
	props := f.Props
	if props == nil {
		props = zeroProps(f.Type)
	}
	var body yaml.Node
	if err := body.Encode(props); err != nil {
		return nil, err
	}
	node.Content = append(node.Content, body.Content...)
	return &node, nil
}

// UnmarshalYAML reads a flat field mapping.
func (f *Field) UnmarshalYAML(value *yaml.Node) error {
	var head fieldHeader
	if err := value.Decode(&head); err != nil {
		return err
	}
	props, err := decodeProps(head.Type, value.Decode)
	if err != nil {
		return err
	}
	decoded := head.field()
	decoded.Props = props
	*f = decoded
	return nil
}

func decodeProps(t FieldType, decode func(any) error) (FieldProps, error) {
	switch t {
	case FieldTypeInput:
		var props InputProps
		err := decode(&props)
		return props, err
	case FieldTypeTextarea:
		var props TextareaProps
		err := decode(&props)
		return props, err
	case FieldTypeNumber:
		var props NumberProps
		err := decode(&props)
		return props, err
	case FieldTypeDate:
		var props DateProps
		err := decode(&props)
		return props, err
	case FieldTypeSelect:
		var props SelectProps
		err := decode(&props)
		return props, err
	case FieldTypeRadio:
		var props RadioProps
		err := decode(&props)
		return props, err
	case FieldTypeCheckbox:
		var props CheckboxProps
		err := decode(&props)
		return props, err
	case FieldTypeSection:
		var props SectionProps
		err := decode(&props)
		return props, err
	case FieldTypeDivider:
		return DividerProps{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFieldType, t)
	}
}

func zeroProps(t FieldType) FieldProps {
	switch t {
	case FieldTypeInput:
		return InputProps{}
	case FieldTypeTextarea:
		return TextareaProps{}
	case FieldTypeNumber:
		return NumberProps{}
	case FieldTypeDate:
		return DateProps{}
	case FieldTypeSelect:
		return SelectProps{}
	case FieldTypeRadio:
		return RadioProps{}
	case FieldTypeCheckbox:
		return CheckboxProps{}
	case FieldTypeSection:
		return SectionProps{}
	default:
		return DividerProps{}
	}
}
