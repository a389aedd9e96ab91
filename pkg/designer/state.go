package designer

import "github.com/goliatone/go-formdesigner/pkg/schema"

// Mode toggles between the editable canvas and the plain preview.
type Mode string

const (
	ModeDesign  Mode = "design"
	ModePreview Mode = "preview"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeDesign || m == ModePreview
}

// DesignerState is the composite record owned by the store. SelectedFieldID is
// empty when nothing is selected. It is transient: only Schema is persisted.
type DesignerState struct {
	Schema          schema.FormDocument `json:"schema"`
	SelectedFieldID string              `json:"selectedFieldId"`
	Mode            Mode                `json:"mode"`
}

// InitialState returns the default document in design mode with no selection.
func InitialState() DesignerState {
	return DesignerState{
		Schema: schema.DefaultDocument(),
		Mode:   ModeDesign,
	}
}

// Clone returns a deep copy so callers can hold on to a snapshot without
// observing later changes.
func (s DesignerState) Clone() DesignerState {
	out := s
	out.Schema = s.Schema.Clone()
	return out
}

// SelectedField returns the currently selected field, if any.
func (s DesignerState) SelectedField() (schema.Field, bool) {
	if s.SelectedFieldID == "" {
		return schema.Field{}, false
	}
	return s.Schema.FieldByID(s.SelectedFieldID)
}
