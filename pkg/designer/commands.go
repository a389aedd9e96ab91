package designer

import "github.com/goliatone/go-formdesigner/pkg/schema"

// Command names mirror the action identifiers used on the wire.
const (
	CommandSetSchema   = "SET_SCHEMA"
	CommandSetMode     = "SET_MODE"
	CommandSelectField = "SELECT_FIELD"
	CommandAddField    = "ADD_FIELD"
	CommandUpdateField = "UPDATE_FIELD"
	CommandDeleteField = "DELETE_FIELD"
	CommandMoveField   = "MOVE_FIELD"
	CommandUpdateForm  = "UPDATE_FORM"
)

// Command is a request to transition designer state. The set is closed; see
// Reduce for the semantics of each command.
type Command interface {
	Name() string
	command()
}

// SetSchema replaces the document wholesale and clears the selection.
type SetSchema struct {
	Schema schema.FormDocument
}

// SetMode switches between design and preview. Entering preview clears the
// selection.
type SetMode struct {
	Mode Mode
}

// SelectField focuses a field for property editing. An empty FieldID clears
// the selection.
type SelectField struct {
	FieldID string
}

// AddField appends a fully formed field, selects it, and forces design mode.
type AddField struct {
	Field schema.Field
}

// UpdateField shallow-merges Patch into the field with the given id.
type UpdateField struct {
	FieldID string
	Patch   FieldPatch
}

// DeleteField removes a field.
type DeleteField struct {
	FieldID string
}

// MoveField relocates ActiveID to the position OverID currently occupies.
type MoveField struct {
	ActiveID string
	OverID   string
}

// UpdateForm merges Patch into the document metadata.
type UpdateForm struct {
	Patch FormPatch
}

func (SetSchema) Name() string   { return CommandSetSchema }
func (SetMode) Name() string     { return CommandSetMode }
func (SelectField) Name() string { return CommandSelectField }
func (AddField) Name() string    { return CommandAddField }
func (UpdateField) Name() string { return CommandUpdateField }
func (DeleteField) Name() string { return CommandDeleteField }
func (MoveField) Name() string   { return CommandMoveField }
func (UpdateForm) Name() string  { return CommandUpdateForm }

func (SetSchema) command()   {}
func (SetMode) command()     {}
func (SelectField) command() {}
func (AddField) command()    {}
func (UpdateField) command() {}
func (DeleteField) command() {}
func (MoveField) command()   {}
func (UpdateForm) command()  {}
