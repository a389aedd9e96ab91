package designer

import (
	"reflect"

	"github.com/goliatone/go-formdesigner/pkg/schema"
)

// Reduce computes the state that follows applying cmd to state. It never
// mutates state and the result never shares slices or pointers with it when
// the schema changes. Structurally invalid commands (unknown ids, a move onto
// itself, an unknown mode, adding a field whose id is already taken) leave the
// state unchanged; semantic problems are reported by Validate, never here.
func Reduce(state DesignerState, cmd Command) DesignerState {
	next, _ := reduce(state, cmd)
	return next
}

// reduce reports whether the schema changed, which drives history.
func reduce(state DesignerState, cmd Command) (DesignerState, bool) {
	switch c := cmd.(type) {
	case SetSchema:
		state.Schema = c.Schema.Clone()
		state.SelectedFieldID = ""
		return state, true

	case SetMode:
		if !c.Mode.Valid() {
			return state, false
		}
		state.Mode = c.Mode
		if c.Mode == ModePreview {
			state.SelectedFieldID = ""
		}
		return state, false

	case SelectField:
		state.SelectedFieldID = c.FieldID
		return state, false

	case AddField:
		if c.Field.ID == "" || state.Schema.IndexOf(c.Field.ID) >= 0 {
			return state, false
		}
		doc := state.Schema.Clone()
		doc.Fields = append(doc.Fields, c.Field.Clone())
		state.Schema = doc
		state.SelectedFieldID = c.Field.ID
		state.Mode = ModeDesign
		return state, true

	case UpdateField:
		idx := state.Schema.IndexOf(c.FieldID)
		if idx < 0 || c.Patch.Empty() {
			return state, false
		}
		// Patches holding only keys the field's type ignores, or values it
		// already has, change nothing.
		patched := c.Patch.apply(state.Schema.Fields[idx])
		if reflect.DeepEqual(patched, state.Schema.Fields[idx]) {
			return state, false
		}
		doc := state.Schema.Clone()
		doc.Fields[idx] = patched
		state.Schema = doc
		return state, true

	case DeleteField:
		idx := state.Schema.IndexOf(c.FieldID)
		if idx < 0 {
			return state, false
		}
		doc := state.Schema.Clone()
		doc.Fields = append(doc.Fields[:idx], doc.Fields[idx+1:]...)
		state.Schema = doc
		if state.SelectedFieldID == c.FieldID {
			state.SelectedFieldID = ""
		}
		return state, true

	case MoveField:
		from := state.Schema.IndexOf(c.ActiveID)
		to := state.Schema.IndexOf(c.OverID)
		if from < 0 || to < 0 || from == to {
			return state, false
		}
		doc := state.Schema.Clone()
		doc.Fields = arrayMove(doc.Fields, from, to)
		state.Schema = doc
		return state, true

	case UpdateForm:
		if c.Patch.Empty() {
			return state, false
		}
		doc := state.Schema.Clone()
		state.Schema = c.Patch.apply(doc)
		return state, true

	default:
		return state, false
	}
}

// arrayMove removes the element at from and reinserts it at to, shifting the
// elements in between. fields is modified in place.
func arrayMove(fields []schema.Field, from, to int) []schema.Field {
	moved := fields[from]
	if from < to {
		copy(fields[from:to], fields[from+1:to+1])
	} else {
		copy(fields[to+1:from+1], fields[to:from])
	}
	fields[to] = moved
	return fields
}
