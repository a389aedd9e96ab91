package designer_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/schema"
)

func counterIDs(prefix string) schema.IDSource {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%06d", prefix, n)
	}
}

func stateWithFields(t *testing.T, types ...schema.FieldType) designer.DesignerState {
	t.Helper()
	factory := schema.NewFactory(counterIDs("fld"))
	state := designer.InitialState()
	for _, typ := range types {
		field, err := factory.Create(typ)
		if err != nil {
			t.Fatalf("create %s: %v", typ, err)
		}
		state = designer.Reduce(state, designer.AddField{Field: field})
	}
	return state
}

func fieldIDs(doc schema.FormDocument) []string {
	ids := make([]string, 0, len(doc.Fields))
	for _, field := range doc.Fields {
		ids = append(ids, field.ID)
	}
	return ids
}

func TestReduce_NoOpCommandsLeaveStateUnchanged(t *testing.T) {
	base := stateWithFields(t, schema.FieldTypeInput, schema.FieldTypeSelect, schema.FieldTypeCheckbox)
	first := base.Schema.Fields[0].ID

	cases := []struct {
		name string
		cmd  designer.Command
	}{
		{"update unknown id", designer.UpdateField{FieldID: "missing", Patch: designer.FieldPatch{Label: designer.String("x")}}},
		{"update empty patch", designer.UpdateField{FieldID: first}},
		{"delete unknown id", designer.DeleteField{FieldID: "missing"}},
		{"move unknown active", designer.MoveField{ActiveID: "missing", OverID: first}},
		{"move unknown over", designer.MoveField{ActiveID: first, OverID: "missing"}},
		{"move onto itself", designer.MoveField{ActiveID: first, OverID: first}},
		{"invalid mode", designer.SetMode{Mode: "edit"}},
		{"add duplicate id", designer.AddField{Field: base.Schema.Fields[1]}},
		{"empty form patch", designer.UpdateForm{}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			snapshot := base.Clone()
			got := designer.Reduce(base, tc.cmd)
			if diff := cmp.Diff(snapshot, got); diff != "" {
				t.Fatalf("state changed (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(snapshot, base); diff != "" {
				t.Fatalf("input mutated (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReduce_SetModePreviewClearsSelection(t *testing.T) {
	state := stateWithFields(t, schema.FieldTypeInput)
	if state.SelectedFieldID == "" {
		t.Fatalf("expected added field to be selected")
	}

	preview := designer.Reduce(state, designer.SetMode{Mode: designer.ModePreview})
	if preview.SelectedFieldID != "" {
		t.Fatalf("expected selection cleared, got %q", preview.SelectedFieldID)
	}
	if preview.Mode != designer.ModePreview {
		t.Fatalf("expected preview mode, got %q", preview.Mode)
	}

	selected := designer.Reduce(preview, designer.SelectField{FieldID: state.Schema.Fields[0].ID})
	design := designer.Reduce(selected, designer.SetMode{Mode: designer.ModeDesign})
	if design.SelectedFieldID != state.Schema.Fields[0].ID {
		t.Fatalf("design mode must keep selection, got %q", design.SelectedFieldID)
	}
}

func TestReduce_AddFieldSelectsAndForcesDesign(t *testing.T) {
	state := designer.Reduce(designer.InitialState(), designer.SetMode{Mode: designer.ModePreview})
	field := schema.MustCreateDefaultField(schema.FieldTypeTextarea)

	next := designer.Reduce(state, designer.AddField{Field: field})
	if next.SelectedFieldID != field.ID {
		t.Fatalf("expected %q selected, got %q", field.ID, next.SelectedFieldID)
	}
	if next.Mode != designer.ModeDesign {
		t.Fatalf("expected design mode, got %q", next.Mode)
	}
	if len(state.Schema.Fields) != 0 {
		t.Fatalf("input state mutated")
	}

	*field.ColSpan = 2
	if got := *next.Schema.Fields[0].ColSpan; got != 12 {
		t.Fatalf("added field aliases caller data, colSpan=%d", got)
	}
}

func TestReduce_MoveFieldPermutation(t *testing.T) {
	base := stateWithFields(t,
		schema.FieldTypeInput, schema.FieldTypeTextarea, schema.FieldTypeNumber,
		schema.FieldTypeDate, schema.FieldTypeSelect,
	)
	ids := fieldIDs(base.Schema)

	for from := range ids {
		for to := range ids {
			if from == to {
				continue
			}
			name := fmt.Sprintf("%d_to_%d", from, to)
			t.Run(name, func(t *testing.T) {
				next := designer.Reduce(base, designer.MoveField{ActiveID: ids[from], OverID: ids[to]})
				got := fieldIDs(next.Schema)

				want := append([]string{}, ids[:from]...)
				want = append(want, ids[from+1:]...)
				want = append(want[:to], append([]string{ids[from]}, want[to:]...)...)

				if diff := cmp.Diff(want, got); diff != "" {
					t.Fatalf("move mismatch (-want +got):\n%s", diff)
				}
				if got[to] != ids[from] {
					t.Fatalf("expected %s at %d, got %s", ids[from], to, got[to])
				}
				if diff := cmp.Diff(ids, fieldIDs(base.Schema)); diff != "" {
					t.Fatalf("input order mutated (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestReduce_IDAndTypeNeverChange(t *testing.T) {
	state := stateWithFields(t, schema.FieldTypeNumber, schema.FieldTypeRadio, schema.FieldTypeSection)
	types := map[string]schema.FieldType{}
	for _, field := range state.Schema.Fields {
		types[field.ID] = field.Type
	}
	ids := fieldIDs(state.Schema)

	cmds := []designer.Command{
		designer.UpdateField{FieldID: ids[0], Patch: designer.FieldPatch{
			Name: designer.String("age"), DefaultValue: 21, Min: designer.Float(18), Options: []schema.Option{{Label: "x", Value: "x"}},
		}},
		designer.UpdateField{FieldID: ids[1], Patch: designer.FieldPatch{
			DefaultValue: true, Options: []schema.Option{{Label: "S", Value: "s"}}, Rows: designer.Int(9),
		}},
		designer.UpdateField{FieldID: ids[2], Patch: designer.FieldPatch{Title: designer.String("About you")}},
		designer.MoveField{ActiveID: ids[2], OverID: ids[0]},
		designer.UpdateForm{Patch: designer.FormPatch{Title: designer.String("Survey")}},
		designer.DeleteField{FieldID: ids[1]},
	}
	for _, cmd := range cmds {
		state = designer.Reduce(state, cmd)
		for _, field := range state.Schema.Fields {
			if types[field.ID] != field.Type {
				t.Fatalf("%s changed type of %s to %s", cmd.Name(), field.ID, field.Type)
			}
			if field.Props.FieldType() != field.Type {
				t.Fatalf("%s left %s with %s props", cmd.Name(), field.ID, field.Props.FieldType())
			}
		}
	}

	number, _ := state.Schema.FieldByID(ids[0])
	props := number.Props.(schema.NumberProps)
	if props.DefaultValue != 21 || props.Min == nil || *props.Min != 18 {
		t.Fatalf("number patch not applied: %+v", props)
	}
	section, _ := state.Schema.FieldByID(ids[2])
	if section.Props.(schema.SectionProps).Title != "About you" {
		t.Fatalf("section title not applied")
	}
	if diff := cmp.Diff([]string{ids[2], ids[0]}, fieldIDs(state.Schema)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestReduce_UpdateFieldIgnoresMismatchedDefault(t *testing.T) {
	state := stateWithFields(t, schema.FieldTypeCheckbox)
	id := state.Schema.Fields[0].ID

	next := designer.Reduce(state, designer.UpdateField{FieldID: id, Patch: designer.FieldPatch{DefaultValue: "yes"}})
	if next.Schema.Fields[0].Props.(schema.CheckboxProps).DefaultValue {
		t.Fatalf("string default must not apply to checkbox")
	}

	next = designer.Reduce(state, designer.UpdateField{FieldID: id, Patch: designer.FieldPatch{DefaultValue: true}})
	if !next.Schema.Fields[0].Props.(schema.CheckboxProps).DefaultValue {
		t.Fatalf("bool default should apply to checkbox")
	}
}

func TestReduce_DeleteClearsSelectionOnlyWhenSelected(t *testing.T) {
	state := stateWithFields(t, schema.FieldTypeInput, schema.FieldTypeDate)
	ids := fieldIDs(state.Schema)

	selected := designer.Reduce(state, designer.SelectField{FieldID: ids[0]})
	other := designer.Reduce(selected, designer.DeleteField{FieldID: ids[1]})
	if other.SelectedFieldID != ids[0] {
		t.Fatalf("deleting another field cleared selection")
	}
	gone := designer.Reduce(selected, designer.DeleteField{FieldID: ids[0]})
	if gone.SelectedFieldID != "" {
		t.Fatalf("expected selection cleared, got %q", gone.SelectedFieldID)
	}
	if len(selected.Schema.Fields) != 2 {
		t.Fatalf("input state mutated")
	}
}

func TestReduce_SetSchemaClonesAndClearsSelection(t *testing.T) {
	state := stateWithFields(t, schema.FieldTypeSelect)
	doc := schema.FormDocument{
		SchemaVersion: 1,
		Title:         "Imported",
		Fields:        []schema.Field{schema.MustCreateDefaultField(schema.FieldTypeRadio)},
	}

	next := designer.Reduce(state, designer.SetSchema{Schema: doc})
	if next.SelectedFieldID != "" {
		t.Fatalf("expected selection cleared")
	}
	doc.Fields[0].Props.(schema.RadioProps).Options[0].Label = "mutated"
	if next.Schema.Fields[0].Options()[0].Label != "Option 1" {
		t.Fatalf("SetSchema aliases caller options")
	}
}

func TestReduce_ExampleScenario(t *testing.T) {
	state := designer.Reduce(designer.InitialState(), designer.SetSchema{Schema: schema.FormDocument{
		SchemaVersion: 1, Title: "Untitled", Fields: []schema.Field{},
	}})

	field := schema.MustCreateDefaultField(schema.FieldTypeInput)
	state = designer.Reduce(state, designer.AddField{Field: field})

	added := state.Schema.Fields[0]
	if added.ColSpan == nil || *added.ColSpan != 12 {
		t.Fatalf("expected colSpan 12, got %v", added.ColSpan)
	}
	if added.Required {
		t.Fatalf("expected required false")
	}
	if !strings.HasPrefix(added.Name, "input_") {
		t.Fatalf("expected input_ name, got %q", added.Name)
	}

	state = designer.Reduce(state, designer.UpdateField{FieldID: field.ID, Patch: designer.FieldPatch{
		Label:    designer.String("Email"),
		Required: designer.Bool(true),
	}})
	updated := state.Schema.Fields[0]
	want := added.Clone()
	want.Label = "Email"
	want.Required = true
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Fatalf("updated field mismatch (-want +got):\n%s", diff)
	}

	state = designer.Reduce(state, designer.DeleteField{FieldID: field.ID})
	if len(state.Schema.Fields) != 0 || state.SelectedFieldID != "" {
		t.Fatalf("expected empty fields and no selection, got %d fields, selected %q",
			len(state.Schema.Fields), state.SelectedFieldID)
	}
}

func TestReduce_UpdateFormMergesMetadataOnly(t *testing.T) {
	state := stateWithFields(t, schema.FieldTypeInput)
	next := designer.Reduce(state, designer.UpdateForm{Patch: designer.FormPatch{
		Description: designer.String("Tell us about you"),
	}})

	if next.Schema.Title != schema.DefaultFormTitle {
		t.Fatalf("title should be untouched, got %q", next.Schema.Title)
	}
	if next.Schema.Description != "Tell us about you" {
		t.Fatalf("description not applied")
	}
	if diff := cmp.Diff(state.Schema.Fields, next.Schema.Fields); diff != "" {
		t.Fatalf("fields changed (-want +got):\n%s", diff)
	}
}
