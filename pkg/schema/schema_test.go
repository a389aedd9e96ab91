package schema_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formdesigner/pkg/schema"
)

func sequentialIDs(ids ...string) schema.IDSource {
	idx := 0
	return func() string {
		id := ids[idx%len(ids)]
		idx++
		return id
	}
}

func TestFactory_Defaults(t *testing.T) {
	factory := schema.NewFactory(sequentialIDs("abcdef123456"))

	cases := []struct {
		name string
		typ  schema.FieldType
		want schema.Field
	}{
		{
			name: "input",
			typ:  schema.FieldTypeInput,
			want: schema.Field{
				ID: "abcdef123456", Type: schema.FieldTypeInput, Name: "input_abcdef",
				Label: schema.DefaultFieldLabel, ColSpan: schema.Int(12),
				Props: schema.InputProps{Placeholder: "Please enter"},
			},
		},
		{
			name: "textarea rows",
			typ:  schema.FieldTypeTextarea,
			want: schema.Field{
				ID: "abcdef123456", Type: schema.FieldTypeTextarea, Name: "textarea_abcdef",
				Label: schema.DefaultFieldLabel, ColSpan: schema.Int(12),
				Props: schema.TextareaProps{Placeholder: "Please enter", Rows: 4},
			},
		},
		{
			name: "number step",
			typ:  schema.FieldTypeNumber,
			want: schema.Field{
				ID: "abcdef123456", Type: schema.FieldTypeNumber, Name: "number_abcdef",
				Label: schema.DefaultFieldLabel, ColSpan: schema.Int(12),
				Props: schema.NumberProps{Placeholder: "Please enter a number", Step: 1},
			},
		},
		{
			name: "radio options",
			typ:  schema.FieldTypeRadio,
			want: schema.Field{
				ID: "abcdef123456", Type: schema.FieldTypeRadio, Name: "radio_abcdef",
				Label: "Radio", ColSpan: schema.Int(12),
				Props: schema.RadioProps{DefaultValue: "opt1", Options: []schema.Option{
					{Label: "Option 1", Value: "opt1"},
					{Label: "Option 2", Value: "opt2"},
				}},
			},
		},
		{
			name: "divider",
			typ:  schema.FieldTypeDivider,
			want: schema.Field{
				ID: "abcdef123456", Type: schema.FieldTypeDivider, Name: "divider_abcdef",
				ColSpan: schema.Int(12), Props: schema.DividerProps{},
			},
		},
		{
			name: "section",
			typ:  schema.FieldTypeSection,
			want: schema.Field{
				ID: "abcdef123456", Type: schema.FieldTypeSection, Name: "section_abcdef",
				Label: schema.DefaultFieldLabel, ColSpan: schema.Int(12),
				Props: schema.SectionProps{Title: "Section title"},
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := factory.Create(tc.typ)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("default field mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFactory_UnknownType(t *testing.T) {
	_, err := schema.CreateDefaultField("slider")
	if !errors.Is(err, schema.ErrUnknownFieldType) {
		t.Fatalf("expected ErrUnknownFieldType, got %v", err)
	}
}

func TestCreateDefaultField_RandomIDs(t *testing.T) {
	first := schema.MustCreateDefaultField(schema.FieldTypeSelect)
	second := schema.MustCreateDefaultField(schema.FieldTypeSelect)
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct ids, got %q and %q", first.ID, second.ID)
	}
	if !strings.HasPrefix(first.Name, "select_") {
		t.Fatalf("expected select_ name prefix, got %q", first.Name)
	}
	if len(first.Options()) != 2 {
		t.Fatalf("expected two placeholder options, got %d", len(first.Options()))
	}
}

func TestValidate(t *testing.T) {
	valid := schema.FormDocument{
		SchemaVersion: 1,
		Title:         "Signup",
		Fields: []schema.Field{
			{ID: "1", Type: schema.FieldTypeInput, Name: "email", ColSpan: schema.Int(6), Props: schema.InputProps{}},
			{ID: "2", Type: schema.FieldTypeSelect, Name: "plan", Props: schema.SelectProps{Options: []schema.Option{{Label: "Free", Value: "free"}}}},
		},
	}
	if errs := schema.Validate(valid); len(errs) != 0 {
		t.Fatalf("expected valid document, got %v", errs)
	}
	if err := schema.ValidateDocument(valid); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	invalid := schema.FormDocument{
		Title: "  ",
		Fields: []schema.Field{
			{ID: "1", Type: schema.FieldTypeInput, Name: "email", Props: schema.InputProps{}},
			{ID: "2", Type: schema.FieldTypeInput, Name: "email", Props: schema.InputProps{}},
			{ID: "", Type: schema.FieldTypeInput, Name: " ", Props: schema.InputProps{}},
			{ID: "4", Type: schema.FieldTypeNumber, Name: "age", ColSpan: schema.Int(13), Props: schema.NumberProps{}},
			{ID: "5", Type: schema.FieldTypeSelect, Name: "plan", Props: schema.SelectProps{Options: []schema.Option{}}},
			{ID: "6", Type: schema.FieldTypeRadio, Name: "size"},
		},
	}

	want := []string{
		"form title must not be empty",
		"duplicate field name: email",
		"a field is missing an id",
		"field () name must not be empty",
		"field (age) colSpan must be between 1 and 12",
		"field (plan) requires at least one option",
		"field (size) requires at least one option",
	}
	if diff := cmp.Diff(want, schema.Validate(invalid)); diff != "" {
		t.Fatalf("validation messages mismatch (-want +got):\n%s", diff)
	}

	var vErr *schema.ValidationError
	if err := schema.ValidateDocument(invalid); !errors.As(err, &vErr) || len(vErr.Messages) != len(want) {
		t.Fatalf("expected ValidationError with %d messages, got %v", len(want), err)
	}
}

func TestField_JSONFlatShape(t *testing.T) {
	field := schema.Field{
		ID: "f1", Type: schema.FieldTypeNumber, Name: "age", Label: "Age",
		Required: true, ColSpan: schema.Int(4),
		Props: schema.NumberProps{DefaultValue: 18, Min: schema.Float(0), Step: 1},
	}

	raw, err := json.Marshal(field)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		t.Fatalf("unmarshal flat: %v", err)
	}
	want := map[string]any{
		"id": "f1", "type": "number", "name": "age", "label": "Age",
		"required": true, "disabled": false, "colSpan": float64(4),
		"defaultValue": float64(18), "min": float64(0), "step": float64(1),
	}
	if diff := cmp.Diff(want, flat); diff != "" {
		t.Fatalf("flat json mismatch (-want +got):\n%s", diff)
	}
}

func TestField_UnknownTypeRejected(t *testing.T) {
	var field schema.Field
	err := json.Unmarshal([]byte(`{"id":"x","type":"rating","name":"stars"}`), &field)
	if !errors.Is(err, schema.ErrUnknownFieldType) {
		t.Fatalf("expected ErrUnknownFieldType, got %v", err)
	}
}

func TestField_PropsMismatchRejected(t *testing.T) {
	field := schema.Field{ID: "x", Type: schema.FieldTypeInput, Name: "x", Props: schema.CheckboxProps{}}
	if _, err := json.Marshal(field); !errors.Is(err, schema.ErrPropsMismatch) {
		t.Fatalf("expected ErrPropsMismatch, got %v", err)
	}
}

func sampleDocument() schema.FormDocument {
	factory := schema.NewFactory(sequentialIDs("id-input", "id-select", "id-check", "id-section", "id-divider", "id-date"))
	doc := schema.DefaultDocument()
	doc.Description = "All variants"
	for _, typ := range []schema.FieldType{
		schema.FieldTypeInput,
		schema.FieldTypeSelect,
		schema.FieldTypeCheckbox,
		schema.FieldTypeSection,
		schema.FieldTypeDivider,
		schema.FieldTypeDate,
	} {
		field, err := factory.Create(typ)
		if err != nil {
			panic(err)
		}
		doc.Fields = append(doc.Fields, field)
	}
	doc.Fields[2].Props = schema.CheckboxProps{DefaultValue: true}
	doc.Fields[5].HelpText = "YYYY-MM-DD"
	return doc
}

func TestDocument_RoundTrip(t *testing.T) {
	doc := sampleDocument()

	t.Run("json", func(t *testing.T) {
		raw, err := json.Marshal(doc)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var decoded schema.FormDocument
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if diff := cmp.Diff(doc, decoded); diff != "" {
			t.Fatalf("json round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		raw, err := yaml.Marshal(doc)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var decoded schema.FormDocument
		if err := yaml.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if diff := cmp.Diff(doc, decoded, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("yaml round trip mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc := sampleDocument()
	clone := doc.Clone()

	*clone.Fields[0].ColSpan = 3
	props := clone.Fields[1].Props.(schema.SelectProps)
	props.Options[0].Label = "mutated"

	if *doc.Fields[0].ColSpan != 12 {
		t.Fatalf("clone shares ColSpan pointer")
	}
	if doc.Fields[1].Options()[0].Label != "Option 1" {
		t.Fatalf("clone shares options backing array")
	}
}
