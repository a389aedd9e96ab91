package export_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formdesigner/pkg/export"
	"github.com/goliatone/go-formdesigner/pkg/loader"
	"github.com/goliatone/go-formdesigner/pkg/schema"
	"github.com/goliatone/go-formdesigner/pkg/widgets"
)

func bookingDocument() schema.FormDocument {
	return schema.FormDocument{
		SchemaVersion: 1,
		Title:         "Table booking",
		Description:   "Reserve a table",
		Fields: []schema.Field{
			{ID: "s1", Type: schema.FieldTypeSection, Name: "intro", Props: schema.SectionProps{Title: "Guest"}},
			{ID: "f1", Type: schema.FieldTypeInput, Name: "guest", Label: "Name", Required: true, ColSpan: schema.Int(6), Props: schema.InputProps{}},
			{ID: "f2", Type: schema.FieldTypeNumber, Name: "party", Label: "Party size", Required: true,
				Props: schema.NumberProps{DefaultValue: 2, Min: schema.Float(1), Max: schema.Float(12), Step: 1}},
			{ID: "d1", Type: schema.FieldTypeDivider, Name: "rule", Props: schema.DividerProps{}},
			{ID: "f3", Type: schema.FieldTypeSelect, Name: "area", Label: "Area",
				Props: schema.SelectProps{DefaultValue: "patio", Options: []schema.Option{{Label: "Patio", Value: "patio"}, {Label: "Bar", Value: "bar"}}}},
			{ID: "f4", Type: schema.FieldTypeDate, Name: "day", Required: true, Props: schema.DateProps{DefaultValue: "not-a-date"}},
			{ID: "f5", Type: schema.FieldTypeCheckbox, Name: "terms", Required: true, Disabled: false, Props: schema.CheckboxProps{}},
		},
	}
}

func TestEncode_RoundTripsThroughLoader(t *testing.T) {
	doc := bookingDocument()
	for _, format := range []export.Format{export.FormatJSON, export.FormatYAML} {
		format := format
		t.Run(string(format), func(t *testing.T) {
			raw, err := export.Encode(doc, format)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := loader.Parse(raw, "export"+format.Extension())
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if diff := cmp.Diff(doc, got, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := export.Encode(doc, "xml"); !errors.Is(err, export.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]export.Format{"": export.FormatJSON, "YAML": export.FormatYAML, "yml": export.FormatYAML, "openapi": export.FormatOpenAPI}
	for raw, want := range cases {
		got, err := export.ParseFormat(raw)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
	if _, err := export.ParseFormat("csv"); !errors.Is(err, export.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestOpenAPISchema(t *testing.T) {
	doc := bookingDocument()
	s := export.OpenAPISchema(doc)

	if err := export.ValidateDocumentSchema(context.Background(), doc); err != nil {
		t.Fatalf("derived schema invalid: %v", err)
	}

	var props []string
	for name := range s.Properties {
		props = append(props, name)
	}
	wantProps := []string{"area", "day", "guest", "party", "terms"}
	sort.Strings(props)
	if diff := cmp.Diff(wantProps, props); diff != "" {
		t.Fatalf("properties mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"guest", "party", "day", "terms"}, s.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}

	party := s.Properties["party"].Value
	if party.Min == nil || *party.Min != 1 || party.Max == nil || *party.Max != 12 {
		t.Fatalf("number bounds not exported: %+v", party)
	}
	if party.Default != float64(2) {
		t.Fatalf("expected default 2, got %v", party.Default)
	}

	area := s.Properties["area"].Value
	if diff := cmp.Diff([]any{"patio", "bar"}, area.Enum); diff != "" {
		t.Fatalf("enum mismatch (-want +got):\n%s", diff)
	}
	if area.Extensions[export.ExtensionWidget] != widgets.WidgetSelect {
		t.Fatalf("widget extension missing: %v", area.Extensions)
	}

	day := s.Properties["day"].Value
	if day.Format != "date" || day.Default != nil {
		t.Fatalf("date should have format and no invalid default: %+v", day)
	}
	guest := s.Properties["guest"].Value
	if guest.Extensions[export.ExtensionColSpan] != 6 {
		t.Fatalf("colSpan extension missing: %v", guest.Extensions)
	}

	raw, err := export.Encode(doc, export.FormatOpenAPI)
	if err != nil {
		t.Fatalf("encode openapi: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("openapi output is not json: %v", err)
	}
	if decoded["title"] != "Table booking" {
		t.Fatalf("unexpected title %v", decoded["title"])
	}
}

func TestValidateSubmission(t *testing.T) {
	doc := bookingDocument()
	ctx := context.Background()

	ok := map[string]any{"guest": "Ada", "party": 4, "area": "bar", "day": "2026-10-18", "terms": true}
	if errs := export.ValidateSubmission(ctx, doc, ok); len(errs) != 0 {
		t.Fatalf("expected valid submission, got %v", errs)
	}

	bad := map[string]any{"guest": "", "party": 20, "area": "roof", "terms": false, "extra": 1}
	errs := export.ValidateSubmission(ctx, doc, bad)
	for _, name := range []string{"guest", "party", "area", "day", "terms", "extra"} {
		if !containsPrefix(errs, name) {
			t.Fatalf("expected a message for %q, got %v", name, errs)
		}
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 3, 7, 9, 5, 0, 0, time.UTC)
	cases := []struct {
		title  string
		format export.Format
		want   string
	}{
		{"Signup form", export.FormatJSON, "Signup_form_20260307_0905.json"},
		{"报名表/2026", export.FormatYAML, "报名表_2026_20260307_0905.yaml"},
		{"", export.FormatJSON, "form_20260307_0905.json"},
	}
	for _, tc := range cases {
		if got := export.Filename(tc.title, now, tc.format); got != tc.want {
			t.Fatalf("Filename(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func containsPrefix(messages []string, prefix string) bool {
	for _, msg := range messages {
		if strings.HasPrefix(msg, prefix+":") {
			return true
		}
	}
	return false
}
