package tui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/render"
	"github.com/goliatone/go-formdesigner/pkg/schema"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	inputPos     int
	selectPos    int
	confirmPos   int
	textPos      int
	lastSelect   SelectConfig
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.lastSelect = cfg
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func surveyState(fields ...schema.Field) designer.DesignerState {
	return designer.DesignerState{
		Mode:   designer.ModePreview,
		Schema: schema.FormDocument{SchemaVersion: 1, Title: "Survey", Fields: fields},
	}
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return out
}

func TestRender_PromptsEveryField(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada", "3", "2026-10-18"},
		textAreas: []string{"hello"},
		selectIdx: []int{1, 0},
		confirm:   []bool{true},
	}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	state := surveyState(
		schema.Field{ID: "1", Type: schema.FieldTypeInput, Name: "name", Label: "Name", Props: schema.InputProps{}},
		schema.Field{ID: "2", Type: schema.FieldTypeSection, Name: "sec", Props: schema.SectionProps{Title: "More"}},
		schema.Field{ID: "3", Type: schema.FieldTypeNumber, Name: "qty", Label: "Qty", Props: schema.NumberProps{}},
		schema.Field{ID: "4", Type: schema.FieldTypeTextarea, Name: "notes", Props: schema.TextareaProps{}},
		schema.Field{ID: "5", Type: schema.FieldTypeDivider, Name: "hr", Props: schema.DividerProps{}},
		schema.Field{ID: "6", Type: schema.FieldTypeSelect, Name: "size", Props: schema.SelectProps{
			DefaultValue: "m", Options: []schema.Option{{Label: "Small", Value: "s"}, {Label: "Medium", Value: "m"}}}},
		schema.Field{ID: "7", Type: schema.FieldTypeRadio, Name: "tier", Props: schema.RadioProps{
			Options: []schema.Option{{Label: "Gold", Value: "gold"}}}},
		schema.Field{ID: "8", Type: schema.FieldTypeDate, Name: "day", Props: schema.DateProps{}},
		schema.Field{ID: "9", Type: schema.FieldTypeCheckbox, Name: "ok", Props: schema.CheckboxProps{}},
	)

	out, err := r.Render(context.Background(), state, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := map[string]any{
		"name": "Ada", "qty": float64(3), "notes": "hello", "size": "m",
		"tier": "gold", "day": "2026-10-18", "ok": true,
	}
	if diff := cmp.Diff(want, decode(t, out)); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Survey"}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_RequiredFieldsReprompt(t *testing.T) {
	driver := &stubDriver{
		inputs:  []string{"", "  ", "ada@example.com", "abc", "0", "5", "18/10/2026", "2026-10-18"},
		confirm: []bool{false, true},
	}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	state := surveyState(
		schema.Field{ID: "1", Type: schema.FieldTypeInput, Name: "email", Label: "Email", Required: true, Props: schema.InputProps{}},
		schema.Field{ID: "2", Type: schema.FieldTypeNumber, Name: "seats", Label: "Seats", Required: true,
			Props: schema.NumberProps{Min: schema.Float(1), Max: schema.Float(10)}},
		schema.Field{ID: "3", Type: schema.FieldTypeDate, Name: "day", Label: "Day", Props: schema.DateProps{}},
		schema.Field{ID: "4", Type: schema.FieldTypeCheckbox, Name: "terms", Label: "Terms", Required: true, Props: schema.CheckboxProps{}},
	)

	out, err := r.Render(context.Background(), state, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	got := decode(t, out)
	if got["email"] != "ada@example.com" || got["seats"] != float64(5) || got["day"] != "2026-10-18" || got["terms"] != true {
		t.Fatalf("unexpected values %v", got)
	}

	wantMessages := []string{
		"Survey",
		"Email is required",
		"Email is required",
		"Invalid Seats: not a number",
		"Invalid Seats: must be at least 1",
		"Invalid Day: expected YYYY-MM-DD",
		"Terms must be accepted",
	}
	if diff := cmp.Diff(wantMessages, driver.infoMessages); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_PrefillDisabledAndErrors(t *testing.T) {
	driver := &stubDriver{inputs: []string{"new"}, selectIdx: []int{0}}
	r, err := New(WithPromptDriver(driver), WithOutputFormat(OutputFormatPrettyText), WithTheme(Theme{ErrorPrefix: "! "}))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	state := surveyState(
		schema.Field{ID: "1", Type: schema.FieldTypeInput, Name: "code", Label: "Code", Disabled: true, Props: schema.InputProps{DefaultValue: "X1"}},
		schema.Field{ID: "2", Type: schema.FieldTypeInput, Name: "nick", Label: "Nick", Props: schema.InputProps{}},
		schema.Field{ID: "3", Type: schema.FieldTypeRadio, Name: "plan", Label: "Plan", Props: schema.RadioProps{
			Options: []schema.Option{{Label: "Free", Value: "free"}, {Label: "Pro", Value: "pro"}}}},
	)
	opts := render.RenderOptions{
		Values: map[string]any{"plan": "pro"},
		Errors: map[string][]string{"nick": {"taken"}},
	}

	out, err := r.Render(context.Background(), state, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff("code=X1\nnick=new\nplan=free\n", string(out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if driver.lastSelect.DefaultIndex != 1 {
		t.Fatalf("expected prefilled default index 1, got %d", driver.lastSelect.DefaultIndex)
	}
	if !containsMessage(driver.infoMessages, "! Nick: taken") {
		t.Fatalf("expected field error surfaced, got %v", driver.infoMessages)
	}
	if r.ContentType() != "text/plain; charset=utf-8" {
		t.Fatalf("unexpected content type %q", r.ContentType())
	}
}

func TestRender_MaxAttempts(t *testing.T) {
	driver := &stubDriver{inputs: []string{"", ""}}
	r, err := New(WithPromptDriver(driver), WithMaxAttempts(2))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	state := surveyState(schema.Field{ID: "1", Type: schema.FieldTypeInput, Name: "email", Required: true, Props: schema.InputProps{}})

	if _, err := r.Render(context.Background(), state, render.RenderOptions{}); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestRender_FormEncoded(t *testing.T) {
	driver := &stubDriver{inputs: []string{"a b"}}
	r, err := New(WithPromptDriver(driver), WithOutputFormat(OutputFormatFormURLEncoded))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	state := surveyState(schema.Field{ID: "1", Type: schema.FieldTypeInput, Name: "q", Props: schema.InputProps{}})

	out, err := r.Render(context.Background(), state, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "q=a+b" {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := New(WithOutputFormat("xml")); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func containsMessage(messages []string, want string) bool {
	for _, msg := range messages {
		if strings.Contains(msg, want) {
			return true
		}
	}
	return false
}
