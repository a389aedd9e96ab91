package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formdesigner/internal/cli"
	"github.com/goliatone/go-formdesigner/pkg/loader"
	"github.com/goliatone/go-formdesigner/pkg/render"
	"github.com/goliatone/go-formdesigner/pkg/renderers/tui"
	"github.com/goliatone/go-formdesigner/pkg/schema"
)

const signup = `{
  "schemaVersion": 1,
  "title": "Signup",
  "fields": [
    {"id": "a1", "type": "input", "name": "email", "label": "Email", "required": true},
    {"id": "b1", "type": "checkbox", "name": "terms", "label": "Terms", "required": true},
    {"id": "c1", "type": "divider", "name": "rule"}
  ]
}`

func run(t *testing.T, app *cli.App, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	if app == nil {
		app = &cli.App{}
	}
	app.In = strings.NewReader("")
	app.Out = &out
	app.Err = &errOut
	cmd := cli.NewRootCommand(app)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew(t *testing.T) {
	out, _, err := run(t, nil, "new", "--title", "Survey", "--field", "input", "--field", "radio", "--format", "yaml")
	require.NoError(t, err)

	doc, err := loader.Parse([]byte(out), "stdout.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Survey", doc.Title)
	require.Len(t, doc.Fields, 2)
	assert.Equal(t, schema.FieldTypeInput, doc.Fields[0].Type)
	assert.Equal(t, schema.FieldTypeRadio, doc.Fields[1].Type)
	assert.Empty(t, schema.Validate(doc))

	_, _, err = run(t, nil, "new", "--field", "slider")
	require.ErrorIs(t, err, schema.ErrUnknownFieldType)
}

func TestApply(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "signup.json", signup)
	cmds := writeFile(t, dir, "cmds.json", `[
		{"type":"MOVE_FIELD","activeId":"b1","overId":"a1"},
		{"type":"DELETE_FIELD","fieldId":"c1"},
		{"type":"UPDATE_FORM","patch":{"title":"Join"}}
	]`)
	outPath := filepath.Join(dir, "out", "joined.json")

	_, stderr, err := run(t, nil, "apply", doc, cmds, "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, stderr, "wrote "+outPath)

	got, err := loader.LoadFile(context.Background(), outPath)
	require.NoError(t, err)
	assert.Equal(t, "Join", got.Title)
	require.Len(t, got.Fields, 2)
	assert.Equal(t, "b1", got.Fields[0].ID)
	assert.Equal(t, "a1", got.Fields[1].ID)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", signup)
	bad := writeFile(t, dir, "bad.yaml", "title: \"\"\nfields:\n  - id: x\n    type: select\n    name: pick\n")

	out, _, err := run(t, nil, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, good)
	assert.Contains(t, out, "(3 fields)")

	out, _, err = run(t, nil, "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, out, "form title must not be empty")
	assert.Contains(t, out, "field (pick) requires at least one option")

	values := writeFile(t, dir, "values.yaml", "email: \"\"\nterms: false\n")
	out, _, err = run(t, nil, "validate", good, "--submission", values)
	require.Error(t, err)
	assert.Contains(t, out, "submission: ")
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "signup.json", signup)

	out, _, err := run(t, nil, "export", doc, "--format", "openapi")
	require.NoError(t, err)
	var oas map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &oas))
	assert.Equal(t, []any{"email", "terms"}, oas["required"])

	exportDir := filepath.Join(dir, "exports")
	_, _, err = run(t, nil, "export", doc, "--format", "yaml", "--dir", exportDir)
	require.NoError(t, err)
	entries, err := os.ReadDir(exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "Signup_"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".yaml"))

	_, _, err = run(t, nil, "export", doc, "--format", "csv")
	require.Error(t, err)
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "signup.json", signup)
	values := writeFile(t, dir, "values.json", `{"email":"ada@example.com"}`)

	out, _, err := run(t, nil, "preview", doc, "--values", values, "--variant", "dark", "--action", "/submit")
	require.NoError(t, err)
	assert.Contains(t, out, `data-mode="preview"`)
	assert.Contains(t, out, `value="ada@example.com"`)
	assert.Contains(t, out, `data-variant="dark"`)
	assert.Contains(t, out, `action="/submit"`)

	out, _, err = run(t, nil, "preview", doc, "--mode", "design")
	require.NoError(t, err)
	assert.Contains(t, out, `data-mode="design"`)

	_, _, err = run(t, nil, "preview", doc, "--mode", "edit")
	require.Error(t, err)

	_, _, err = run(t, nil, "preview", doc, "--theme", "missing")
	require.Error(t, err)

	_, _, err = run(t, nil, "preview", doc, "--renderer", "pdf")
	require.ErrorIs(t, err, render.ErrRendererNotFound)
}

func TestPreviewWithTerminalRenderer(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "signup.json", signup)

	driver := &scriptedDriver{inputs: []string{"ada@example.com"}, confirms: []bool{true}}
	out, _, err := run(t, &cli.App{Driver: driver}, "preview", doc, "--renderer", tui.Name)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"ada@example.com","terms":true}`, out)
}

type scriptedDriver struct {
	inputs   []string
	confirms []bool
	infos    []string
}

func (d *scriptedDriver) Input(context.Context, tui.InputConfig) (string, error) {
	if len(d.inputs) == 0 {
		return "", errors.New("no scripted input left")
	}
	next := d.inputs[0]
	d.inputs = d.inputs[1:]
	return next, nil
}

func (d *scriptedDriver) Confirm(context.Context, tui.ConfirmConfig) (bool, error) {
	if len(d.confirms) == 0 {
		return false, errors.New("no scripted confirm left")
	}
	next := d.confirms[0]
	d.confirms = d.confirms[1:]
	return next, nil
}

func (d *scriptedDriver) Select(context.Context, tui.SelectConfig) (int, error) {
	return 0, nil
}

func (d *scriptedDriver) TextArea(ctx context.Context, cfg tui.TextAreaConfig) (string, error) {
	return d.Input(ctx, tui.InputConfig{Message: cfg.Message})
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func TestFill(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "signup.json", signup)

	driver := &scriptedDriver{inputs: []string{"", "ada@example.com"}, confirms: []bool{true}}
	out, _, err := run(t, &cli.App{Driver: driver}, "fill", doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"ada@example.com","terms":true}`, out)
	assert.Contains(t, driver.infos, "Email is required")

	driver = &scriptedDriver{inputs: []string{"bob@example.com"}, confirms: []bool{true}}
	out, _, err = run(t, &cli.App{Driver: driver}, "fill", doc, "--format", "pretty")
	require.NoError(t, err)
	assert.Equal(t, "email=bob@example.com\nterms=true\n", out)
}
