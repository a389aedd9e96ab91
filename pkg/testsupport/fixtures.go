// Package testsupport holds fixture helpers shared by package tests.
package testsupport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/loader"
	"github.com/goliatone/go-formdesigner/pkg/schema"
)

// LoadDocument reads a JSON or YAML fixture. Failures stop the test.
func LoadDocument(t *testing.T, path string) schema.FormDocument {
	t.Helper()

	doc, err := LoadDocumentFromPath(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

// LoadDocumentFromPath returns a document without requiring testing.T, so
// fixtures can be wired in setup functions.
func LoadDocumentFromPath(path string) (schema.FormDocument, error) {
	if path == "" {
		return schema.FormDocument{}, errors.New("testsupport: document path is required")
	}
	doc, err := loader.LoadFile(context.Background(), path)
	if err != nil {
		return schema.FormDocument{}, fmt.Errorf("testsupport: %w", err)
	}
	return doc, nil
}

// LoadState wraps a fixture document in a designer state with the given mode.
func LoadState(t *testing.T, path string, mode designer.Mode) designer.DesignerState {
	t.Helper()
	state := designer.InitialState()
	state.Schema = LoadDocument(t, path)
	state.Mode = mode
	return state
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents. Tests can assert
// the renderer returns and writes the same payload without duplicating buffer
// setup.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
