package pongo_test

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formdesigner/pkg/render/template/pongo"
	"github.com/goliatone/go-formdesigner/pkg/testsupport"
)

type card struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func TestEngine_RenderTemplate(t *testing.T) {
	files := fstest.MapFS{
		"card.tmpl": {Data: []byte(`<h1>{{ title|trim }}</h1>{% for tag in tags %}[{{ tag }}]{% endfor %}{{ site }}`)},
	}
	engine, err := pongo.New(pongo.WithFS(files), pongo.WithGlobalData(map[string]any{"site": "!"}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	got, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("card", card{Title: "  <Hi> ", Tags: []string{"a", "b"}}, w)
	})
	want := "<h1>&lt;Hi&gt;</h1>[a][b]!"
	if got != want {
		t.Fatalf("unexpected output:\nwant %q\ngot  %q", want, got)
	}
	if written != want {
		t.Fatalf("writer did not receive output: %q", written)
	}

	if _, err := engine.RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected error for missing template")
	}
}

func TestEngine_RenderStringAndFilters(t *testing.T) {
	engine, err := pongo.New(pongo.WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	shout := func(in any, _ any) (any, error) {
		s, _ := in.(string)
		return strings.ToUpper(s) + "!", nil
	}
	if err := engine.RegisterFilter("test_shout", shout); err != nil {
		t.Fatalf("register filter: %v", err)
	}
	if err := engine.RegisterFilter("test_shout", shout); !errors.Is(err, pongo.ErrFilterExists) {
		t.Fatalf("expected ErrFilterExists, got %v", err)
	}

	got, err := engine.RenderString(`{{ name|test_shout }}`, map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if got != "ADA!" {
		t.Fatalf("unexpected output %q", got)
	}

	if _, err := engine.RenderString(`{{ name`, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := pongo.New(); err == nil {
		t.Fatalf("expected error without templates")
	}
}
