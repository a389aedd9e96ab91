package formdesigner

import (
	"context"
	"io/fs"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/loader"
	"github.com/goliatone/go-formdesigner/pkg/render"
	"github.com/goliatone/go-formdesigner/pkg/renderers/html"
	"github.com/goliatone/go-formdesigner/pkg/runtime"
	"github.com/goliatone/go-formdesigner/pkg/schema"
)

// FormDocument aliases schema.FormDocument for callers that only import the
// root package.
type FormDocument = schema.FormDocument

// Field aliases schema.Field.
type Field = schema.Field

// DesignerState aliases designer.DesignerState.
type DesignerState = designer.DesignerState

// Command aliases designer.Command.
type Command = designer.Command

// RenderOptions describes per-request overrides that renderers can use to
// prefill values or surface server-side validation errors.
type RenderOptions = render.RenderOptions

// NewStore exposes the designer store constructor from the top-level module.
func NewStore(options ...designer.Option) *designer.Store {
	return designer.New(options...)
}

// LoadDocument reads a JSON or YAML document from disk.
func LoadDocument(ctx context.Context, path string) (FormDocument, error) {
	return loader.LoadFile(ctx, path)
}

// Apply runs cmds against doc and returns the resulting document. It is the
// simplest entry point for batch edits that need no history.
func Apply(doc FormDocument, cmds ...Command) FormDocument {
	state := designer.InitialState()
	state.Schema = doc
	for _, cmd := range cmds {
		state = designer.Reduce(state, cmd)
	}
	return state.Schema
}

// RenderHTML renders doc in the given mode with the built-in HTML renderer.
// A nil selector renders without theme tokens.
func RenderHTML(ctx context.Context, doc FormDocument, mode designer.Mode, opts RenderOptions, selector theme.ThemeSelector) ([]byte, error) {
	var options []html.Option
	if selector != nil {
		options = append(options, html.WithThemeSelector(selector, opts.ThemeName, opts.ThemeVariant))
	}
	renderer, err := html.New(options...)
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, DesignerState{Schema: doc, Mode: mode}, opts)
}

// EmbeddedTemplates exposes the built-in HTML renderer templates so callers
// can reuse or extend them.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// RuntimeAssetsFS exposes the canvas runtime script so Go applications can
// serve it next to their own routes.
func RuntimeAssetsFS() fs.FS {
	return runtime.AssetsFS()
}
