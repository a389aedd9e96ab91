package server

import (
	"embed"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/render"
	"github.com/goliatone/go-formdesigner/pkg/render/template/pongo"
	"github.com/goliatone/go-formdesigner/pkg/renderers/html"
	"github.com/goliatone/go-formdesigner/pkg/runtime"
	"github.com/goliatone/go-formdesigner/pkg/schema"
)

const runtimePrefix = "/runtime/"

//go:embed templates/*.tmpl
var pageTemplates embed.FS

func newPageEngine() (*pongo.Engine, error) {
	return pongo.New(pongo.WithFS(pageTemplates), pongo.WithExtension(".tmpl"))
}

// serveRuntime serves the embedded canvas script.
func serveRuntime() http.Handler {
	return http.StripPrefix(runtimePrefix, http.FileServerFS(runtime.AssetsFS()))
}

// designerPage wraps the design mode canvas in a standalone page that loads
// the runtime script.
func (s *Server) designerPage(w http.ResponseWriter, r *http.Request) {
	if s.pages == nil {
		s.writeError(w, http.StatusNotImplemented, "NO_RENDERER", "preview renderer not configured")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	state := sess.State()
	state.Mode = designer.ModeDesign
	canvas, _, err := s.previews.Render(r.Context(), html.Name, state, render.RenderOptions{
		ThemeName:    query.Get("theme"),
		ThemeVariant: query.Get("variant"),
	})
	if errors.Is(err, render.ErrRendererNotFound) {
		s.writeError(w, http.StatusNotImplemented, "NO_RENDERER", "html renderer not configured")
		return
	}
	if err != nil {
		s.writeFailure(w, fmt.Errorf("server: render canvas: %w", err))
		return
	}

	spans := make([]int, 0, schema.MaxColSpan)
	for span := schema.MinColSpan; span <= schema.MaxColSpan; span++ {
		spans = append(spans, span)
	}
	page, err := s.pages.RenderTemplate("templates/page", map[string]any{
		"title":       state.Schema.Title,
		"form_url":    "/api/forms/" + sess.ID,
		"runtime_url": runtimePrefix + runtime.ScriptName,
		"canvas":      string(canvas),
		"spans":       spans,
	})
	if err != nil {
		s.writeFailure(w, fmt.Errorf("server: render page: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(page)); err != nil {
		s.logger.Warn("write page failed", zap.Error(err))
	}
}
