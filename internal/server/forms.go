package server

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdesigner/internal/session"
	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/export"
	"github.com/goliatone/go-formdesigner/pkg/loader"
	"github.com/goliatone/go-formdesigner/pkg/render"
	"github.com/goliatone/go-formdesigner/pkg/renderers/html"
	"github.com/goliatone/go-formdesigner/pkg/schema"
)

// formResponse is returned by every route that changes or reads a document.
type formResponse struct {
	ID      string                 `json:"id"`
	State   designer.DesignerState `json:"state"`
	CanUndo bool                   `json:"canUndo"`
	CanRedo bool                   `json:"canRedo"`
}

type addFieldRequest struct {
	Type string `json:"type" validate:"required,oneof=input textarea number date select radio checkbox divider section"`
}

type submissionRequest struct {
	Values map[string]any `json:"values" validate:"required"`
}

type validationResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

type submissionResponse struct {
	Valid  bool                `json:"valid"`
	Errors map[string][]string `json:"errors,omitempty"`
}

func (s *Server) respondState(w http.ResponseWriter, status int, sess *session.Session) {
	s.writeJSON(w, status, formResponse{
		ID:      sess.ID,
		State:   sess.State(),
		CanUndo: sess.CanUndo(),
		CanRedo: sess.CanRedo(),
	})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeFailure(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) listForms(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"forms": summaries})
}

func (s *Server) createForm(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(r)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	var doc *schema.FormDocument
	if len(strings.TrimSpace(string(data))) > 0 {
		parsed, err := loader.Parse(data, "request body")
		if err != nil {
			s.writeFailure(w, err)
			return
		}
		doc = &parsed
	}

	sess, err := s.sessions.Create(r.Context(), doc)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	w.Header().Set("Location", "/api/forms/"+sess.ID)
	s.respondState(w, http.StatusCreated, sess)
}

func (s *Server) getForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.respondState(w, http.StatusOK, sess)
}

func (s *Server) deleteForm(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) dispatchCommands(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(r)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	cmds, err := designer.DecodeCommands(data)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := s.sessions.Dispatch(r.Context(), id, cmds...); err != nil {
		s.writeFailure(w, err)
		return
	}
	s.getForm(w, r)
}

func (s *Server) addField(w http.ResponseWriter, r *http.Request) {
	var req addFieldRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeFailure(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if _, _, err := s.sessions.AddField(r.Context(), id, schema.FieldType(req.Type)); err != nil {
		s.writeFailure(w, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.respondState(w, http.StatusCreated, sess)
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	s.travel(w, r, s.sessions.Undo)
}

func (s *Server) redo(w http.ResponseWriter, r *http.Request) {
	s.travel(w, r, s.sessions.Redo)
}

func (s *Server) travel(w http.ResponseWriter, r *http.Request, step func(ctx context.Context, id string) (designer.DesignerState, bool, error)) {
	if _, _, err := step(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeFailure(w, err)
		return
	}
	s.getForm(w, r)
}

func (s *Server) validateForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	messages := sess.Validate()
	if messages == nil {
		messages = []string{}
	}
	s.writeJSON(w, http.StatusOK, validationResponse{Valid: len(messages) == 0, Errors: messages})
}

func (s *Server) exportForm(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	doc := sess.State().Schema
	if format == export.FormatOpenAPI {
		if err := export.ValidateDocumentSchema(r.Context(), doc); err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, "INVALID_SCHEMA", err.Error())
			return
		}
	}
	body, err := export.Encode(doc, format)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	filename := export.Filename(doc.Title, s.now(), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", contentDisposition(filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn("write export failed", zap.Error(err))
	}
}

func (s *Server) previewForm(w http.ResponseWriter, r *http.Request) {
	if len(s.previews.Names()) == 0 {
		s.writeError(w, http.StatusNotImplemented, "NO_RENDERER", "preview renderer not configured")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	state := sess.State()
	state.Mode = designer.ModePreview
	if mode := designer.Mode(query.Get("mode")); mode.Valid() {
		state.Mode = mode
	}
	s.writePreview(r.Context(), w, http.StatusOK, query.Get("renderer"), state, s.previewOptions(sess.ID, state.Schema, query))
}

func (s *Server) previewOptions(id string, doc schema.FormDocument, query url.Values) render.RenderOptions {
	return render.RenderOptions{
		Action:       "/api/forms/" + id + "/submissions",
		Method:       http.MethodPost,
		Hidden:       render.MergeHiddenFields(nil, render.VersionField(doc.SchemaVersion)),
		ThemeName:    query.Get("theme"),
		ThemeVariant: query.Get("variant"),
	}
}

func (s *Server) writePreview(ctx context.Context, w http.ResponseWriter, status int, name string, state designer.DesignerState, opts render.RenderOptions) {
	body, contentType, err := s.previews.Render(ctx, name, state, opts)
	if err != nil {
		s.writeFailure(w, fmt.Errorf("server: render preview: %w", err))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn("write preview failed", zap.Error(err))
	}
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	if isFormPost(r) {
		s.submitPreviewForm(w, r)
		return
	}
	var req submissionRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeFailure(w, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	messages := export.ValidateSubmission(r.Context(), sess.State().Schema, req.Values)
	if len(messages) > 0 {
		s.writeJSON(w, http.StatusUnprocessableEntity, submissionResponse{
			Valid:  false,
			Errors: render.SubmissionErrors(messages),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, submissionResponse{Valid: true})
}

// submitPreviewForm handles posts from the rendered preview page. The preview
// is rendered again with the submitted values, and any errors are attached
// to their fields.
func (s *Server) submitPreviewForm(w http.ResponseWriter, r *http.Request) {
	if len(s.previews.Names()) == 0 {
		s.writeError(w, http.StatusNotImplemented, "NO_RENDERER", "preview renderer not configured")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeFailure(w, errBodyTooLarge)
			return
		}
		s.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	state := sess.State()
	state.Mode = designer.ModePreview
	state.SelectedFieldID = ""
	values := formValues(state.Schema, r.PostForm)

	opts := s.previewOptions(sess.ID, state.Schema, r.URL.Query())
	opts.Values = values
	status := http.StatusOK
	if messages := export.ValidateSubmission(r.Context(), state.Schema, values); len(messages) > 0 {
		mapped := render.MapErrorPayload(state.Schema, render.SubmissionErrors(messages))
		opts.Errors = mapped.Fields
		opts.FormErrors = mapped.Form
		status = http.StatusUnprocessableEntity
	}
	if version := r.PostForm.Get(render.VersionField(0).Name); version != "" && version != strconv.Itoa(state.Schema.SchemaVersion) {
		opts.FormErrors = render.MergeFormErrors(opts.FormErrors, "the form changed after it was loaded, review it and submit again")
		status = http.StatusConflict
	}
	s.writePreview(r.Context(), w, status, html.Name, state, opts)
}

func isFormPost(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}

// formValues converts posted form data into submission values keyed by
// field name. Blank inputs count as absent; an unchecked checkbox is false.
func formValues(doc schema.FormDocument, posted url.Values) map[string]any {
	values := make(map[string]any)
	for _, field := range doc.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" || !field.Submittable() {
			continue
		}
		raw := strings.TrimSpace(posted.Get(name))
		switch field.Type {
		case schema.FieldTypeCheckbox:
			values[name] = raw == "on" || raw == "true" || raw == "1"
		case schema.FieldTypeNumber:
			if raw == "" {
				continue
			}
			if n, err := strconv.ParseFloat(raw, 64); err == nil {
				values[name] = n
			} else {
				values[name] = raw
			}
		default:
			if raw != "" {
				values[name] = raw
			}
		}
	}
	return values
}

func contentDisposition(filename string) string {
	ascii := strings.Map(func(r rune) rune {
		if r > 0x7e || r < 0x20 || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, ascii, url.PathEscape(filename))
}
