package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/export"
	"github.com/goliatone/go-formdesigner/pkg/loader"
	"github.com/goliatone/go-formdesigner/pkg/render"
	"github.com/goliatone/go-formdesigner/pkg/schema"
	"github.com/goliatone/go-formdesigner/pkg/storage"
)

// errorResponse is the body of every non-2xx JSON reply.
type errorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write json failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeFailure maps domain errors onto status codes.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request validation failed", Code: "INVALID_REQUEST", Details: details})
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidID):
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", "form not found")
	case errors.Is(err, designer.ErrUnknownCommand):
		s.writeError(w, http.StatusBadRequest, "UNKNOWN_COMMAND", err.Error())
	case errors.Is(err, designer.ErrMalformedCommand):
		s.writeError(w, http.StatusBadRequest, "MALFORMED_COMMAND", err.Error())
	case errors.Is(err, schema.ErrUnknownFieldType), errors.Is(err, schema.ErrPropsMismatch):
		s.writeError(w, http.StatusBadRequest, "INVALID_FIELD", err.Error())
	case errors.Is(err, loader.ErrEmptyDocument), errors.Is(err, loader.ErrInvalidDocument), errors.Is(err, loader.ErrDuplicateFieldID):
		s.writeError(w, http.StatusBadRequest, "INVALID_DOCUMENT", err.Error())
	case errors.Is(err, render.ErrRendererNotFound):
		s.writeError(w, http.StatusNotFound, "UNKNOWN_RENDERER", err.Error())
	case errors.Is(err, export.ErrUnsupportedFormat):
		s.writeError(w, http.StatusBadRequest, "UNSUPPORTED_FORMAT", err.Error())
	case errors.Is(err, errBodyTooLarge):
		s.writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", err.Error())
	case errors.Is(err, errBadJSON):
		s.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

var (
	errBodyTooLarge = errors.New("request body too large")
	errBadJSON      = errors.New("invalid JSON body")
)

// readBody returns the request body, bounded by the server limit.
func (s *Server) readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, s.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > s.maxBody {
		return nil, errBodyTooLarge
	}
	return data, nil
}

// decodeJSON decodes the body into v and runs struct validation on it.
func (s *Server) decodeJSON(r *http.Request, v any) error {
	data, err := s.readBody(r)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("%w: empty body", errBadJSON)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return s.validate.Struct(v)
}
