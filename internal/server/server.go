package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdesigner/internal/session"
	"github.com/goliatone/go-formdesigner/pkg/render"
	"github.com/goliatone/go-formdesigner/pkg/render/template/pongo"
	"github.com/goliatone/go-formdesigner/pkg/renderers/html"
)

const (
	defaultMaxBody         = 1 << 20
	defaultShutdownTimeout = 10 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPreviewRenderer registers an extra renderer for the preview route.
// The first one registered becomes the default; the html renderer is always
// offered after them.
func WithPreviewRenderer(renderer render.Renderer) Option {
	return func(s *Server) {
		if renderer != nil {
			s.extra = append(s.extra, renderer)
		}
	}
}

// WithClock overrides the time source used for export file names.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithAllowedOrigins sets the WebSocket origin patterns. Same-origin requests
// are always accepted.
func WithAllowedOrigins(patterns ...string) Option {
	return func(s *Server) {
		s.origins = append([]string(nil), patterns...)
	}
}

// Server exposes the designer over HTTP and WebSocket.
type Server struct {
	sessions *session.Manager
	previews *render.Registry
	extra    []render.Renderer
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
	maxBody  int64
	origins  []string
	pages    *pongo.Engine
	router   chi.Router
}

// New builds the router. The preview route picks a renderer by the
// renderer query parameter, defaulting to the first one registered.
func New(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		logger:   zap.NewNop(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
		maxBody:  defaultMaxBody,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.previews = s.previewRegistry()
	pages, err := newPageEngine()
	if err != nil {
		s.logger.Warn("designer page unavailable", zap.Error(err))
	}
	s.pages = pages
	s.router = s.routes()
	return s
}

func (s *Server) previewRegistry() *render.Registry {
	renderers := append([]render.Renderer(nil), s.extra...)
	if renderer, err := html.New(); err != nil {
		s.logger.Warn("html renderer unavailable", zap.Error(err))
	} else {
		renderers = append(renderers, renderer)
	}
	reg, _ := render.NewRegistry()
	for _, renderer := range renderers {
		if err := reg.Register(renderer); err != nil {
			s.logger.Warn("preview renderer skipped", zap.String("renderer", renderer.Name()), zap.Error(err))
		}
	}
	return reg
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle(runtimePrefix+"*", serveRuntime())
	r.Get("/designer/{id}", s.designerPage)

	r.Route("/api/forms", func(r chi.Router) {
		r.Get("/", s.listForms)
		r.Post("/", s.createForm)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getForm)
			r.Delete("/", s.deleteForm)
			r.Post("/commands", s.dispatchCommands)
			r.Post("/fields", s.addField)
			r.Post("/undo", s.undo)
			r.Post("/redo", s.redo)
			r.Get("/validate", s.validateForm)
			r.Get("/export", s.exportForm)
			r.Get("/preview", s.previewForm)
			r.Post("/submissions", s.submitForm)
			r.Get("/ws", s.serveWS)
		})
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully and
// flushes open sessions.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := s.sessions.Flush(shutdownCtx); err != nil {
		return fmt.Errorf("server: flush sessions: %w", err)
	}
	return nil
}
