package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-formdesigner/pkg/designer"
)

var (
	// ErrRendererNotFound is returned when no renderer answers to a name.
	ErrRendererNotFound = errors.New("render: renderer not found")
	// ErrDuplicateRenderer is returned when a name is registered twice.
	ErrDuplicateRenderer = errors.New("render: renderer already registered")
)

// Registry resolves renderers by name for hosts that offer more than one
// output (the server's preview route, the CLI). The first renderer
// registered is the default and answers to a blank name. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	names     []string
	renderers map[string]Renderer
}

// NewRegistry registers renderers in order; the first one becomes the default.
func NewRegistry(renderers ...Renderer) (*Registry, error) {
	reg := &Registry{renderers: make(map[string]Renderer, len(renderers))}
	for _, renderer := range renderers {
		if err := reg.Register(renderer); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds a renderer under its Name().
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return errors.New("render: renderer is required")
	}
	name := strings.TrimSpace(renderer.Name())
	if name == "" {
		return errors.New("render: renderer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.renderers[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateRenderer, name)
	}
	r.renderers[name] = renderer
	r.names = append(r.names, name)
	return nil
}

// Lookup returns the renderer called name, or the default for a blank name.
func (r *Registry) Lookup(name string) (Renderer, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: no renderers configured", ErrRendererNotFound)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	name = strings.TrimSpace(name)
	if name == "" {
		if len(r.names) == 0 {
			return nil, fmt.Errorf("%w: no renderers configured", ErrRendererNotFound)
		}
		name = r.names[0]
	}
	renderer, ok := r.renderers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRendererNotFound, name)
	}
	return renderer, nil
}

// Names lists renderer names in registration order, default first.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// Render resolves name and renders state with it, returning the output and
// the renderer's content type.
func (r *Registry) Render(ctx context.Context, name string, state designer.DesignerState, opts RenderOptions) ([]byte, string, error) {
	renderer, err := r.Lookup(name)
	if err != nil {
		return nil, "", err
	}
	out, err := renderer.Render(ctx, state, opts)
	if err != nil {
		return nil, "", fmt.Errorf("render: %s: %w", renderer.Name(), err)
	}
	return out, renderer.ContentType(), nil
}
