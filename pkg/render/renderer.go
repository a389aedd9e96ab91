package render

import (
	"context"

	"github.com/goliatone/go-formdesigner/pkg/designer"
)

// Renderer turns a designer state into a byte representation (HTML, a
// terminal transcript, JSON values). The state's Mode decides between design
// chrome and a plain preview.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, state designer.DesignerState, options RenderOptions) ([]byte, error)
}
