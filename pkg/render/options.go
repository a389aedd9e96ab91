package render

// RenderOptions describe per-request data that renderers can use to customise
// their output without touching the designer state.
type RenderOptions struct {
	// Values pre-populates preview controls, keyed by field name. Missing keys
	// fall back to each field's default value.
	Values map[string]any
	// Errors surfaces validation feedback keyed by field name. Use
	// MapErrorPayload to build it from loosely keyed payloads.
	Errors map[string][]string
	// FormErrors are shown above the fields.
	FormErrors []string
	// Hidden carries extra inputs emitted in preview forms (CSRF tokens,
	// document versions).
	Hidden map[string]string
	// Action and Method configure the preview <form>. Method defaults to POST.
	Action string
	Method string
	// ThemeName and ThemeVariant select a registered theme. Empty names use
	// the renderer's default.
	ThemeName    string
	ThemeVariant string
}
