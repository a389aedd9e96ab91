package html

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

type themeView struct {
	Name    string `json:"name,omitempty"`
	Variant string `json:"variant,omitempty"`
	Style   string `json:"style,omitempty"`
}

// resolveTheme asks the selector for name/variant, falling back to the
// renderer defaults, and turns the merged tokens into CSS custom properties.
func (r *Renderer) resolveTheme(name, variant string) (themeView, error) {
	if r.themes == nil {
		return themeView{}, nil
	}
	if strings.TrimSpace(name) == "" {
		name = r.defaultTheme
	}
	if strings.TrimSpace(variant) == "" {
		variant = r.defaultVariant
	}
	selection, err := r.themes.Select(name, variant)
	if err != nil {
		return themeView{}, fmt.Errorf("html renderer: select theme %q: %w", name, err)
	}
	if selection == nil {
		return themeView{}, nil
	}
	return themeView{
		Name:    selection.Theme,
		Variant: selection.Variant,
		Style:   cssVarsStyle(cssVars(selectionTokens(selection))),
	}, nil
}

// selectionTokens merges the manifest tokens with the selected variant's
// overrides.
func selectionTokens(selection *theme.Selection) map[string]string {
	tokens := make(map[string]string)
	manifest := selection.Manifest
	if manifest == nil {
		return tokens
	}
	for key, value := range manifest.Tokens {
		tokens[key] = value
	}
	if variant, ok := manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
	}
	return tokens
}

func cssVars(tokens map[string]string) map[string]string {
	vars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		name := cssVarName(key)
		if name == "" || !safeCSSValue(value) {
			continue
		}
		vars[name] = strings.TrimSpace(value)
	}
	return vars
}

func cssVarName(token string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(token) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == '.' || r == ' ':
			b.WriteRune('-')
		default:
			return ""
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "--" + strings.TrimPrefix(b.String(), "--")
}

func safeCSSValue(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && !strings.ContainsAny(value, "<>;{}\\")
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

// ErrThemeNotFound is returned by ManifestSelector for unknown theme names.
var ErrThemeNotFound = errors.New("html renderer: theme not found")

// ManifestSelector is an in-memory theme.ThemeSelector over a fixed set of
// manifests. An empty name selects the first registered manifest; an unknown
// variant falls back to the base tokens.
type ManifestSelector struct {
	order     []string
	manifests map[string]*theme.Manifest
}

var _ theme.ThemeSelector = (*ManifestSelector)(nil)

// NewManifestSelector registers manifests in order. Nil manifests and
// manifests without a name are skipped.
func NewManifestSelector(manifests ...*theme.Manifest) *ManifestSelector {
	sel := &ManifestSelector{manifests: make(map[string]*theme.Manifest, len(manifests))}
	for _, manifest := range manifests {
		if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
			continue
		}
		if _, exists := sel.manifests[manifest.Name]; !exists {
			sel.order = append(sel.order, manifest.Name)
		}
		sel.manifests[manifest.Name] = manifest
	}
	return sel
}

func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if s == nil || len(s.order) == 0 {
		return nil, ErrThemeNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.order[0]
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrThemeNotFound, name)
	}
	variant = strings.TrimSpace(variant)
	if _, ok := manifest.Variants[variant]; !ok {
		variant = ""
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// DefaultThemeName is the name of the manifest returned by DefaultManifest.
const DefaultThemeName = "formdesigner"

// DefaultManifest returns the built-in theme with a light base and a "dark"
// variant.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"color.surface":  "#ffffff",
			"color.text":     "#1f2328",
			"color.muted":    "#656d76",
			"color.accent":   "#0969da",
			"color.danger":   "#cf222e",
			"color.selected": "#ddf4ff",
			"font.body":      "system-ui, sans-serif",
			"radius":         "6px",
			"gap":            "12px",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"color.surface":  "#0d1117",
					"color.text":     "#e6edf3",
					"color.muted":    "#8d96a0",
					"color.accent":   "#4493f8",
					"color.danger":   "#f85149",
					"color.selected": "#121d2f",
				},
			},
		},
	}
}
