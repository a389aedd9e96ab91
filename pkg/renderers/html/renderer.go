package html

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/render"
	rendertemplate "github.com/goliatone/go-formdesigner/pkg/render/template"
	"github.com/goliatone/go-formdesigner/pkg/render/template/pongo"
	"github.com/goliatone/go-formdesigner/pkg/schema"
	"github.com/goliatone/go-formdesigner/pkg/widgets"
)

// Name is the registry key of the HTML renderer.
const Name = "html"

const formTemplate = "templates/form"

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	widgets          *widgets.Registry
	themes           theme.ThemeSelector
	defaultTheme     string
	defaultVariant   string
}

// WithTemplatesFS supplies an alternate template bundle. It must provide
// templates/form.tmpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithWidgetRegistry overrides the registry deciding which control each
// field renders as.
func WithWidgetRegistry(reg *widgets.Registry) Option {
	return func(cfg *config) {
		if reg != nil {
			cfg.widgets = reg
		}
	}
}

// WithThemeSelector enables theming. Tokens of the selected theme are emitted
// as CSS custom properties ahead of the markup.
func WithThemeSelector(selector theme.ThemeSelector, defaultTheme, defaultVariant string) Option {
	return func(cfg *config) {
		cfg.themes = selector
		cfg.defaultTheme = strings.TrimSpace(defaultTheme)
		cfg.defaultVariant = strings.TrimSpace(defaultVariant)
	}
}

// Renderer renders a designer state as an HTML fragment. Design mode wraps
// every field in selectable, draggable chrome; preview mode emits a plain
// <form>.
type Renderer struct {
	templates      rendertemplate.TemplateRenderer
	widgets        *widgets.Registry
	themes         theme.ThemeSelector
	defaultTheme   string
	defaultVariant string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.widgets == nil {
		cfg.widgets = widgets.NewRegistry()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := pongo.New(
			pongo.WithFS(cfg.templateFS),
			pongo.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates:      renderer,
		widgets:        cfg.widgets,
		themes:         cfg.themes,
		defaultTheme:   cfg.defaultTheme,
		defaultVariant: cfg.defaultVariant,
	}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *Renderer) Render(ctx context.Context, state designer.DesignerState, options render.RenderOptions) ([]byte, error) {
	if r == nil || r.templates == nil {
		return nil, errors.New("html renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	themeCtx, err := r.resolveTheme(options.ThemeName, options.ThemeVariant)
	if err != nil {
		return nil, err
	}

	result, err := r.templates.RenderTemplate(formTemplate, r.buildView(state, options, themeCtx))
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(result), nil
}

type formView struct {
	Design      bool         `json:"design"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Action      string       `json:"action"`
	Method      string       `json:"method"`
	FormErrors  []string     `json:"form_errors"`
	Hidden      []hiddenView `json:"hidden_fields"`
	Fields      []fieldView  `json:"fields"`
	Theme       themeView    `json:"theme"`
}

type hiddenView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type fieldView struct {
	ID          string       `json:"id"`
	ControlID   string       `json:"control_id"`
	Type        string       `json:"type"`
	Widget      string       `json:"widget"`
	Name        string       `json:"name"`
	Label       string       `json:"label"`
	Help        string       `json:"help"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Placeholder string       `json:"placeholder"`
	InputType   string       `json:"input_type"`
	Value       string       `json:"value"`
	Checked     bool         `json:"checked"`
	Required    bool         `json:"required"`
	Inert       bool         `json:"inert"`
	Selected    bool         `json:"selected"`
	Span        string       `json:"span"`
	Rows        string       `json:"rows"`
	Min         string       `json:"min"`
	Max         string       `json:"max"`
	Step        string       `json:"step"`
	Options     []optionView `json:"options"`
	Errors      []string     `json:"errors"`
}

type optionView struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

func (r *Renderer) buildView(state designer.DesignerState, options render.RenderOptions, themeCtx themeView) formView {
	design := state.Mode != designer.ModePreview
	doc := state.Schema

	method := strings.ToUpper(strings.TrimSpace(options.Method))
	if method == "" {
		method = "POST"
	}

	view := formView{
		Design:      design,
		Title:       sanitizeText(doc.Title),
		Description: sanitizeText(doc.Description),
		Action:      strings.TrimSpace(options.Action),
		Method:      method,
		Fields:      make([]fieldView, 0, len(doc.Fields)),
		Theme:       themeCtx,
	}
	if !design {
		view.FormErrors = render.MergeFormErrors(nil, options.FormErrors...)
		for _, hidden := range render.SortedHiddenFields(options.Hidden) {
			view.Hidden = append(view.Hidden, hiddenView{Name: hidden.Name, Value: hidden.Value})
		}
	}

	for _, field := range doc.Fields {
		fv := r.fieldView(field, design)
		if design {
			fv.Selected = field.ID == state.SelectedFieldID && field.ID != ""
		} else {
			if value, ok := options.Values[field.Name]; ok && field.Name != "" {
				applyValue(&fv, value)
			}
			fv.Errors = options.Errors[field.Name]
		}
		view.Fields = append(view.Fields, fv)
	}
	return view
}

func (r *Renderer) fieldView(field schema.Field, design bool) fieldView {
	widget, ok := r.widgets.Resolve(field)
	if !ok {
		widget = widgets.WidgetText
	}
	fv := fieldView{
		ID:        field.ID,
		ControlID: "fd-" + field.ID,
		Type:      string(field.Type),
		Widget:    widget,
		Name:      field.Name,
		Label:     sanitizeText(field.Label),
		Help:      sanitizeText(field.HelpText),
		Required:  field.Required,
		Inert:     design || field.Disabled,
		Span:      strconv.Itoa(colSpan(field.ColSpan)),
		InputType: "text",
	}

	switch props := field.Props.(type) {
	case schema.InputProps:
		fv.Placeholder = props.Placeholder
		fv.Value = props.DefaultValue
	case schema.TextareaProps:
		fv.Placeholder = props.Placeholder
		fv.Value = props.DefaultValue
		if props.Rows > 0 {
			fv.Rows = strconv.Itoa(props.Rows)
		}
	case schema.NumberProps:
		fv.InputType = "number"
		fv.Placeholder = props.Placeholder
		fv.Value = formatNumber(props.DefaultValue)
		if props.Min != nil {
			fv.Min = formatNumber(*props.Min)
		}
		if props.Max != nil {
			fv.Max = formatNumber(*props.Max)
		}
		if props.Step > 0 {
			fv.Step = formatNumber(props.Step)
		}
	case schema.DateProps:
		fv.InputType = "date"
		fv.Value = props.DefaultValue
	case schema.SelectProps:
		fv.Placeholder = props.Placeholder
		fv.Value = props.DefaultValue
		fv.Options = optionViews(props.Options, props.DefaultValue)
	case schema.RadioProps:
		fv.Value = props.DefaultValue
		fv.Options = optionViews(props.Options, props.DefaultValue)
	case schema.CheckboxProps:
		fv.Checked = props.DefaultValue
	case schema.SectionProps:
		fv.Title = sanitizeText(props.Title)
		fv.Description = sanitizeText(props.Description)
	}
	return fv
}

// applyValue overlays a submitted value on the defaults already in fv.
func applyValue(fv *fieldView, value any) {
	if fv.Widget == widgets.WidgetToggle || fv.Type == string(schema.FieldTypeCheckbox) {
		fv.Checked = truthy(value)
		return
	}
	fv.Value = formatValue(value)
	for i := range fv.Options {
		fv.Options[i].Selected = fv.Options[i].Value == fv.Value
	}
}

func optionViews(options []schema.Option, selected string) []optionView {
	if len(options) == 0 {
		return nil
	}
	out := make([]optionView, 0, len(options))
	for _, opt := range options {
		out = append(out, optionView{Label: opt.Label, Value: opt.Value, Selected: opt.Value == selected && selected != ""})
	}
	return out
}

// colSpan maps an optional span onto the 12 column grid. Unset spans take
// the full row.
func colSpan(span *int) int {
	if span == nil {
		return schema.MaxColSpan
	}
	switch {
	case *span < schema.MinColSpan:
		return schema.MinColSpan
	case *span > schema.MaxColSpan:
		return schema.MaxColSpan
	default:
		return *span
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return formatNumber(v)
	case float32:
		return formatNumber(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		if len(v) > 0 {
			return v[0]
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.EqualFold(trimmed, "on") {
			return true
		}
		parsed, err := strconv.ParseBool(trimmed)
		return err == nil && parsed
	case []string:
		return len(v) > 0 && truthy(v[0])
	default:
		return false
	}
}
