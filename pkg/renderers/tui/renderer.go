package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/render"
	"github.com/goliatone/go-formdesigner/pkg/schema"
)

// Name is the registry key of the TUI renderer.
const Name = "tui"

// Renderer implements render.Renderer for terminal sessions: it walks the
// document in order, prompts for every submittable field and serialises the
// answers keyed by field name.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	theme             Theme
	maxAttempts       int
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	switch r.outputFormat {
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
	default:
		return nil, fmt.Errorf("tui: unsupported output format %q", r.outputFormat)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render prompts for every submittable field of the state's document. The
// designer mode is ignored: a terminal session is always a preview.
func (r *Renderer) Render(ctx context.Context, designerState designer.DesignerState, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	doc := designerState.Schema
	if doc.Title != "" {
		if err := r.info(ctx, doc.Title); err != nil {
			return nil, err
		}
	}
	for _, message := range opts.FormErrors {
		if err := r.problem(ctx, message); err != nil {
			return nil, err
		}
	}

	state := NewState(nil, opts.Errors)
	for _, field := range doc.Fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !field.Submittable() || strings.TrimSpace(field.Name) == "" {
			continue
		}
		prefill, hasPrefill := opts.Values[field.Name]
		if field.Disabled {
			state.SetValue(field.Name, disabledValue(field, prefill, hasPrefill))
			continue
		}
		for _, message := range state.ErrorsFor(field.Name) {
			if err := r.problem(ctx, fmt.Sprintf("%s: %s", displayLabel(field), message)); err != nil {
				return nil, err
			}
		}
		if err := r.promptField(ctx, field, prefill, hasPrefill, state); err != nil {
			return nil, fmt.Errorf("tui: field %q: %w", field.Name, err)
		}
	}

	values := state.Values()
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(values)
}

func (r *Renderer) promptField(ctx context.Context, field schema.Field, prefill any, hasPrefill bool, state *State) error {
	switch props := field.Props.(type) {
	case schema.InputProps:
		return r.promptString(ctx, field, stringDefault(prefill, hasPrefill, props.DefaultValue), false, nil, state)
	case schema.TextareaProps:
		return r.promptString(ctx, field, stringDefault(prefill, hasPrefill, props.DefaultValue), true, nil, state)
	case schema.DateProps:
		return r.promptString(ctx, field, stringDefault(prefill, hasPrefill, props.DefaultValue), false, validateDate, state)
	case schema.NumberProps:
		return r.promptNumber(ctx, field, props, prefill, hasPrefill, state)
	case schema.SelectProps:
		return r.promptChoice(ctx, field, props.Options, stringDefault(prefill, hasPrefill, props.DefaultValue), state)
	case schema.RadioProps:
		return r.promptChoice(ctx, field, props.Options, stringDefault(prefill, hasPrefill, props.DefaultValue), state)
	case schema.CheckboxProps:
		def := props.DefaultValue
		if b, ok := prefill.(bool); ok && hasPrefill {
			def = b
		}
		return r.promptBoolean(ctx, field, def, state)
	default:
		return fmt.Errorf("unsupported props %T", field.Props)
	}
}

func (r *Renderer) promptString(ctx context.Context, field schema.Field, def string, multiline bool, check func(string) error, state *State) error {
	label := displayLabel(field)
	return r.attempt(ctx, label, func() (bool, error) {
		var (
			response string
			err      error
		)
		if multiline {
			response, err = r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: def, Help: field.HelpText})
		} else {
			response, err = r.driver.Input(ctx, InputConfig{Message: label, Default: def, Help: field.HelpText})
		}
		if err != nil {
			return false, err
		}

		trimmed := strings.TrimSpace(response)
		if trimmed == "" {
			if field.Required {
				return false, r.problem(ctx, fmt.Sprintf("%s is required", label))
			}
			state.SetValue(field.Name, "")
			return true, nil
		}
		if check != nil {
			if err := check(trimmed); err != nil {
				return false, r.problem(ctx, fmt.Sprintf("Invalid %s: %v", label, err))
			}
		}
		state.SetValue(field.Name, response)
		return true, nil
	})
}

func (r *Renderer) promptNumber(ctx context.Context, field schema.Field, props schema.NumberProps, prefill any, hasPrefill bool, state *State) error {
	label := displayLabel(field)
	def := formatNumber(props.DefaultValue)
	if hasPrefill {
		if n, ok := toFloat(prefill); ok {
			def = formatNumber(n)
		}
	}

	return r.attempt(ctx, label, func() (bool, error) {
		input, err := r.driver.Input(ctx, InputConfig{Message: label, Default: def, Help: field.HelpText})
		if err != nil {
			return false, err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			if field.Required {
				return false, r.problem(ctx, fmt.Sprintf("%s is required", label))
			}
			state.SetValue(field.Name, nil)
			return true, nil
		}
		n, err := strconv.ParseFloat(input, 64)
		if err != nil {
			return false, r.problem(ctx, fmt.Sprintf("Invalid %s: not a number", label))
		}
		if props.Min != nil && n < *props.Min {
			return false, r.problem(ctx, fmt.Sprintf("Invalid %s: must be at least %s", label, formatNumber(*props.Min)))
		}
		if props.Max != nil && n > *props.Max {
			return false, r.problem(ctx, fmt.Sprintf("Invalid %s: must be at most %s", label, formatNumber(*props.Max)))
		}
		state.SetValue(field.Name, n)
		return true, nil
	})
}

func (r *Renderer) promptChoice(ctx context.Context, field schema.Field, options []schema.Option, def string, state *State) error {
	label := displayLabel(field)
	if len(options) == 0 {
		if field.Required {
			return fmt.Errorf("%s has no options to choose from", label)
		}
		state.SetValue(field.Name, "")
		return nil
	}

	labels := make([]string, len(options))
	defaultIdx := -1
	for i, opt := range options {
		labels[i] = optionLabel(opt)
		if opt.Value == def && def != "" && defaultIdx < 0 {
			defaultIdx = i
		}
	}

	return r.attempt(ctx, label, func() (bool, error) {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      labels,
			DefaultIndex: defaultIdx,
			Help:         field.HelpText,
		})
		if err != nil {
			return false, err
		}
		if idx < 0 || idx >= len(options) {
			return false, r.problem(ctx, fmt.Sprintf("Invalid %s selection", label))
		}
		state.SetValue(field.Name, options[idx].Value)
		return true, nil
	})
}

func (r *Renderer) promptBoolean(ctx context.Context, field schema.Field, def bool, state *State) error {
	label := displayLabel(field)
	return r.attempt(ctx, label, func() (bool, error) {
		resp, err := r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: def, Help: field.HelpText})
		if err != nil {
			return false, err
		}
		if field.Required && !resp {
			return false, r.problem(ctx, fmt.Sprintf("%s must be accepted", label))
		}
		state.SetValue(field.Name, resp)
		return true, nil
	})
}

// attempt repeats ask until it reports done, an error occurs, or the attempt
// limit is reached.
func (r *Renderer) attempt(ctx context.Context, label string, ask func() (bool, error)) error {
	for tries := 1; ; tries++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := ask()
		if err != nil || done {
			return err
		}
		if r.maxAttempts > 0 && tries >= r.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, label)
		}
	}
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Renderer) problem(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
}

func (r *Renderer) serialize(values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(values)
	}
}

func displayLabel(field schema.Field) string {
	if strings.TrimSpace(field.Label) != "" {
		return field.Label
	}
	return field.Name
}

func optionLabel(opt schema.Option) string {
	if strings.TrimSpace(opt.Label) != "" {
		return opt.Label
	}
	return opt.Value
}

func disabledValue(field schema.Field, prefill any, hasPrefill bool) any {
	if hasPrefill {
		return prefill
	}
	switch props := field.Props.(type) {
	case schema.InputProps:
		return props.DefaultValue
	case schema.TextareaProps:
		return props.DefaultValue
	case schema.DateProps:
		return props.DefaultValue
	case schema.NumberProps:
		return props.DefaultValue
	case schema.SelectProps:
		return props.DefaultValue
	case schema.RadioProps:
		return props.DefaultValue
	case schema.CheckboxProps:
		return props.DefaultValue
	default:
		return nil
	}
}

func stringDefault(prefill any, hasPrefill bool, fallback string) string {
	if !hasPrefill || prefill == nil {
		return fallback
	}
	if s, ok := prefill.(string); ok {
		return s
	}
	return fmt.Sprint(prefill)
}

func validateDate(raw string) error {
	if _, err := time.Parse(time.DateOnly, raw); err != nil {
		return errors.New("expected YYYY-MM-DD")
	}
	return nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	for name, value := range values {
		if value == nil {
			flattened.Set(name, "")
			continue
		}
		flattened.Set(name, fmt.Sprint(value))
	}
	return flattened.Encode()
}

func prettyPrint(values map[string]any) string {
	state := NewState(values, nil)
	var b strings.Builder
	for _, name := range state.Names() {
		value := values[name]
		if value == nil {
			value = ""
		}
		fmt.Fprintf(&b, "%s=%v\n", name, value)
	}
	return b.String()
}
