package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formdesigner/pkg/schema"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetText       = "text"
	WidgetTextarea   = "textarea"
	WidgetNumber     = "number"
	WidgetDatePicker = "date-picker"
	WidgetSelect     = "select"
	WidgetRadioGroup = "radio-group"
	WidgetToggle     = "toggle"
	WidgetFieldset   = "fieldset"
	WidgetSeparator  = "separator"
)

// Matcher decides whether a widget renderer should handle the supplied field.
type Matcher func(field schema.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widget renderers for fields based on registered matchers.
// Higher priority wins; ties fall back to registration order. An empty
// registry never resolves a widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in widget matchers
// registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority. Higher
// priority values take precedence, so a host can override a built-in by
// registering above its priority.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for a field.
func (r *Registry) Resolve(field schema.Field) (string, bool) {
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// ResolveDocument maps every field id of doc to its widget. Fields no rule
// matches are absent from the result.
func (r *Registry) ResolveDocument(doc schema.FormDocument) map[string]string {
	out := make(map[string]string, len(doc.Fields))
	for _, field := range doc.Fields {
		if widget, ok := r.Resolve(field); ok {
			out[field.ID] = widget
		}
	}
	return out
}

func typeIs(t schema.FieldType) Matcher {
	return func(field schema.Field) bool {
		return field.Type == t
	}
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetToggle, 90, typeIs(schema.FieldTypeCheckbox))
	r.Register(WidgetRadioGroup, 80, typeIs(schema.FieldTypeRadio))
	r.Register(WidgetSelect, 70, typeIs(schema.FieldTypeSelect))
	r.Register(WidgetTextarea, 60, typeIs(schema.FieldTypeTextarea))
	r.Register(WidgetNumber, 50, typeIs(schema.FieldTypeNumber))
	r.Register(WidgetDatePicker, 40, typeIs(schema.FieldTypeDate))
	r.Register(WidgetFieldset, 30, typeIs(schema.FieldTypeSection))
	r.Register(WidgetSeparator, 20, typeIs(schema.FieldTypeDivider))
	r.Register(WidgetText, 10, typeIs(schema.FieldTypeInput))
}
