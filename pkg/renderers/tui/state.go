package tui

import "sort"

// State tracks collected values and server-provided errors keyed by field
// name.
type State struct {
	values map[string]any
	errors map[string][]string
}

// NewState seeds the state with prefilled values and errors.
func NewState(prefill map[string]any, errs map[string][]string) *State {
	return &State{
		values: cloneValues(prefill),
		errors: cloneErrors(errs),
	}
}

// Values returns the current value map (mutable).
func (s *State) Values() map[string]any {
	if s == nil {
		return nil
	}
	return s.values
}

// ErrorsFor returns the errors attached to a field name.
func (s *State) ErrorsFor(name string) []string {
	if s == nil || len(s.errors) == 0 {
		return nil
	}
	return s.errors[name]
}

// GetValue returns the value collected or prefilled for name.
func (s *State) GetValue(name string) (any, bool) {
	if s == nil || s.values == nil {
		return nil, false
	}
	value, ok := s.values[name]
	return value, ok
}

// SetValue records value under name.
func (s *State) SetValue(name string, value any) {
	if s == nil {
		return
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[name] = value
}

// Names returns the collected names in lexical order.
func (s *State) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cloneValues(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}

func cloneErrors(src map[string][]string) map[string][]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string][]string, len(src))
	for key, value := range src {
		out[key] = append([]string(nil), value...)
	}
	return out
}
