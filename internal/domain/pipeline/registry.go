package pipeline

import (
	"context"
	"fmt"
)

// Args holds the argument values passed to a step invocation.
type Args map[string]any

// String returns the argument as a string.
func (a Args) String(key string) (string, bool) {
	v, ok := a[key].(string)
	return v, ok
}

// Int returns the argument as an int, accepting the integer and float
// representations produced by the YAML, TOML, and JSON decoders.
func (a Args) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Float returns the argument as a float64, accepting integer representations.
func (a Args) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Bool returns the argument as a bool.
func (a Args) Bool(key string) (bool, bool) {
	v, ok := a[key].(bool)
	return v, ok
}

// Slice returns the argument as a list.
func (a Args) Slice(key string) ([]any, bool) {
	v, ok := a[key].([]any)
	return v, ok
}

// StepFunc is the implementation of a named step. Steps mutate shared state
// captured at registration time and report failure through the returned error.
type StepFunc func(ctx context.Context, args Args) error

// Param declares a parameter accepted by a registered step.
type Param struct {
	Name     string
	Required bool
	Default  any
}

// Required declares a parameter that must be supplied by the descriptor.
func Required(name string) Param {
	return Param{Name: name, Required: true}
}

// Optional declares a parameter with a default used when absent.
func Optional(name string, def any) Param {
	return Param{Name: name, Default: def}
}

type stepEntry struct {
	fn     StepFunc
	params []Param
}

// Registry maps step names to callables with declared parameters. It is the
// explicit registration surface for step providers: anything able to register
// named callables satisfies the step-provider role, no base type required.
type Registry struct {
	names   []string
	entries map[string]stepEntry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]stepEntry),
	}
}

// Register binds a step name to its callable and declared parameters.
// Registering an empty name, a nil callable, or a duplicate name is an error.
func (r *Registry) Register(name string, fn StepFunc, params ...Param) error {
	if name == "" {
		return fmt.Errorf("step name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("step %q: callable cannot be nil", name)
	}
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("step %q is already registered", name)
	}
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if p.Name == "" {
			return fmt.Errorf("step %q: parameter name cannot be empty", name)
		}
		if seen[p.Name] {
			return fmt.Errorf("step %q: duplicate parameter %q", name, p.Name)
		}
		seen[p.Name] = true
	}

	r.names = append(r.names, name)
	r.entries[name] = stepEntry{fn: fn, params: params}
	return nil
}

// MustRegister is Register that panics on error, for static registration.
func (r *Registry) MustRegister(name string, fn StepFunc, params ...Param) {
	if err := r.Register(name, fn, params...); err != nil {
		panic(err)
	}
}

// Names returns the registered step names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Len returns the number of registered steps.
func (r *Registry) Len() int {
	return len(r.entries)
}

func (r *Registry) lookup(name string) (stepEntry, bool) {
	entry, ok := r.entries[name]
	return entry, ok
}
