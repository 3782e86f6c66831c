// Package pipeline turns declarative step descriptors into an ordered,
// validated sequence of deferred invocations against a registry of named
// steps, and drives their sequential execution with optional
// checkpoint/resume support.
//
// A Pipeline is single-owner and single-threaded: concurrent Run calls on
// the same instance are not supported.
package pipeline

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

// StepDescriptor is the declarative (name, arguments) representation of a
// step before resolution. A nil Args map means the step takes no arguments.
type StepDescriptor struct {
	Name string
	Args map[string]any
}

// Equal reports whether two descriptors have the same name and arguments.
func (d StepDescriptor) Equal(other StepDescriptor) bool {
	if d.Name != other.Name {
		return false
	}
	if len(d.Args) != len(other.Args) {
		return false
	}
	return len(d.Args) == 0 || reflect.DeepEqual(d.Args, other.Args)
}

// String returns the descriptor in its configuration form.
func (d StepDescriptor) String() string {
	if len(d.Args) == 0 {
		return d.Name
	}
	return fmt.Sprintf("%s: %v", d.Name, d.Args)
}

// UnmarshalYAML decodes the single-key mapping form
// {<step_name>: <argument_mapping_or_null>}.
func (d *StepDescriptor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return NewMalformedConfigError(fmt.Sprintf("pipeline entry must be a mapping, got %s", yamlKindName(value.Kind)))
	}
	// Mapping content alternates key, value nodes.
	if len(value.Content) != 2 {
		return NewMalformedConfigError(fmt.Sprintf("pipeline entry must have exactly one key, got %d", len(value.Content)/2))
	}

	keyNode, valueNode := value.Content[0], value.Content[1]

	var name string
	if err := keyNode.Decode(&name); err != nil {
		return NewMalformedConfigError("step name must be a string")
	}

	var args map[string]any
	if valueNode.Tag != "!!null" {
		if err := valueNode.Decode(&args); err != nil {
			return NewMalformedConfigError(fmt.Sprintf("arguments for step %q must be a mapping or null", name))
		}
	}

	d.Name = name
	d.Args = args
	return nil
}

// MarshalYAML encodes the descriptor back into its single-key mapping form.
func (d StepDescriptor) MarshalYAML() (any, error) {
	if len(d.Args) == 0 {
		return map[string]any{d.Name: nil}, nil
	}
	return map[string]any{d.Name: d.Args}, nil
}

func yamlKindName(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

// Spec is an ordered sequence of step descriptors. Order is significant and
// preserved exactly as declared; duplicate step names are permitted.
type Spec []StepDescriptor

// Equal reports whether two specs contain equal descriptors in the same order.
func (s Spec) Equal(other Spec) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !s[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Names returns the step names in declared order.
func (s Spec) Names() []string {
	names := make([]string, len(s))
	for i, d := range s {
		names[i] = d.Name
	}
	return names
}
