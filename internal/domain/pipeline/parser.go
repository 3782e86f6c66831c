package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// SpecKey is the fixed top-level configuration key holding the step list.
const SpecKey = "pipeline"

// ParseSpec parses a YAML document of the form:
//
//	pipeline:
//	  - <step_name>: {<argument_name>: <argument_value>}
//	  - <step_name>: null
//
// Order is preserved exactly as given.
func ParseSpec(data []byte) (Spec, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewMalformedConfigError("configuration is not a YAML mapping").WithSuggestion(
			"The document must be a mapping with a top-level 'pipeline' key.")
	}

	node, ok := doc[SpecKey]
	if !ok {
		return nil, NewMalformedConfigError(fmt.Sprintf("missing top-level %q key", SpecKey))
	}

	var spec Spec
	if err := node.Decode(&spec); err != nil {
		if pe := AsError(err); pe != nil {
			return nil, pe
		}
		return nil, NewMalformedConfigError(fmt.Sprintf("%q must be a list of single-key mappings", SpecKey))
	}
	return spec, nil
}

// ParseSpecTOML parses the TOML rendition of a pipeline spec:
//
//	[[pipeline]]
//	[pipeline.<step_name>]
//	<argument_name> = <argument_value>
//
// Steps without arguments use an empty inline table: <step_name> = {}.
func ParseSpecTOML(data []byte) (Spec, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, NewMalformedConfigError("configuration is not a TOML document").WithSuggestion(
			"The document must contain a [[pipeline]] array of tables.")
	}

	raw, ok := doc[SpecKey]
	if !ok {
		return nil, NewMalformedConfigError(fmt.Sprintf("missing top-level %q key", SpecKey))
	}

	entries, ok := raw.([]map[string]any)
	if !ok {
		// toml.Unmarshal into map[string]any yields []map[string]any for
		// arrays of tables, but guard against inline-array forms too.
		list, listOK := raw.([]any)
		if !listOK {
			return nil, NewMalformedConfigError(fmt.Sprintf("%q must be an array of tables", SpecKey))
		}
		entries = make([]map[string]any, 0, len(list))
		for _, item := range list {
			entry, entryOK := item.(map[string]any)
			if !entryOK {
				return nil, NewMalformedConfigError(fmt.Sprintf("%q must be an array of tables", SpecKey))
			}
			entries = append(entries, entry)
		}
	}

	return SpecFromSettings(entries)
}

// SpecFromSettings normalizes the in-memory form: an ordered sequence of
// single-key mappings where the value is either nil or the argument mapping.
func SpecFromSettings(settings []map[string]any) (Spec, error) {
	spec := make(Spec, 0, len(settings))
	for i, setting := range settings {
		if len(setting) != 1 {
			return nil, NewMalformedConfigError(
				fmt.Sprintf("entry %d must have exactly one key, got %d", i, len(setting)))
		}
		for name, raw := range setting {
			args, err := normalizeArgs(name, raw)
			if err != nil {
				return nil, err
			}
			spec = append(spec, StepDescriptor{Name: name, Args: args})
		}
	}
	return spec, nil
}

func normalizeArgs(name string, raw any) (map[string]any, error) {
	if raw == nil {
		return nil, nil
	}
	args, ok := raw.(map[string]any)
	if !ok {
		return nil, NewMalformedConfigError(
			fmt.Sprintf("arguments for step %q must be a mapping or null", name))
	}
	if len(args) == 0 {
		return nil, nil
	}
	return args, nil
}

// LoadSpec reads a pipeline spec from a configuration file. The format is
// chosen by extension: .yaml/.yml or .toml.
func LoadSpec(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigParseError(path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		spec, err := ParseSpecTOML(data)
		if err != nil {
			return nil, withPath(err, path)
		}
		return spec, nil
	case ".yaml", ".yml", "":
		spec, err := ParseSpec(data)
		if err != nil {
			return nil, withPath(err, path)
		}
		return spec, nil
	default:
		return nil, NewMalformedConfigError(
			fmt.Sprintf("unsupported configuration format %q", filepath.Ext(path))).WithContext(path)
	}
}

func withPath(err error, path string) error {
	if pe := AsError(err); pe != nil && pe.Context == "" {
		return pe.WithContext(path)
	}
	return err
}
