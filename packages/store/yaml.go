package store

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
)

// ExportEnvironmentYAML writes e as
//
//	name: dev
//	variables:
//	  - key: baseUrl
//	    value: http://localhost:8080
//
// Global and active flags belong to the workspace and are not exported.
func ExportEnvironmentYAML(w io.Writer, e *env.Environment) error {
	out := env.Environment{Name: e.Name, Variables: e.Variables}
	if out.Variables == nil {
		out.Variables = []env.Variable{}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to marshal environment: %w", err)
	}
	return enc.Close()
}

// ImportEnvironmentYAML reads an environment in the exported layout, or a
// flat mapping of variable names to values with an optional name key:
//
//	name: dev
//	baseUrl: http://localhost:8080
//	token: abc
//
// Flat mappings keep the order of the file.
func ImportEnvironmentYAML(r io.Reader) (*env.Environment, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse environment YAML: empty document")
		}
		return nil, fmt.Errorf("failed to parse environment YAML: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("failed to parse environment YAML: expected a mapping")
	}
	root := doc.Content[0]

	if hasKey(root, "variables") {
		var e env.Environment
		if err := root.Decode(&e); err != nil {
			return nil, fmt.Errorf("failed to parse environment YAML: %w", err)
		}
		imported := env.NewEnvironment(e.Name)
		imported.Import(e.Variables)
		return imported, nil
	}

	imported := &env.Environment{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("failed to parse environment YAML: %q is not a scalar (line %d)", key.Value, value.Line)
		}
		if key.Value == "name" {
			imported.Name = value.Value
			continue
		}
		imported.Set(key.Value, value.Value)
	}
	return imported, nil
}

func hasKey(mapping *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return true
		}
	}
	return false
}
