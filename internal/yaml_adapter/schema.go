package yaml_adapter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the root of a definition file.
type File struct {
	Modules []ModuleDef `yaml:"modules"`
}

// ModuleDef is one module.
type ModuleDef struct {
	ID      string    `yaml:"id"`
	Uses    []string  `yaml:"uses"`
	Items   []ItemDef `yaml:"items"`
	Outputs yaml.Node `yaml:"outputs"`
	Line    int       `yaml:"-"`
}

// ItemDef is a contract, library, call or grant entry. Exactly one of the
// kind keys must be set; it carries the item's label.
type ItemDef struct {
	Contract string `yaml:"contract"`
	Library  string `yaml:"library"`
	Call     string `yaml:"call"`
	Grant    string `yaml:"grant"`

	Artifact  string               `yaml:"artifact"`
	Args      []yaml.Node          `yaml:"args"`
	Libraries map[string]yaml.Node `yaml:"libraries"`

	Target     yaml.Node   `yaml:"target"`
	Function   string      `yaml:"function"`
	ID         string      `yaml:"id"`
	After      []yaml.Node `yaml:"after"`
	BestEffort bool        `yaml:"best_effort"`

	Grantor yaml.Node `yaml:"grantor"`
	Grantee yaml.Node `yaml:"grantee"`
	Role    yaml.Node `yaml:"role"`

	Line int `yaml:"-"`
}

// UnmarshalYAML records the item's line alongside its fields.
func (it *ItemDef) UnmarshalYAML(value *yaml.Node) error {
	type plain ItemDef
	if err := value.Decode((*plain)(it)); err != nil {
		return err
	}
	it.Line = value.Line
	return nil
}

// Kind returns which kind key is set.
func (it ItemDef) Kind() (string, string, error) {
	var kinds []string
	var kind, label string
	for _, candidate := range []struct{ kind, label string }{
		{"contract", it.Contract},
		{"library", it.Library},
		{"call", it.Call},
		{"grant", it.Grant},
	} {
		if strings.TrimSpace(candidate.label) != "" {
			kinds = append(kinds, candidate.kind)
			kind, label = candidate.kind, strings.TrimSpace(candidate.label)
		}
	}
	switch len(kinds) {
	case 0:
		return "", "", fmt.Errorf("item must set one of contract, library, call or grant")
	case 1:
		return kind, label, nil
	default:
		return "", "", fmt.Errorf("item sets more than one kind: %s", strings.Join(kinds, ", "))
	}
}

// Validate checks structural rules that the YAML decoder cannot express.
func (m ModuleDef) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("module id is required")
	}
	for i, item := range m.Items {
		kind, label, err := item.Kind()
		if err != nil {
			return fmt.Errorf("module %q item %d: %w", m.ID, i, err)
		}
		switch kind {
		case "call":
			if item.Target.IsZero() {
				return fmt.Errorf("module %q call %q: target is required", m.ID, label)
			}
		case "grant":
			if item.Grantor.IsZero() || item.Grantee.IsZero() || item.Role.IsZero() {
				return fmt.Errorf("module %q grant %q: grantor, grantee and role are required", m.ID, label)
			}
		}
	}
	if !m.Outputs.IsZero() && m.Outputs.Kind != yaml.MappingNode {
		return fmt.Errorf("module %q: outputs must be a mapping", m.ID)
	}
	return nil
}
