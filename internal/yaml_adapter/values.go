package yaml_adapter

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/deploygrid/internal/config"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// RefPrefix marks a string scalar as a reference.
const RefPrefix = "ref:"

// nodeToValue converts a YAML node into a config.Value.
func nodeToValue(node *yaml.Node, source string) (config.Value, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!str" && strings.HasPrefix(node.Value, RefPrefix) {
			ref, err := config.ParseReference(strings.TrimPrefix(node.Value, RefPrefix), fmt.Sprintf("%s:%d", source, node.Line))
			if err != nil {
				return config.Value{}, err
			}
			return config.RefValue(ref), nil
		}
		val, err := scalarToCty(node)
		if err != nil {
			return config.Value{}, fmt.Errorf("%s:%d: %w", source, node.Line, err)
		}
		return config.LiteralValue(val), nil
	case yaml.SequenceNode:
		items := make([]config.Value, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := nodeToValue(child, source)
			if err != nil {
				return config.Value{}, err
			}
			items = append(items, v)
		}
		return config.ListValue(items...), nil
	case yaml.AliasNode:
		return nodeToValue(node.Alias, source)
	default:
		return config.Value{}, fmt.Errorf("%s:%d: unsupported value (mappings are not allowed here)", source, node.Line)
	}
}

// nodesToValues converts a list of nodes.
func nodesToValues(nodes []yaml.Node, source string) ([]config.Value, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]config.Value, 0, len(nodes))
	for i := range nodes {
		v, err := nodeToValue(&nodes[i], source)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// scalarToCty maps YAML core schema tags onto cty primitives.
func scalarToCty(node *yaml.Node) (cty.Value, error) {
	switch node.Tag {
	case "!!null":
		return cty.NullVal(cty.DynamicPseudoType), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return cty.NilVal, err
		}
		return cty.BoolVal(b), nil
	case "!!int", "!!float":
		// Hex literals are addresses or keys, not quantities.
		if strings.HasPrefix(strings.ToLower(node.Value), "0x") {
			return cty.StringVal(node.Value), nil
		}
		v, err := cty.ParseNumberVal(node.Value)
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid number %q: %w", node.Value, err)
		}
		return v, nil
	default:
		return cty.StringVal(node.Value), nil
	}
}

// mappingPairs walks a mapping node in document order.
func mappingPairs(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}
