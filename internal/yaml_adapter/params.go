package yaml_adapter

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// LoadParams reads a parameters file: a flat mapping of name to value.
// Values may be scalars or lists of scalars. A missing file yields no
// parameters.
func LoadParams(path string) (map[string]cty.Value, error) {
	if path == "" {
		return map[string]cty.Value{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]cty.Value{}, nil
		}
		return nil, fmt.Errorf("params: read %s: %w", path, err)
	}
	return ParseParams(data, path)
}

// ParseParams decodes parameter YAML.
func ParseParams(data []byte, source string) (map[string]cty.Value, error) {
	params := map[string]cty.Value{}
	if len(bytes.TrimSpace(data)) == 0 {
		return params, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("params: decode %s: %w", source, err)
	}
	if len(doc.Content) == 0 {
		return params, nil
	}

	err := mappingPairs(doc.Content[0], func(key string, value *yaml.Node) error {
		v, err := paramValue(value)
		if err != nil {
			return fmt.Errorf("param %q: %w", key, err)
		}
		params[key] = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("params: %s: %w", source, err)
	}
	return params, nil
}

func paramValue(node *yaml.Node) (cty.Value, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return scalarToCty(node)
	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := paramValue(child)
			if err != nil {
				return cty.NilVal, err
			}
			vals = append(vals, v)
		}
		return cty.TupleVal(vals), nil
	case yaml.AliasNode:
		return paramValue(node.Alias)
	default:
		return cty.NilVal, fmt.Errorf("line %d: only scalars and lists are supported", node.Line)
	}
}
