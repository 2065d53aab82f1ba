package yaml_adapter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/specialistvlad/deploygrid/internal/config"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a YAML module definition loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .yaml and .yml file under paths.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindAll(paths, ".yaml", ".yml")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered YAML files.", "count", len(files))

	model := &config.Model{}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("yaml: read %s: %w", path, err)
		}
		mods, err := ParseDefinitions(data, path)
		if err != nil {
			return nil, err
		}
		model.Modules = append(model.Modules, mods...)
	}

	logger.Debug("YAML loading complete.", "modules", len(model.Modules))
	return model, nil
}

// ParseDefinitions decodes one definition file. source is used in positions.
func ParseDefinitions(data []byte, source string) ([]*config.Module, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var root struct {
		Modules []yaml.Node `yaml:"modules"`
	}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("yaml: decode %s: %w", source, err)
	}

	mods := make([]*config.Module, 0, len(root.Modules))
	for i := range root.Modules {
		node := &root.Modules[i]
		var def ModuleDef
		if err := node.Decode(&def); err != nil {
			return nil, fmt.Errorf("yaml: %s:%d: %w", source, node.Line, err)
		}
		def.Line = node.Line
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("yaml: %s:%d: %w", source, node.Line, err)
		}
		mod, err := translateModule(def, source)
		if err != nil {
			return nil, fmt.Errorf("yaml: %w", err)
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

func translateModule(def ModuleDef, source string) (*config.Module, error) {
	mod := &config.Module{
		ID:     strings.TrimSpace(def.ID),
		Uses:   def.Uses,
		Source: fmt.Sprintf("%s:%d", source, def.Line),
	}

	for _, item := range def.Items {
		kind, label, _ := item.Kind()
		itemSource := fmt.Sprintf("%s:%d", source, item.Line)

		args, err := nodesToValues(item.Args, source)
		if err != nil {
			return nil, err
		}
		after, err := nodesToValues(item.After, source)
		if err != nil {
			return nil, err
		}

		switch kind {
		case "contract", "library":
			libs := make(map[string]config.Value, len(item.Libraries))
			for slot, node := range item.Libraries {
				v, err := nodeToValue(&node, source)
				if err != nil {
					return nil, err
				}
				libs[slot] = v
			}
			deployKind := config.DeployContract
			if kind == "library" {
				deployKind = config.DeployLibrary
			}
			mod.Items = append(mod.Items, &config.Deployable{
				Kind:      deployKind,
				Name:      label,
				Artifact:  item.Artifact,
				Args:      args,
				Libraries: libs,
				Source:    itemSource,
			})
		case "call":
			target, err := nodeToValue(&item.Target, source)
			if err != nil {
				return nil, err
			}
			mod.Items = append(mod.Items, &config.Call{
				Label:      label,
				Function:   item.Function,
				Target:     target,
				Args:       args,
				ID:         item.ID,
				After:      after,
				BestEffort: item.BestEffort,
				Source:     itemSource,
			})
		case "grant":
			grantor, err := nodeToValue(&item.Grantor, source)
			if err != nil {
				return nil, err
			}
			grantee, err := nodeToValue(&item.Grantee, source)
			if err != nil {
				return nil, err
			}
			role, err := nodeToValue(&item.Role, source)
			if err != nil {
				return nil, err
			}
			mod.Items = append(mod.Items, &config.Grant{
				Tag:        label,
				Grantor:    grantor,
				Grantee:    grantee,
				Role:       role,
				Function:   item.Function,
				After:      after,
				BestEffort: item.BestEffort,
				Source:     itemSource,
			})
		}
	}

	if !def.Outputs.IsZero() {
		mod.Outputs = make(map[string]config.Value)
		err := mappingPairs(&def.Outputs, func(key string, value *yaml.Node) error {
			if _, dup := mod.Outputs[key]; dup {
				return fmt.Errorf("%s:%d: duplicate output %q", source, value.Line, key)
			}
			v, err := nodeToValue(value, source)
			if err != nil {
				return err
			}
			mod.Outputs[key] = v
			mod.OutputOrder = append(mod.OutputOrder, key)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return mod, nil
}
