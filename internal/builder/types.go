package builder

import (
	"github.com/specialistvlad/deploygrid/internal/action"
	"github.com/specialistvlad/deploygrid/internal/artifact"
)

// ModuleResult is the evaluated form of one module. It is created once per
// build and shared by every parent that uses the module.
type ModuleResult struct {
	ID string
	// Descriptors holds the module's own contracts and libraries by name.
	Descriptors map[string]*artifact.Descriptor
	// Actions holds the module's own actions in declaration order.
	Actions []*action.Action
	// Outputs maps exported names to resolved values.
	Outputs     map[string]artifact.Arg
	OutputOrder []string
}

// Graph is the result of a build: every action reachable from the root
// module, in global declaration order.
type Graph struct {
	Root    string
	Actions []*action.Action
	// Modules holds every evaluated module by id.
	Modules map[string]*ModuleResult

	byKey map[string]*action.Action
}

// Action returns the action with the given canonical id.
func (g *Graph) Action(key string) (*action.Action, bool) {
	a, ok := g.byKey[key]
	return a, ok
}

// RootOutputs returns the outputs of the root module.
func (g *Graph) RootOutputs() *ModuleResult {
	return g.Modules[g.Root]
}

// Deploys returns the deploy actions in declaration order.
func (g *Graph) Deploys() []*action.Action {
	var out []*action.Action
	for _, a := range g.Actions {
		if a.Deploy != nil {
			out = append(out, a)
		}
	}
	return out
}
