package dag

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/deploygrid/internal/action"
)

// Plan is the scheduled form of a build: the actions in execution order and
// the graph they came from.
type Plan struct {
	Actions []*action.Action
	Graph   *Graph

	byKey map[string]*action.Action
}

// Action returns the action with the given canonical id.
func (p *Plan) Action(key string) (*action.Action, bool) {
	a, ok := p.byKey[key]
	return a, ok
}

// Schedule builds the dependency graph of actions and orders it. Every
// dependency must itself be one of the actions. Actions already completed in
// a journal are not treated specially here: they keep their natural position
// and the executor reuses their result when it reaches them.
func Schedule(actions []*action.Action) (*Plan, error) {
	g := New()
	byKey := make(map[string]*action.Action, len(actions))
	for _, a := range actions {
		key := a.Key()
		if _, dup := byKey[key]; dup {
			return nil, fmt.Errorf("action %s appears twice in the plan", key)
		}
		byKey[key] = a
		g.AddNode(key, a.Order)
	}

	for _, a := range actions {
		for _, dep := range a.DependsOn {
			if err := g.AddEdge(dep.String(), a.Key()); err != nil {
				var cycle *CycleDetectedError
				if errors.As(err, &cycle) {
					return nil, err
				}
				return nil, fmt.Errorf("action %s: %w", a.Key(), err)
			}
		}
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	plan := &Plan{Graph: g, byKey: byKey, Actions: make([]*action.Action, len(order))}
	for i, key := range order {
		plan.Actions[i] = byKey[key]
	}
	return plan, nil
}
