package roles

import (
	"fmt"

	"github.com/specialistvlad/deploygrid/internal/action"
	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/specialistvlad/deploygrid/internal/artifact"
	"github.com/zclconf/go-cty/cty"
)

// DefaultFunction is called on the grantor when a grant names no function.
const DefaultFunction = "grantRole"

// Grant is a resolved `(grantor, grantee, role)` declaration.
type Grant struct {
	// Grantor and Grantee are deploy actions.
	Grantor    actionid.ID
	Grantee    actionid.ID
	Role       string
	Function   string
	After      []actionid.ID
	BestEffort bool
	Order      int
	Source     string
}

// MissingTagError is returned for a grant without an explicit tag.
type MissingTagError struct {
	Source string
}

func (e *MissingTagError) Error() string {
	return fmt.Sprintf("%s: grant requires an explicit tag", e.Source)
}

// Allocate reserves the action id of a grant. The tag is required so that
// grants stay stable when declarations are reordered.
func Allocate(alloc *actionid.Allocator, tag, grantor, function, source string) (actionid.ID, error) {
	if tag == "" {
		return actionid.ID{}, &MissingTagError{Source: source}
	}
	if function == "" {
		function = DefaultFunction
	}
	return alloc.Call(grantor, function, tag)
}

// Compile turns a grant into the Call action id on the grantor. The action
// depends on both the grantor and the grantee deployments.
func Compile(id actionid.ID, g Grant) (*action.Action, error) {
	if id.Kind != actionid.KindCall {
		return nil, fmt.Errorf("%s: grant %s must be allocated as a call", g.Source, id)
	}
	key, err := Resolve(g.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.Source, err)
	}
	function := g.Function
	if function == "" {
		function = DefaultFunction
	}

	act := &action.Action{
		ID: id,
		Call: &action.Call{
			Target:   g.Grantor,
			Function: function,
			Args: []artifact.Arg{
				artifact.ActionResult(g.Grantee),
				artifact.Literal(cty.StringVal(key.Hex())),
			},
			Grant: &action.Grant{
				Grantor: g.Grantor,
				Grantee: g.Grantee,
				Role:    g.Role,
				RoleKey: key.Hex(),
			},
		},
		BestEffort: g.BestEffort,
		Order:      g.Order,
		Source:     g.Source,
	}
	act.AddDependency(g.Grantor)
	act.AddDependency(g.Grantee)
	for _, dep := range g.After {
		act.AddDependency(dep)
	}
	return act, nil
}
