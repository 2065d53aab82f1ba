// Package action defines the unit of work the executor performs: deploying a
// descriptor or calling a function on a deployed instance.
package action

import (
	"fmt"

	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/specialistvlad/deploygrid/internal/artifact"
)

// Action is a single vertex of the deployment graph.
type Action struct {
	// ID is the structured, deterministic identity of the action.
	ID actionid.ID
	// Deploy holds the descriptor to deploy. It is nil for calls.
	Deploy *artifact.Descriptor
	// Call holds the call to make. It is nil for deploys.
	Call *Call

	// DependsOn lists the actions whose completion is a precondition, in
	// first-reference order without duplicates.
	DependsOn []actionid.ID
	// BestEffort actions do not abort the run when they fail; their
	// dependents are skipped instead.
	BestEffort bool
	// Order is the global declaration sequence, used to break ties.
	Order int
	// Source points at the declaration, e.g. "modules/router.hcl:12".
	Source string
}

// Call is a function invocation on a deployed instance.
type Call struct {
	// Target is the deploy action whose address receives the call.
	Target   actionid.ID
	Function string
	Args     []artifact.Arg
	// Grant is set when the call was compiled from a role grant.
	Grant *Grant
}

// Grant records where a grantRole call came from.
type Grant struct {
	Grantor actionid.ID
	Grantee actionid.ID
	Role    string
	RoleKey string
}

// Kind returns the action kind.
func (a *Action) Kind() actionid.Kind {
	return a.ID.Kind
}

// Key returns the canonical id string.
func (a *Action) Key() string {
	return a.ID.String()
}

// Describe renders a one-line summary for plans and logs.
func (a *Action) Describe() string {
	switch {
	case a.Deploy != nil:
		return fmt.Sprintf("deploy %s %s", a.Deploy.Kind, a.Deploy.ArtifactName())
	case a.Call != nil && a.Call.Grant != nil:
		return fmt.Sprintf("grant %s to %s on %s", a.Call.Grant.Role, a.Call.Grant.Grantee, a.Call.Grant.Grantor)
	case a.Call != nil:
		return fmt.Sprintf("call %s on %s", a.Call.Function, a.Call.Target)
	default:
		return "invalid action"
	}
}

// AddDependency records dep unless it is already present or is the action
// itself.
func (a *Action) AddDependency(dep actionid.ID) {
	if dep.Equal(a.ID) {
		return
	}
	for _, existing := range a.DependsOn {
		if existing.Equal(dep) {
			return
		}
	}
	a.DependsOn = append(a.DependsOn, dep)
}
