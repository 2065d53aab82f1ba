package builder

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/specialistvlad/deploygrid/internal/artifact"
	"github.com/specialistvlad/deploygrid/internal/config"
)

// resolve converts a config value into an artifact arg within the module's
// scope.
func (s *scope) resolve(v config.Value) (artifact.Arg, error) {
	switch v.Kind {
	case config.ValueRef:
		return s.resolveRef(v.Ref)
	case config.ValueList:
		items := make([]artifact.Arg, 0, len(v.Items))
		for _, item := range v.Items {
			arg, err := s.resolve(item)
			if err != nil {
				return artifact.Arg{}, err
			}
			items = append(items, arg)
		}
		return artifact.List(items...), nil
	default:
		return artifact.Literal(v.Literal), nil
	}
}

func (s *scope) resolveRef(ref *config.Reference) (artifact.Arg, error) {
	switch ref.Root {
	case config.RefContract, config.RefLibrary:
		l, ok := s.deploys[ref.Name]
		if !ok {
			return artifact.Arg{}, s.unresolvedRef(ref, fmt.Sprintf("no %s named %q in this module", ref.Root, ref.Name))
		}
		if string(l.kind) != string(ref.Root) {
			return artifact.Arg{}, s.unresolvedRef(ref, fmt.Sprintf("%q is a %s", ref.Name, l.kind))
		}
		return artifact.ActionResult(l.id), nil

	case config.RefCall:
		id, ok := s.calls[ref.Name]
		if !ok {
			return artifact.Arg{}, s.unresolvedRef(ref, fmt.Sprintf("no call tagged %q in this module", ref.Name))
		}
		return artifact.ActionResult(id), nil

	case config.RefModule:
		if !contains(s.mod.Uses, ref.Name) {
			return artifact.Arg{}, s.unresolvedRef(ref, fmt.Sprintf("module %q is not listed in uses", ref.Name))
		}
		sub, ok := s.b.memo[ref.Name]
		if !ok {
			return artifact.Arg{}, s.unresolvedRef(ref, fmt.Sprintf("module %q has not been evaluated", ref.Name))
		}
		out, ok := sub.Outputs[ref.Attr]
		if !ok {
			return artifact.Arg{}, s.unresolvedRef(ref, fmt.Sprintf("module %q has no output %q", ref.Name, ref.Attr))
		}
		return out, nil

	case config.RefParam:
		v, ok := s.b.params[ref.Name]
		if !ok {
			return artifact.Arg{}, s.unresolvedRef(ref, "parameter not supplied")
		}
		return artifact.Literal(v), nil

	default:
		return artifact.Arg{}, s.unresolvedRef(ref, "unknown reference root")
	}
}

// deployTarget resolves v and requires it to name a deploy action.
func (s *scope) deployTarget(v config.Value, what string) (actionid.ID, error) {
	arg, err := s.resolve(v)
	if err != nil {
		return actionid.ID{}, err
	}
	if arg.Kind != artifact.ArgAction || arg.Action.Kind != actionid.KindDeploy {
		return actionid.ID{}, s.unresolved(v, fmt.Sprintf("%s must reference a deployed contract or library", what), s.mod.Source)
	}
	return arg.Action, nil
}

// resolveAfter resolves extra ordering references; each must name an action.
func (s *scope) resolveAfter(values []config.Value) ([]actionid.ID, error) {
	var out []actionid.ID
	for _, v := range values {
		arg, err := s.resolve(v)
		if err != nil {
			return nil, err
		}
		if arg.Kind != artifact.ArgAction {
			return nil, s.unresolved(v, "after must reference an action", s.mod.Source)
		}
		out = append(out, arg.Action)
	}
	return out, nil
}

// deployKindOf reports whether a deploy action deploys a contract or a library.
func (s *scope) deployKindOf(id actionid.ID) config.DeployKind {
	if id.Module == s.mod.ID {
		return s.deploys[id.Tag].kind
	}
	if act, ok := s.b.byKey[id.String()]; ok && act.Deploy != nil {
		return config.DeployKind(act.Deploy.Kind)
	}
	return ""
}

func (s *scope) unresolvedRef(ref *config.Reference, reason string) error {
	return &UnresolvedReferenceError{
		Module:    s.mod.ID,
		Reference: ref.String(),
		Source:    ref.Source,
		Reason:    reason,
	}
}

func (s *scope) unresolved(v config.Value, reason, fallbackSource string) error {
	if v.Kind == config.ValueRef && v.Ref != nil {
		return s.unresolvedRef(v.Ref, reason)
	}
	return &UnresolvedReferenceError{
		Module:    s.mod.ID,
		Reference: v.String(),
		Source:    fallbackSource,
		Reason:    reason,
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
