package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/deploygrid/internal/action"
	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/specialistvlad/deploygrid/internal/artifact"
	"github.com/specialistvlad/deploygrid/internal/config"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/roles"
	"github.com/zclconf/go-cty/cty"
)

// local is a contract or library declared by the module being evaluated.
type local struct {
	id   actionid.ID
	kind config.DeployKind
}

// scope holds what a module's declarations can refer to.
type scope struct {
	b       *Builder
	mod     *config.Module
	deploys map[string]local
	calls   map[string]actionid.ID
}

func (b *Builder) evaluateModule(ctx context.Context, mod *config.Module) (*ModuleResult, error) {
	logger := ctxlog.FromContext(ctx).With("module", mod.ID)
	logger.Debug("Evaluating module.", "uses", mod.Uses)

	for _, sub := range mod.Uses {
		if _, err := b.Evaluate(ctx, sub); err != nil {
			return nil, err
		}
	}

	alloc, err := actionid.NewAllocator(mod.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", mod.Source, err)
	}

	sc := &scope{
		b:       b,
		mod:     mod,
		deploys: make(map[string]local),
		calls:   make(map[string]actionid.ID),
	}

	// First pass: ids only, so later declarations can be referenced.
	ids := make([]actionid.ID, len(mod.Items))
	for i, item := range mod.Items {
		var id actionid.ID
		switch it := item.(type) {
		case *config.Deployable:
			id, err = alloc.Deploy(it.Name)
			if err == nil {
				sc.deploys[it.Name] = local{id: id, kind: it.Kind}
			}
		case *config.Call:
			id, err = alloc.Call(targetName(it.Target), it.FunctionSignature(), it.ID)
			if err == nil {
				sc.calls[id.Tag] = id
			}
		case *config.Grant:
			id, err = roles.Allocate(alloc, it.Tag, targetName(it.Grantor), it.Function, it.Source)
			if err == nil {
				sc.calls[id.Tag] = id
			}
		default:
			err = fmt.Errorf("unsupported declaration %T", item)
		}
		if err != nil {
			var dup *actionid.DuplicateError
			if errors.As(err, &dup) {
				return nil, &DuplicateActionError{ID: dup.ID, Source: item.Pos()}
			}
			return nil, fmt.Errorf("%s: %w", item.Pos(), err)
		}
		ids[i] = id
	}

	res := &ModuleResult{
		ID:          mod.ID,
		Descriptors: make(map[string]*artifact.Descriptor),
		Outputs:     make(map[string]artifact.Arg),
	}

	// Second pass: resolve and number in declaration order.
	for i, item := range mod.Items {
		var act *action.Action
		switch it := item.(type) {
		case *config.Deployable:
			act, err = sc.buildDeploy(ids[i], it)
		case *config.Call:
			act, err = sc.buildCall(ids[i], it)
		case *config.Grant:
			act, err = sc.buildGrant(ids[i], it)
		}
		if err != nil {
			return nil, err
		}

		act.Order = b.seq
		b.seq++
		b.actions = append(b.actions, act)
		b.byKey[act.Key()] = act
		res.Actions = append(res.Actions, act)
		if act.Deploy != nil {
			res.Descriptors[act.Deploy.Name] = act.Deploy
		}
	}

	for _, name := range mod.OutputOrder {
		arg, err := sc.resolve(mod.Outputs[name])
		if err != nil {
			return nil, err
		}
		res.Outputs[name] = arg
		res.OutputOrder = append(res.OutputOrder, name)
	}

	logger.Debug("Module evaluated.", "actions", len(res.Actions), "outputs", len(res.OutputOrder))
	return res, nil
}

func (s *scope) buildDeploy(id actionid.ID, d *config.Deployable) (*action.Action, error) {
	desc := &artifact.Descriptor{
		Name:     d.Name,
		Module:   s.mod.ID,
		Kind:     artifact.Kind(d.Kind),
		Artifact: d.Artifact,
	}

	for _, v := range d.Args {
		arg, err := s.resolve(v)
		if err != nil {
			return nil, err
		}
		desc.Args = append(desc.Args, arg)
	}

	if len(d.Libraries) > 0 {
		desc.Libraries = make(map[string]actionid.ID, len(d.Libraries))
		for _, slot := range sortedKeys(d.Libraries) {
			v := d.Libraries[slot]
			libID, err := s.deployTarget(v, fmt.Sprintf("library slot %q", slot))
			if err != nil {
				return nil, err
			}
			if kind := s.deployKindOf(libID); kind != config.DeployLibrary {
				return nil, s.unresolved(v, fmt.Sprintf("library slot %q must reference a library, got a %s", slot, kind), d.Source)
			}
			desc.Libraries[slot] = libID
		}
	}

	act := &action.Action{ID: id, Deploy: desc, Source: d.Source}
	for _, dep := range desc.Dependencies() {
		act.AddDependency(dep)
	}
	return act, nil
}

func (s *scope) buildCall(id actionid.ID, c *config.Call) (*action.Action, error) {
	target, err := s.deployTarget(c.Target, "call target")
	if err != nil {
		return nil, err
	}

	call := &action.Call{Target: target, Function: c.FunctionSignature()}
	for _, v := range c.Args {
		arg, err := s.resolve(v)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
	}

	act := &action.Action{ID: id, Call: call, BestEffort: c.BestEffort, Source: c.Source}
	act.AddDependency(target)
	for _, arg := range call.Args {
		for _, dep := range arg.Dependencies() {
			act.AddDependency(dep)
		}
	}
	after, err := s.resolveAfter(c.After)
	if err != nil {
		return nil, err
	}
	for _, dep := range after {
		act.AddDependency(dep)
	}
	return act, nil
}

func (s *scope) buildGrant(id actionid.ID, g *config.Grant) (*action.Action, error) {
	grantor, err := s.deployTarget(g.Grantor, "grantor")
	if err != nil {
		return nil, err
	}
	grantee, err := s.deployTarget(g.Grantee, "grantee")
	if err != nil {
		return nil, err
	}

	roleArg, err := s.resolve(g.Role)
	if err != nil {
		return nil, err
	}
	if roleArg.Kind != artifact.ArgLiteral || roleArg.Literal.IsNull() || !roleArg.Literal.Type().Equals(cty.String) {
		return nil, fmt.Errorf("%s: grant %q: role must be a string", g.Source, g.Tag)
	}

	after, err := s.resolveAfter(g.After)
	if err != nil {
		return nil, err
	}

	return roles.Compile(id, roles.Grant{
		Grantor:    grantor,
		Grantee:    grantee,
		Role:       roleArg.Literal.AsString(),
		Function:   g.Function,
		After:      after,
		BestEffort: g.BestEffort,
		Source:     g.Source,
	})
}

// targetName is the name used in implicit call tags: the last meaningful
// segment of the target reference.
func targetName(v config.Value) string {
	if v.Kind != config.ValueRef || v.Ref == nil {
		return "target"
	}
	if v.Ref.Root == config.RefModule {
		return v.Ref.Attr
	}
	return v.Ref.Name
}
