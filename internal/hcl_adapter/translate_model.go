// This file translates decoded HCL blocks into the format-agnostic
// configuration model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/deploygrid/internal/config"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
)

// translateModule converts one `module` block.
func (l *Loader) translateModule(ctx context.Context, block *hcl.Block) (*config.Module, error) {
	id := block.Labels[0]
	logger := ctxlog.FromContext(ctx).With("module", id)
	ctx = ctxlog.WithLogger(ctx, logger)

	content, diags := block.Body.Content(moduleSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("module %q: %w", id, diags)
	}

	mod := &config.Module{
		ID:     id,
		Source: pos(block.DefRange),
	}

	if attr, ok := content.Attributes["uses"]; ok {
		uses, err := l.exprToStrings(ctx, attr.Expr, "uses")
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", id, err)
		}
		mod.Uses = uses
	}
	if attr, ok := content.Attributes["outputs"]; ok {
		outputs, order, err := l.exprToValueMap(ctx, attr.Expr, "outputs")
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", id, err)
		}
		mod.Outputs, mod.OutputOrder = outputs, order
	}

	for _, b := range content.Blocks {
		var (
			item config.Item
			err  error
		)
		switch b.Type {
		case "contract":
			item, err = l.translateDeployable(ctx, b, config.DeployContract)
		case "library":
			item, err = l.translateDeployable(ctx, b, config.DeployLibrary)
		case "call":
			item, err = l.translateCall(ctx, b)
		case "grant":
			item, err = l.translateGrant(ctx, b)
		}
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", id, err)
		}
		mod.Items = append(mod.Items, item)
	}

	logger.Debug("Translated HCL module.", "uses", len(mod.Uses), "items", len(mod.Items), "outputs", len(mod.OutputOrder))
	return mod, nil
}

func (l *Loader) translateDeployable(ctx context.Context, b *hcl.Block, kind config.DeployKind) (*config.Deployable, error) {
	var body DeployableBlock
	if diags := gohcl.DecodeBody(b.Body, l.evalCtx, &body); diags.HasErrors() {
		return nil, fmt.Errorf("%s %q: %w", kind, b.Labels[0], diags)
	}

	args, err := l.exprToValueList(ctx, body.Args, "args")
	if err != nil {
		return nil, err
	}
	libs, _, err := l.exprToValueMap(ctx, body.Libraries, "libraries")
	if err != nil {
		return nil, err
	}

	return &config.Deployable{
		Kind:      kind,
		Name:      b.Labels[0],
		Artifact:  derefString(body.Artifact),
		Args:      args,
		Libraries: libs,
		Source:    pos(b.DefRange),
	}, nil
}

func (l *Loader) translateCall(ctx context.Context, b *hcl.Block) (*config.Call, error) {
	var body CallBlock
	if diags := gohcl.DecodeBody(b.Body, l.evalCtx, &body); diags.HasErrors() {
		return nil, fmt.Errorf("call %q: %w", b.Labels[0], diags)
	}

	target, err := l.exprToValue(ctx, body.Target)
	if err != nil {
		return nil, err
	}
	args, err := l.exprToValueList(ctx, body.Args, "args")
	if err != nil {
		return nil, err
	}
	after, err := l.exprToValueList(ctx, body.After, "after")
	if err != nil {
		return nil, err
	}

	return &config.Call{
		Label:      b.Labels[0],
		Function:   derefString(body.Function),
		Target:     target,
		Args:       args,
		ID:         derefString(body.ID),
		After:      after,
		BestEffort: derefBool(body.BestEffort),
		Source:     pos(b.DefRange),
	}, nil
}

func (l *Loader) translateGrant(ctx context.Context, b *hcl.Block) (*config.Grant, error) {
	var body GrantBlock
	if diags := gohcl.DecodeBody(b.Body, l.evalCtx, &body); diags.HasErrors() {
		return nil, fmt.Errorf("grant %q: %w", b.Labels[0], diags)
	}

	grantor, err := l.exprToValue(ctx, body.Grantor)
	if err != nil {
		return nil, err
	}
	grantee, err := l.exprToValue(ctx, body.Grantee)
	if err != nil {
		return nil, err
	}
	role, err := l.exprToValue(ctx, body.Role)
	if err != nil {
		return nil, err
	}
	after, err := l.exprToValueList(ctx, body.After, "after")
	if err != nil {
		return nil, err
	}

	return &config.Grant{
		Tag:        b.Labels[0],
		Grantor:    grantor,
		Grantee:    grantee,
		Role:       role,
		Function:   derefString(body.Function),
		After:      after,
		BestEffort: derefBool(body.BestEffort),
		Source:     pos(b.DefRange),
	}, nil
}
