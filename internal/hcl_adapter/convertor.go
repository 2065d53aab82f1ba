package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/deploygrid/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// exprToValue converts an attribute expression into a config.Value without
// resolving any reference.
func (l *Loader) exprToValue(ctx context.Context, expr hcl.Expression) (config.Value, error) {
	if traversal, diags := hcl.AbsTraversalForExpr(expr); !diags.HasErrors() {
		ref, err := traversalToReference(traversal)
		if err != nil {
			return config.Value{}, err
		}
		return config.RefValue(ref), nil
	}

	if items, diags := hcl.ExprList(expr); !diags.HasErrors() {
		values := make([]config.Value, 0, len(items))
		for _, item := range items {
			v, err := l.exprToValue(ctx, item)
			if err != nil {
				return config.Value{}, err
			}
			values = append(values, v)
		}
		return config.ListValue(values...), nil
	}

	val, diags := expr.Value(l.evalCtx)
	if diags.HasErrors() {
		return config.Value{}, fmt.Errorf("%s: invalid value: %w", pos(expr.Range()), diags)
	}
	return config.LiteralValue(val), nil
}

// exprToValueList converts an optional list attribute.
func (l *Loader) exprToValueList(ctx context.Context, expr hcl.Expression, attrName string) ([]config.Value, error) {
	if !isExprDefined(ctx, expr, attrName) {
		return nil, nil
	}
	items, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%s: %q must be a list: %w", pos(expr.Range()), attrName, diags)
	}
	values := make([]config.Value, 0, len(items))
	for _, item := range items {
		v, err := l.exprToValue(ctx, item)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// exprToValueMap converts an optional object attribute, returning the keys
// in source order alongside the values.
func (l *Loader) exprToValueMap(ctx context.Context, expr hcl.Expression, attrName string) (map[string]config.Value, []string, error) {
	if !isExprDefined(ctx, expr, attrName) {
		return nil, nil, nil
	}
	pairs, diags := hcl.ExprMap(expr)
	if diags.HasErrors() {
		return nil, nil, fmt.Errorf("%s: %q must be an object: %w", pos(expr.Range()), attrName, diags)
	}

	values := make(map[string]config.Value, len(pairs))
	order := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		key := hcl.ExprAsKeyword(pair.Key)
		if key == "" {
			var s string
			if diags := gohcl.DecodeExpression(pair.Key, l.evalCtx, &s); diags.HasErrors() {
				return nil, nil, fmt.Errorf("%s: %q keys must be names or strings: %w", pos(pair.Key.Range()), attrName, diags)
			}
			key = s
		}
		if _, dup := values[key]; dup {
			return nil, nil, fmt.Errorf("%s: duplicate key %q in %q", pos(pair.Key.Range()), key, attrName)
		}
		v, err := l.exprToValue(ctx, pair.Value)
		if err != nil {
			return nil, nil, err
		}
		values[key] = v
		order = append(order, key)
	}
	return values, order, nil
}

// exprToStrings decodes an optional list of plain strings.
func (l *Loader) exprToStrings(ctx context.Context, expr hcl.Expression, attrName string) ([]string, error) {
	if !isExprDefined(ctx, expr, attrName) {
		return nil, nil
	}
	var out []string
	if diags := gohcl.DecodeExpression(expr, l.evalCtx, &out); diags.HasErrors() {
		return nil, fmt.Errorf("%s: %q must be a list of strings: %w", pos(expr.Range()), attrName, diags)
	}
	return out, nil
}

// traversalToReference maps `a.b.c` onto a config.Reference. Index steps are
// not part of the reference grammar.
func traversalToReference(traversal hcl.Traversal) (*config.Reference, error) {
	source := pos(traversal.SourceRange())
	segments := make([]string, 0, len(traversal))
	for _, step := range traversal {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			segments = append(segments, s.Name)
		case hcl.TraverseAttr:
			segments = append(segments, s.Name)
		case hcl.TraverseIndex:
			if s.Key.Type().Equals(cty.String) {
				segments = append(segments, s.Key.AsString())
				continue
			}
			return nil, fmt.Errorf("%s: numeric index is not allowed in references", source)
		default:
			return nil, fmt.Errorf("%s: unsupported reference step", source)
		}
	}
	return config.NewReference(segments, source)
}
