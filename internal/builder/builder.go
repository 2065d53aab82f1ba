package builder

import (
	"context"
	"errors"
	"sort"

	"github.com/specialistvlad/deploygrid/internal/action"
	"github.com/specialistvlad/deploygrid/internal/config"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Builder evaluates modules from one loaded model. A Builder is not safe for
// concurrent use; it holds the memoization state of a single build.
type Builder struct {
	defs   map[string][]*config.Module
	params map[string]cty.Value

	memo     map[string]*ModuleResult
	visiting []string
	seq      int
	actions  []*action.Action
	byKey    map[string]*action.Action
}

// Option configures a Builder.
type Option func(*Builder)

// WithParams supplies values for `param.<name>` references.
func WithParams(params map[string]cty.Value) Option {
	return func(b *Builder) {
		for k, v := range params {
			b.params[k] = v
		}
	}
}

// New creates a builder over the given model.
func New(model *config.Model, opts ...Option) *Builder {
	b := &Builder{
		defs:   model.Index(),
		params: make(map[string]cty.Value),
		memo:   make(map[string]*ModuleResult),
		byKey:  make(map[string]*action.Action),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build evaluates the root module and everything it uses.
func (b *Builder) Build(ctx context.Context, root string) (*Graph, error) {
	logger := ctxlog.FromContext(ctx).With("root_module", root)
	ctx = ctxlog.WithLogger(ctx, logger)

	if _, err := b.Evaluate(ctx, root); err != nil {
		return nil, err
	}

	// Duplicates that the build never reached are not ambiguous for this
	// build, but are worth flagging.
	var unreached []string
	for id, defs := range b.defs {
		if _, used := b.memo[id]; !used && len(defs) > 1 {
			unreached = append(unreached, id)
		}
	}
	sort.Strings(unreached)
	for _, id := range unreached {
		logger.Warn("Module is defined more than once but not used by this build.", "module", id, "definitions", len(b.defs[id]))
	}

	g := &Graph{
		Root:    root,
		Actions: b.actions,
		Modules: b.memo,
		byKey:   b.byKey,
	}
	logger.Debug("Module graph built.", "modules", len(b.memo), "actions", len(b.actions))
	return g, nil
}

// Evaluate returns the result of module id, evaluating it on first use.
// Repeated calls return the same pointer.
func (b *Builder) Evaluate(ctx context.Context, id string) (*ModuleResult, error) {
	if res, ok := b.memo[id]; ok {
		return res, nil
	}

	for i, visiting := range b.visiting {
		if visiting == id {
			path := append(append([]string{}, b.visiting[i:]...), id)
			return nil, &CyclicModuleError{Path: path}
		}
	}

	defs := b.defs[id]
	switch len(defs) {
	case 0:
		from := ""
		if n := len(b.visiting); n > 0 {
			from = b.visiting[n-1]
		}
		return nil, &UnresolvedReferenceError{Module: from, Reference: "module." + id, Reason: "no such module"}
	case 1:
	default:
		sources := make([]string, len(defs))
		for i, d := range defs {
			sources[i] = d.Source
		}
		return nil, &AmbiguousModuleError{ID: id, Sources: sources}
	}

	b.visiting = append(b.visiting, id)
	res, err := b.evaluateModule(ctx, defs[0])
	b.visiting = b.visiting[:len(b.visiting)-1]
	if err != nil {
		return nil, err
	}

	b.memo[id] = res
	return res, nil
}

// IsConstructionError reports whether err is one of the build-time errors.
func IsConstructionError(err error) bool {
	var (
		cyclic     *CyclicModuleError
		unresolved *UnresolvedReferenceError
		ambiguous  *AmbiguousModuleError
		duplicate  *DuplicateActionError
	)
	return errors.As(err, &cyclic) || errors.As(err, &unresolved) ||
		errors.As(err, &ambiguous) || errors.As(err, &duplicate)
}
