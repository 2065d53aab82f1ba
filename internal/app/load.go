package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/deploygrid/internal/builder"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/dag"
	"github.com/specialistvlad/deploygrid/internal/yaml_adapter"
)

// loadPlan reads the module definitions and parameters, builds the graph of
// the configured root module and orders it. Nothing here touches the
// journal or the network.
func (a *App) loadPlan(ctx context.Context) (*builder.Graph, *dag.Plan, error) {
	logger := ctxlog.FromContext(ctx)

	model, err := a.loader.Load(ctx, a.config.ModulesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load module definitions: %w", err)
	}
	logger.Debug("Module definitions loaded.", "modules", len(model.Modules))

	params, err := yaml_adapter.LoadParams(a.config.ParamsPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Parameters loaded.", "count", len(params))

	graph, err := builder.New(model, builder.WithParams(params)).Build(ctx, a.config.Module)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build module graph: %w", err)
	}

	plan, err := dag.Schedule(graph.Actions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to order actions: %w", err)
	}
	logger.Info("Plan ready.", "module", a.config.Module, "modules", len(graph.Modules), "actions", len(plan.Actions))
	return graph, plan, nil
}
