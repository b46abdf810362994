package app

import (
	"context"
	"fmt"

	"github.com/thukhakyawe/terraform/internal/ctxlog"
	"github.com/thukhakyawe/terraform/internal/expand"
	"github.com/thukhakyawe/terraform/internal/graph"
	"github.com/thukhakyawe/terraform/internal/plan"
	"github.com/thukhakyawe/terraform/internal/resolver"
	"github.com/thukhakyawe/terraform/internal/state"
)

// Run executes one full planning pass and renders the resulting plan.
// Any stage error aborts the whole run before anything is rendered: a
// plan is either complete or absent, never partial.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	p, err := a.Plan(ctx, appConfig)
	if err != nil {
		return err
	}
	a.render(p)
	return nil
}

// Plan executes the pipeline and returns the plan without rendering it.
func (a *App) Plan(ctx context.Context, appConfig *Config) (*plan.Plan, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("Planning run started.")

	model, err := a.loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	prior := state.Snapshot{}
	if appConfig.StatePath != "" {
		prior, err = state.ReadFile(appConfig.StatePath)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("Prior state loaded.", "entries", len(prior))
	}

	scope, err := resolver.Resolve(ctx, model, appConfig.Vars)
	if err != nil {
		return nil, err
	}

	instances, err := expand.Expand(ctx, model, scope)
	if err != nil {
		return nil, err
	}

	g, err := graph.Build(ctx, model, instances)
	if err != nil {
		return nil, err
	}

	p, err := plan.Sequence(ctx, g, prior, a.schemas)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Planning run finished.")
	return p, nil
}

// render writes a minimal one-line-per-change summary of the plan.
func (a *App) render(p *plan.Plan) {
	var create, update, destroy, read int
	for _, change := range p.Changes {
		switch change.Action {
		case plan.NoOp:
			continue
		case plan.Create:
			create++
		case plan.Read:
			read++
		case plan.Update:
			update++
		case plan.Delete:
			destroy++
		case plan.DeleteThenCreate, plan.CreateThenDelete:
			create++
			destroy++
		}
		fmt.Fprintf(a.outW, "%-3s %s\n", change.Action.Sigil(), change.Addr.String())
	}

	if create == 0 && update == 0 && destroy == 0 && read == 0 {
		fmt.Fprintln(a.outW, "No changes. Infrastructure matches the configuration.")
		return
	}
	fmt.Fprintf(a.outW, "\nPlan: %d to add, %d to change, %d to destroy", create, update, destroy)
	if read > 0 {
		fmt.Fprintf(a.outW, ", %d to read", read)
	}
	fmt.Fprintln(a.outW, ".")
}
