package graph

import (
	"context"
	"fmt"

	"github.com/thukhakyawe/terraform/internal/config"
	"github.com/thukhakyawe/terraform/internal/ctxlog"
	"github.com/thukhakyawe/terraform/internal/dag"
	"github.com/thukhakyawe/terraform/internal/evalerr"
	"github.com/thukhakyawe/terraform/internal/expand"
)

// Build constructs the complete, validated dependency graph from the
// expanded instance set.
func Build(ctx context.Context, model *config.Model, instances []*expand.Instance) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.")

	g := &Graph{
		Instances: make(map[string]*expand.Instance, len(instances)),
		dag:       dag.New(),
	}

	// First pass: one node per instance.
	for _, inst := range instances {
		id := inst.Addr.String()
		g.Instances[id] = inst
		g.dag.AddNode(id)
	}
	logger.Debug("Build: node creation complete.", "node_count", len(g.Instances))

	// Second pass: link dependencies.
	linker := newLinker(model, g)
	for _, inst := range instances {
		if err := linker.linkInstance(ctx, inst); err != nil {
			return nil, err
		}
	}
	logger.Debug("Build: node linking complete.")

	// Final validation: the whole graph must be acyclic. The smallest cycle
	// found is the one reported.
	if cycles := g.dag.Cycles(); len(cycles) > 0 {
		return nil, &evalerr.CyclicDependencyError{Cycle: cycles[0]}
	}
	logger.Debug("Build: cycle detection passed.")

	return g, nil
}

// addEdge records that `to` depends on `from`, ignoring duplicates.
func (g *Graph) addEdge(from, to string) error {
	if err := g.dag.AddEdge(from, to); err != nil {
		return fmt.Errorf("error linking dependency: %w", err)
	}
	return nil
}
