package resolver

import (
	"context"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/thukhakyawe/terraform/internal/config"
	"github.com/thukhakyawe/terraform/internal/ctxlog"
	"github.com/thukhakyawe/terraform/internal/dag"
	"github.com/thukhakyawe/terraform/internal/evalerr"
)

// resolveLocals evaluates every local value in dependency order. The order
// is never hard-coded: a reference graph is built from each expression's
// traversals, checked for cycles, and evaluated topologically.
func resolveLocals(ctx context.Context, model *config.Model, scope *Scope) error {
	logger := ctxlog.FromContext(ctx)
	if len(model.Locals) == 0 {
		return nil
	}

	refGraph := dag.New()
	for name := range model.Locals {
		refGraph.AddNode(name)
	}

	for _, name := range sortedNames(model.Locals) {
		local := model.Locals[name]
		for _, ref := range localReferences(local.Expr) {
			if _, declared := model.Locals[ref]; !declared {
				return &evalerr.ReferenceError{
					Subject: "local " + name,
					Path:    "local." + ref,
				}
			}
			if ref == name {
				return &evalerr.CyclicLocalError{Cycle: []string{name}}
			}
			// The referenced local must resolve before this one.
			if err := refGraph.AddEdge(ref, name); err != nil {
				return err
			}
		}
	}

	if cycles := refGraph.Cycles(); len(cycles) > 0 {
		return &evalerr.CyclicLocalError{Cycle: cycles[0]}
	}

	order, err := refGraph.TopologicalOrder()
	if err != nil {
		return err
	}
	logger.Debug("Locals evaluation order computed.", "order", strings.Join(order, ", "))

	for _, name := range order {
		val, diags := model.Locals[name].Expr.Value(scope.EvalContext())
		if diags.HasErrors() {
			return diagError("local "+name, diags)
		}
		scope.Locals[name] = val
		scope.refreshLocals()
	}
	return nil
}

// localReferences extracts the names of locals referenced by an expression,
// via an AST walk over its variable traversals.
func localReferences(expr hcl.Expression) []string {
	var refs []string
	for _, traversal := range expr.Variables() {
		if traversal.RootName() != "local" || len(traversal) < 2 {
			continue
		}
		if attr, ok := traversal[1].(hcl.TraverseAttr); ok {
			refs = append(refs, attr.Name)
		}
	}
	return refs
}
