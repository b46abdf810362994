// Package resolver implements the first pipeline stage: turning variable
// declarations, user-supplied overrides and local value expressions into a
// fully resolved evaluation scope.
//
// Resolution is a pure function of its inputs. Variables resolve first
// (override, else default, else error), each value checked against its
// declared type and validation predicates. Locals resolve second, in
// topological order over their mutual references; a reference cycle is a
// fatal error, never a partial value. References to resource attributes are
// legal inside locals but stay unknown until the plan is applied, so they
// evaluate to typed placeholders rather than failing.
package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/thukhakyawe/terraform/internal/addr"
	"github.com/thukhakyawe/terraform/internal/config"
	"github.com/thukhakyawe/terraform/internal/ctxlog"
)

// Scope is the output of resolution: every concrete value plus the
// evaluation contexts later stages need.
type Scope struct {
	Variables map[string]cty.Value
	Locals    map[string]cty.Value

	baseCtx *hcl.EvalContext
}

// Resolve produces a Scope from the model and the user's variable overrides.
// Override values arrive as raw strings from the command line; each is
// parsed as an HCL expression, falling back to a plain string when it does
// not parse (so `-var region=us-east-1` needs no quoting).
func Resolve(ctx context.Context, model *config.Model, overrides map[string]string) (*Scope, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolve: starting value resolution.",
		"variables", len(model.Variables), "locals", len(model.Locals))

	variables, err := resolveVariables(ctx, model, overrides)
	if err != nil {
		return nil, err
	}
	logger.Debug("Resolve: variables resolved.")

	scope := &Scope{
		Variables: variables,
		Locals:    make(map[string]cty.Value),
	}
	scope.baseCtx = &hcl.EvalContext{
		Variables: scope.contextVariables(model),
		Functions: Functions(),
	}

	if err := resolveLocals(ctx, model, scope); err != nil {
		return nil, err
	}
	logger.Debug("Resolve: locals resolved.")

	return scope, nil
}

// EvalContext returns the root evaluation context: variables, locals,
// functions and unknown-value placeholders for every resource block.
func (s *Scope) EvalContext() *hcl.EvalContext {
	return s.baseCtx
}

// InstanceContext returns a child context that additionally binds the
// per-instance symbols: count.index for IntKey instances, each.key and
// each.value for StringKey instances.
func (s *Scope) InstanceContext(key addr.InstanceKey, eachValue cty.Value) *hcl.EvalContext {
	child := s.baseCtx.NewChild()
	child.Variables = make(map[string]cty.Value)

	switch k := key.(type) {
	case addr.IntKey:
		child.Variables["count"] = cty.ObjectVal(map[string]cty.Value{
			"index": cty.NumberIntVal(int64(k)),
		})
	case addr.StringKey:
		child.Variables["each"] = cty.ObjectVal(map[string]cty.Value{
			"key":   cty.StringVal(string(k)),
			"value": eachValue,
		})
	}
	return child
}

// contextVariables assembles the top-level variable map for expression
// evaluation. Resource references evaluate to unknown values at plan time:
// attribute traversals into them succeed and stay unknown.
func (s *Scope) contextVariables(model *config.Model) map[string]cty.Value {
	vars := make(map[string]cty.Value)

	varVals := make(map[string]cty.Value, len(s.Variables))
	for name, val := range s.Variables {
		varVals[name] = val
	}
	vars["var"] = cty.ObjectVal(varVals)

	// Locals fill in as they resolve; refreshLocals rewrites this entry.
	vars["local"] = cty.EmptyObjectVal

	managed := make(map[string]map[string]cty.Value)
	data := make(map[string]map[string]cty.Value)
	for _, r := range model.Resources {
		byType := managed
		if r.Mode == addr.Data {
			byType = data
		}
		if byType[r.Type] == nil {
			byType[r.Type] = make(map[string]cty.Value)
		}
		byType[r.Type][r.Name] = cty.DynamicVal
	}
	for typeName, names := range managed {
		vars[typeName] = cty.ObjectVal(names)
	}
	if len(data) > 0 {
		dataVals := make(map[string]cty.Value, len(data))
		for typeName, names := range data {
			dataVals[typeName] = cty.ObjectVal(names)
		}
		vars["data"] = cty.ObjectVal(dataVals)
	}

	return vars
}

// refreshLocals rebuilds the `local` entry of the base context after one or
// more locals have resolved, so later locals in the topological order can
// reference them.
func (s *Scope) refreshLocals() {
	localVals := make(map[string]cty.Value, len(s.Locals))
	for name, val := range s.Locals {
		localVals[name] = val
	}
	s.baseCtx.Variables["local"] = cty.ObjectVal(localVals)
}

// sortedNames returns map keys in lexical order, for deterministic iteration.
func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// diagError flattens HCL diagnostics into a wrapped error with a subject.
func diagError(subject string, diags hcl.Diagnostics) error {
	return fmt.Errorf("failed to evaluate %s: %w", subject, diags)
}
