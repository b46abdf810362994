// Package expand implements the second pipeline stage: turning resource
// blocks into concrete, uniquely keyed instances.
//
// A block with `count = N` produces instances keyed 0..N-1; a block with
// `for_each` over a map or set produces one instance per entry, keyed by the
// entry itself. Identity under count is positional, so inserting or removing
// an element shifts every later index and changes those instances'
// identities; that instability is inherent to count and is why for_each
// exists. Neither meta-argument yields exactly one unkeyed instance.
package expand

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/thukhakyawe/terraform/internal/addr"
	"github.com/thukhakyawe/terraform/internal/config"
	"github.com/thukhakyawe/terraform/internal/ctxlog"
	"github.com/thukhakyawe/terraform/internal/evalerr"
	"github.com/thukhakyawe/terraform/internal/resolver"
)

// Instance is one expanded resource instance. Attrs holds the planned value
// of every attribute; values referencing other instances' attributes are
// unknown placeholders until apply, and the reference itself is recorded as
// a graph edge by the graph package, not here.
type Instance struct {
	Addr   addr.Instance
	Config *config.Resource
	Attrs  map[string]cty.Value
}

// Expand produces every instance of every resource block in the model,
// sorted by address.
func Expand(ctx context.Context, model *config.Model, scope *resolver.Scope) ([]*Instance, error) {
	logger := ctxlog.FromContext(ctx)

	var instances []*Instance
	for _, r := range model.Resources {
		expanded, err := expandResource(ctx, r, scope)
		if err != nil {
			return nil, err
		}
		instances = append(instances, expanded...)
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].Addr.Less(instances[j].Addr)
	})
	logger.Debug("Expansion complete.",
		"blocks", len(model.Resources), "instances", len(instances))
	return instances, nil
}

// expandResource turns one block into its keyed instances.
func expandResource(ctx context.Context, r *config.Resource, scope *resolver.Scope) ([]*Instance, error) {
	logger := ctxlog.FromContext(ctx)

	keys, eachValues, err := instanceKeys(r, scope)
	if err != nil {
		return nil, err
	}
	logger.Debug("Expanding resource block.", "addr", r.Addr().String(), "instances", len(keys))

	instances := make([]*Instance, 0, len(keys))
	for i, key := range keys {
		instAddr := addr.Instance{Resource: r.Addr(), Key: key}
		evalCtx := scope.InstanceContext(key, eachValues[i])

		attrs, err := evaluateAttributes(instAddr, r.Attributes, evalCtx)
		if err != nil {
			return nil, err
		}

		instances = append(instances, &Instance{
			Addr:   instAddr,
			Config: r,
			Attrs:  attrs,
		})
	}
	return instances, nil
}

// instanceKeys computes the key set for a block, along with the each.value
// binding for each key (cty.NilVal where no binding applies).
func instanceKeys(r *config.Resource, scope *resolver.Scope) ([]addr.InstanceKey, []cty.Value, error) {
	switch {
	case r.Count != nil:
		n, err := evaluateCount(r, scope)
		if err != nil {
			return nil, nil, err
		}
		keys := make([]addr.InstanceKey, n)
		values := make([]cty.Value, n)
		for i := 0; i < n; i++ {
			keys[i] = addr.IntKey(i)
			values[i] = cty.NilVal
		}
		return keys, values, nil

	case r.ForEach != nil:
		return evaluateForEach(r, scope)

	default:
		return []addr.InstanceKey{addr.NoKey}, []cty.Value{cty.NilVal}, nil
	}
}

// evaluateCount resolves a count expression to a non-negative whole number.
func evaluateCount(r *config.Resource, scope *resolver.Scope) (int, error) {
	val, diags := r.Count.Value(scope.EvalContext())
	if diags.HasErrors() {
		return 0, fmt.Errorf("failed to evaluate count for %s: %w", r.Addr(), diags)
	}

	val, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, &evalerr.ConfigError{
			Subject: r.Addr().String(),
			Detail:  "count must be a number",
		}
	}
	if !val.IsKnown() || val.IsNull() {
		return 0, &evalerr.ConfigError{
			Subject: r.Addr().String(),
			Detail:  "count depends on values not known until apply",
		}
	}

	bf := val.AsBigFloat()
	if !bf.IsInt() {
		return 0, &evalerr.ConfigError{
			Subject: r.Addr().String(),
			Detail:  "count must be a whole number",
		}
	}
	n, _ := bf.Int64()
	if n < 0 {
		return 0, &evalerr.ConfigError{
			Subject: r.Addr().String(),
			Detail:  fmt.Sprintf("count must not be negative, got %d", n),
		}
	}
	return int(n), nil
}

// evaluateForEach resolves a for_each expression to a keyed collection: a
// map or object keyed by its own keys, or a set/list/tuple of strings where
// each element is both key and value. Keys are returned sorted so identity
// is stable across runs.
func evaluateForEach(r *config.Resource, scope *resolver.Scope) ([]addr.InstanceKey, []cty.Value, error) {
	val, diags := r.ForEach.Value(scope.EvalContext())
	if diags.HasErrors() {
		return nil, nil, fmt.Errorf("failed to evaluate for_each for %s: %w", r.Addr(), diags)
	}
	if !val.IsKnown() || val.IsNull() {
		return nil, nil, &evalerr.ConfigError{
			Subject: r.Addr().String(),
			Detail:  "for_each depends on values not known until apply",
		}
	}

	ty := val.Type()
	entries := make(map[string]cty.Value)

	switch {
	case ty.IsMapType() || ty.IsObjectType():
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			entries[k.AsString()] = v
		}

	case ty.IsSetType() || ty.IsListType() || ty.IsTupleType():
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			if v.Type() != cty.String || v.IsNull() {
				return nil, nil, &evalerr.ConfigError{
					Subject: r.Addr().String(),
					Detail:  "for_each over a set or list requires string elements",
				}
			}
			k := v.AsString()
			if _, dup := entries[k]; dup {
				return nil, nil, &evalerr.ConfigError{
					Subject: r.Addr().String(),
					Detail:  fmt.Sprintf("for_each contains duplicate key %q", k),
				}
			}
			entries[k] = v
		}

	default:
		return nil, nil, &evalerr.ConfigError{
			Subject: r.Addr().String(),
			Detail:  fmt.Sprintf("for_each must be a map or a set of strings, got %s", ty.FriendlyName()),
		}
	}

	sortedKeys := make([]string, 0, len(entries))
	for k := range entries {
		sortedKeys = append(sortedKeys, k)
	}
	sort.Strings(sortedKeys)

	keys := make([]addr.InstanceKey, len(sortedKeys))
	values := make([]cty.Value, len(sortedKeys))
	for i, k := range sortedKeys {
		keys[i] = addr.StringKey(k)
		values[i] = entries[k]
	}
	return keys, values, nil
}

// evaluateAttributes resolves every attribute expression of one instance.
// Each referenced traversal is checked individually first, so a dangling
// reference reports the exact attribute path that does not exist.
func evaluateAttributes(instAddr addr.Instance, exprs map[string]hcl.Expression, evalCtx *hcl.EvalContext) (map[string]cty.Value, error) {
	attrs := make(map[string]cty.Value, len(exprs))

	names := make([]string, 0, len(exprs))
	for name := range exprs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		expr := exprs[name]
		for _, traversal := range expr.Variables() {
			if _, travDiags := traversal.TraverseAbs(evalCtx); travDiags.HasErrors() {
				return nil, &evalerr.ReferenceError{
					Subject: fmt.Sprintf("%s attribute %q", instAddr, name),
					Path:    addr.TraversalString(traversal),
				}
			}
		}

		val, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate %s attribute %q: %w", instAddr, name, diags)
		}
		attrs[name] = val
	}
	return attrs, nil
}
