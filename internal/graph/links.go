package graph

import (
	"context"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/thukhakyawe/terraform/internal/addr"
	"github.com/thukhakyawe/terraform/internal/config"
	"github.com/thukhakyawe/terraform/internal/ctxlog"
	"github.com/thukhakyawe/terraform/internal/evalerr"
	"github.com/thukhakyawe/terraform/internal/expand"
)

// resourceRef is a reference to a resource extracted from an expression
// traversal. Key is nil when the reference names the whole block rather
// than one instance.
type resourceRef struct {
	res addr.Resource
	key addr.InstanceKey
}

// linker carries the lookup tables needed to resolve traversals to graph
// nodes during the linking pass.
type linker struct {
	model *config.Model
	graph *Graph

	// instancesByRes maps a resource address to its sorted instance IDs.
	instancesByRes map[addr.Resource][]string
	// managedTypes marks traversal roots that name managed resource types.
	managedTypes map[string]bool

	// localRefs memoizes the transitive resource references of each local.
	localRefs map[string][]resourceRef
}

func newLinker(model *config.Model, g *Graph) *linker {
	l := &linker{
		model:          model,
		graph:          g,
		instancesByRes: make(map[addr.Resource][]string),
		managedTypes:   make(map[string]bool),
		localRefs:      make(map[string][]resourceRef),
	}

	for _, id := range g.dag.Nodes() {
		inst := g.Instances[id]
		res := inst.Config.Addr()
		l.instancesByRes[res] = append(l.instancesByRes[res], id)
	}
	for _, r := range model.Resources {
		if r.Mode == addr.Managed {
			l.managedTypes[r.Type] = true
		}
	}
	return l
}

// linkInstance adds every dependency edge for one instance: implicit edges
// from its attribute expressions and explicit edges from depends_on.
func (l *linker) linkInstance(ctx context.Context, inst *expand.Instance) error {
	logger := ctxlog.FromContext(ctx)
	id := inst.Addr.String()

	attrNames := make([]string, 0, len(inst.Config.Attributes))
	for name := range inst.Config.Attributes {
		attrNames = append(attrNames, name)
	}
	sort.Strings(attrNames)

	for _, name := range attrNames {
		for _, traversal := range inst.Config.Attributes[name].Variables() {
			for _, ref := range l.refsForTraversal(traversal, nil) {
				if err := l.linkRef(ctx, inst, ref); err != nil {
					return err
				}
			}
		}
	}

	for _, traversal := range inst.Config.DependsOn {
		ref, ok := l.parseTraversal(traversal)
		if !ok {
			return &evalerr.ReferenceError{
				Subject: id + " depends_on",
				Path:    addr.TraversalString(traversal),
			}
		}
		if err := l.linkRef(ctx, inst, ref); err != nil {
			return err
		}
	}

	logger.Debug("Linked dependencies for instance.", "instance", id)
	return nil
}

// linkRef adds the edge(s) for one resolved reference. A keyed reference
// links to that single instance; an unkeyed reference links to every
// instance of the referenced block.
func (l *linker) linkRef(ctx context.Context, inst *expand.Instance, ref resourceRef) error {
	logger := ctxlog.FromContext(ctx)
	id := inst.Addr.String()

	// An instance depending on its own block can never be satisfied.
	if ref.res == inst.Config.Addr() {
		return &evalerr.CyclicDependencyError{Cycle: []string{id}}
	}

	targets, known := l.instancesByRes[ref.res]
	if !known && l.model.ResourceByAddr(ref.res) == nil {
		return &evalerr.ReferenceError{
			Subject: id,
			Path:    ref.res.String(),
		}
	}

	if ref.key != nil {
		target := addr.Instance{Resource: ref.res, Key: ref.key}.String()
		if _, exists := l.graph.Instances[target]; !exists {
			return &evalerr.ReferenceError{
				Subject: id,
				Path:    target,
			}
		}
		logger.Debug("Linking implicit dependency.", "from", id, "to", target)
		return l.graph.addEdge(target, id)
	}

	for _, target := range targets {
		logger.Debug("Linking dependency.", "from", id, "to", target)
		if err := l.graph.addEdge(target, id); err != nil {
			return err
		}
	}
	return nil
}

// refsForTraversal resolves one traversal to zero or more resource
// references. References through local values are followed transitively so
// an instance using `local.x` inherits every resource reference inside x.
// The visited set breaks local-to-local recursion; actual cycles were
// already rejected by the resolver.
func (l *linker) refsForTraversal(traversal hcl.Traversal, visited map[string]bool) []resourceRef {
	if traversal.RootName() == "local" && len(traversal) >= 2 {
		if attrStep, ok := traversal[1].(hcl.TraverseAttr); ok {
			return l.refsForLocal(attrStep.Name, visited)
		}
		return nil
	}
	if ref, ok := l.parseTraversal(traversal); ok {
		return []resourceRef{ref}
	}
	return nil
}

// refsForLocal returns the transitive resource references of one local.
func (l *linker) refsForLocal(name string, visited map[string]bool) []resourceRef {
	if refs, done := l.localRefs[name]; done {
		return refs
	}
	if visited == nil {
		visited = make(map[string]bool)
	}
	if visited[name] {
		return nil
	}
	visited[name] = true

	local, declared := l.model.Locals[name]
	if !declared {
		return nil
	}

	var refs []resourceRef
	for _, traversal := range local.Expr.Variables() {
		refs = append(refs, l.refsForTraversal(traversal, visited)...)
	}
	l.localRefs[name] = refs
	return refs
}

// parseTraversal extracts a resource reference from a traversal, if it is
// one. Accepted shapes: `<type>.<name>`, `data.<type>.<name>`, both with an
// optional index step immediately after the name.
func (l *linker) parseTraversal(traversal hcl.Traversal) (resourceRef, bool) {
	root := traversal.RootName()

	var res addr.Resource
	var rest hcl.Traversal

	switch {
	case root == "data" && len(traversal) >= 3:
		typeStep, typeOk := traversal[1].(hcl.TraverseAttr)
		nameStep, nameOk := traversal[2].(hcl.TraverseAttr)
		if !typeOk || !nameOk {
			return resourceRef{}, false
		}
		res = addr.Resource{Mode: addr.Data, Type: typeStep.Name, Name: nameStep.Name}
		rest = traversal[3:]

	case l.managedTypes[root] && len(traversal) >= 2:
		nameStep, ok := traversal[1].(hcl.TraverseAttr)
		if !ok {
			return resourceRef{}, false
		}
		res = addr.Resource{Mode: addr.Managed, Type: root, Name: nameStep.Name}
		rest = traversal[2:]

	default:
		return resourceRef{}, false
	}

	ref := resourceRef{res: res}
	if len(rest) > 0 {
		if idxStep, ok := rest[0].(hcl.TraverseIndex); ok {
			switch idxStep.Key.Type() {
			case cty.Number:
				n, _ := idxStep.Key.AsBigFloat().Int64()
				ref.key = addr.IntKey(int(n))
			case cty.String:
				ref.key = addr.StringKey(idxStep.Key.AsString())
			}
		}
	}
	return ref, true
}
