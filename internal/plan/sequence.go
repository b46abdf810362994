package plan

import (
	"context"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/thukhakyawe/terraform/internal/addr"
	"github.com/thukhakyawe/terraform/internal/ctxlog"
	"github.com/thukhakyawe/terraform/internal/dag"
	"github.com/thukhakyawe/terraform/internal/graph"
	"github.com/thukhakyawe/terraform/internal/schema"
	"github.com/thukhakyawe/terraform/internal/state"
)

// destroySuffix marks the delete half of an operation ID.
const destroySuffix = " (destroy)"

// Sequence diffs the instance graph against the prior snapshot and emits
// the ordered plan. Ordering is total and stable: operations are drawn
// from the operation-level dependency graph smallest-ID-first, so the same
// configuration and snapshot always yield the same plan.
func Sequence(ctx context.Context, g *graph.Graph, prior state.Snapshot, schemas schema.Provider) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Sequence: starting plan construction.",
		"instances", len(g.Instances), "prior_entries", len(prior))

	s := &sequencer{
		graph:   g,
		prior:   prior,
		schemas: schemas,
		changes: make(map[string]*Change),
		opGraph: dag.New(),
		byID:    make(map[string]*Operation),
	}

	s.diffInstances()
	if err := s.diffOrphans(); err != nil {
		return nil, err
	}
	s.buildOperations()
	if err := s.linkOperations(); err != nil {
		return nil, err
	}

	order, err := s.opGraph.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("failed to order plan operations: %w", err)
	}

	p := &Plan{
		byID:  s.byID,
		graph: s.opGraph,
	}
	for _, id := range order {
		p.Operations = append(p.Operations, s.byID[id])
	}
	for _, a := range sortedKeys(s.changes) {
		p.Changes = append(p.Changes, s.changes[a])
	}

	logger.Debug("Sequence: plan construction complete.",
		"changes", len(p.Changes), "operations", len(p.Operations))
	return p, nil
}

// sequencer carries the intermediate tables of one Sequence run.
type sequencer struct {
	graph   *graph.Graph
	prior   state.Snapshot
	schemas schema.Provider

	// changes is keyed by canonical instance address.
	changes map[string]*Change
	opGraph *dag.Graph
	byID    map[string]*Operation
}

// diffInstances decides the action for every instance in the new
// configuration.
func (s *sequencer) diffInstances() {
	for id, inst := range s.graph.Instances {
		after := objectVal(inst.Attrs)

		if inst.Addr.Resource.Mode == addr.Data {
			// Data sources are re-read on every run; prior records are
			// irrelevant.
			s.changes[id] = &Change{
				Addr:   inst.Addr,
				Action: Read,
				Before: cty.NilVal,
				After:  after,
			}
			continue
		}

		record, exists := s.prior[id]
		if !exists {
			s.changes[id] = &Change{
				Addr:   inst.Addr,
				Action: Create,
				Before: cty.NilVal,
				After:  after,
			}
			continue
		}

		changed := changedAttributes(record.Attributes, after)
		s.changes[id] = &Change{
			Addr:         inst.Addr,
			Action:       updateAction(inst.Addr.Resource.Type, changed, s.schemas),
			Before:       record.Attributes,
			After:        after,
			ChangedAttrs: changed,
		}
	}
}

// diffOrphans emits a Delete for every prior-state entry whose instance no
// longer exists in the configuration.
func (s *sequencer) diffOrphans() error {
	for _, id := range s.prior.Addrs() {
		if _, exists := s.graph.Instances[id]; exists {
			continue
		}
		instAddr, err := addr.ParseInstance(id)
		if err != nil {
			return fmt.Errorf("malformed instance address in state snapshot: %w", err)
		}
		if instAddr.Resource.Mode == addr.Data {
			// Stale data-read records carry no real object to destroy.
			continue
		}
		s.changes[id] = &Change{
			Addr:   instAddr,
			Action: Delete,
			Before: s.prior[id].Attributes,
			After:  cty.NilVal,
		}
	}
	return nil
}

// buildOperations expands each change into its operations and adds the
// operation nodes to the op graph. NoOp changes schedule nothing.
func (s *sequencer) buildOperations() {
	for _, id := range sortedKeys(s.changes) {
		change := s.changes[id]
		switch change.Action {
		case NoOp:
		case Create:
			s.addOp(id, change.Addr, OpCreate, change)
		case Read:
			s.addOp(id, change.Addr, OpRead, change)
		case Update:
			s.addOp(id, change.Addr, OpUpdate, change)
		case Delete:
			s.addOp(id+destroySuffix, change.Addr, OpDelete, change)
		case DeleteThenCreate, CreateThenDelete:
			s.addOp(id, change.Addr, OpCreate, change)
			s.addOp(id+destroySuffix, change.Addr, OpDelete, change)
		}
	}
}

func (s *sequencer) addOp(id string, instAddr addr.Instance, kind OpKind, change *Change) {
	op := &Operation{ID: id, Addr: instAddr, Kind: kind, Change: change}
	s.byID[id] = op
	s.opGraph.AddNode(id)
}

// linkOperations adds every ordering edge to the op graph:
//
//   - forward edges mirror the instance graph for operations that realize
//     an instance (create, read, update, and the create half of replaces);
//   - the two halves of a replacement are ordered by the schema's
//     create-before-destroy preference;
//   - delete operations are ordered in reverse dependency order, using the
//     instance graph where the configuration still exists and the
//     snapshot's recorded dependencies where it does not.
func (s *sequencer) linkOperations() error {
	for _, edge := range s.graph.Edges() {
		from, to := edge[0], edge[1]
		fromOp, fromOk := s.realizeOpID(from)
		toOp, toOk := s.realizeOpID(to)
		if fromOk && toOk {
			if err := s.opGraph.AddEdge(fromOp, toOp); err != nil {
				return err
			}
		}

		// `to` depends on `from`, so destroy `to` first.
		fromDel, fromDelOk := s.deleteOpID(from)
		toDel, toDelOk := s.deleteOpID(to)
		if fromDelOk && toDelOk {
			if err := s.opGraph.AddEdge(toDel, fromDel); err != nil {
				return err
			}
		}
	}

	for id, change := range s.changes {
		switch change.Action {
		case DeleteThenCreate:
			if err := s.opGraph.AddEdge(id+destroySuffix, id); err != nil {
				return err
			}
			if err := s.linkRecordedDestroyDeps(id); err != nil {
				return err
			}
		case CreateThenDelete:
			if err := s.opGraph.AddEdge(id, id+destroySuffix); err != nil {
				return err
			}
			if err := s.linkRecordedDestroyDeps(id); err != nil {
				return err
			}
		case Delete:
			if err := s.linkRecordedDestroyDeps(id); err != nil {
				return err
			}
		}
	}
	return nil
}

// linkRecordedDestroyDeps orders an instance's destroy operation using the
// dependencies recorded in its snapshot entry: the instance is destroyed
// before anything it depended on. This covers destroys the instance graph
// cannot order, whether the instance is orphaned entirely or its destroy is
// the delete half of a replacement ordered against an orphan. Recorded
// entries may name an instance or a whole resource block.
func (s *sequencer) linkRecordedDestroyDeps(id string) error {
	record := s.prior[id]
	if record == nil {
		return nil
	}
	selfDel, _ := s.deleteOpID(id)

	for _, dep := range record.Dependencies {
		for _, depInstance := range s.matchStateDependency(dep) {
			depDel, ok := s.deleteOpID(depInstance)
			if !ok || depDel == selfDel {
				continue
			}
			// The orphan depended on depInstance, so it is destroyed first.
			if err := s.opGraph.AddEdge(selfDel, depDel); err != nil {
				return err
			}
		}
	}
	return nil
}

// matchStateDependency resolves one recorded dependency string to the
// change addresses it covers.
func (s *sequencer) matchStateDependency(dep string) []string {
	if _, exact := s.changes[dep]; exact {
		return []string{dep}
	}
	res, err := addr.ParseResource(dep)
	if err != nil {
		return nil
	}
	var matches []string
	for id, change := range s.changes {
		if change.Addr.Resource == res {
			matches = append(matches, id)
		}
	}
	sort.Strings(matches)
	return matches
}

// realizeOpID returns the ID of the operation that brings the instance
// into its new form, if any.
func (s *sequencer) realizeOpID(instanceID string) (string, bool) {
	change, ok := s.changes[instanceID]
	if !ok {
		return "", false
	}
	switch change.Action {
	case Create, Read, Update, DeleteThenCreate, CreateThenDelete:
		return instanceID, true
	}
	return "", false
}

// deleteOpID returns the ID of the operation that destroys the instance's
// prior object, if any.
func (s *sequencer) deleteOpID(instanceID string) (string, bool) {
	change, ok := s.changes[instanceID]
	if !ok {
		return "", false
	}
	switch change.Action {
	case Delete, DeleteThenCreate, CreateThenDelete:
		return instanceID + destroySuffix, true
	}
	return "", false
}

// objectVal wraps a planned attribute map as a single object value.
func objectVal(attrs map[string]cty.Value) cty.Value {
	if len(attrs) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(attrs)
}

// sortedKeys returns map keys in lexical order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
