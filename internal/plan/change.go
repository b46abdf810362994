package plan

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/thukhakyawe/terraform/internal/addr"
	"github.com/thukhakyawe/terraform/internal/dag"
)

// Change is the instance-level planning verdict: one record per resource
// instance address, in either the configuration or the prior state.
type Change struct {
	Addr   addr.Instance
	Action Action

	// Before holds the prior attribute object, cty.NilVal when none exists.
	Before cty.Value
	// After holds the planned attribute object, cty.NilVal for deletes.
	// Individual attributes may be unknown until apply.
	After cty.Value

	// ChangedAttrs lists the attribute names whose values differ between
	// Before and After, sorted. Empty for creates, reads and deletes.
	ChangedAttrs []string
}

// OpKind is the primitive verb of one operation. A replacement expands into
// a delete operation and a create operation over the same address.
type OpKind int

const (
	OpCreate OpKind = iota
	OpRead
	OpUpdate
	OpDelete
)

// String returns the verb name.
func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpRead:
		return "read"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "invalid"
	}
}

// Operation is one schedulable unit of work. NoOp changes produce no
// operations; a replacement produces two linked to the same Change.
type Operation struct {
	// ID is unique across the plan: the instance address, with a
	// " (destroy)" suffix for delete operations.
	ID   string
	Addr addr.Instance
	Kind OpKind
	// Change is the instance-level verdict this operation realizes.
	Change *Change
}

// Plan is the ordered output of sequencing. Identical inputs always
// produce an identical Plan.
type Plan struct {
	// Changes holds every instance-level verdict, sorted by address.
	// NoOp verdicts are included so callers can see the full accounting.
	Changes []*Change

	// Operations holds every schedulable operation in execution order:
	// each operation appears after every operation it depends on.
	Operations []*Operation

	byID  map[string]*Operation
	graph *dag.Graph
}

// Operation looks up one operation by ID.
func (p *Plan) Operation(id string) *Operation {
	return p.byID[id]
}

// Edges returns the full operation-level dependency edge set as [from, to]
// pairs where `to` depends on `from`. Executors use this to parallelize:
// any two operations with no path between them may run concurrently.
func (p *Plan) Edges() [][2]string {
	return p.graph.Edges()
}

// Dependencies returns the sorted IDs of the operations the given
// operation depends on.
func (p *Plan) Dependencies(id string) ([]string, error) {
	return p.graph.Dependencies(id)
}

// Dependents returns the sorted IDs of the operations that directly depend
// on the given operation.
func (p *Plan) Dependents(id string) ([]string, error) {
	return p.graph.Dependents(id)
}

// TransitiveDependents returns every operation downstream of the given
// one. An executor marks exactly this set as skipped when the operation
// fails.
func (p *Plan) TransitiveDependents(id string) ([]string, error) {
	return p.graph.TransitiveDependents(id)
}

// ReadySets partitions the operations into batches where every
// dependency of a batch member lives in an earlier batch, for executors
// that schedule level by level.
func (p *Plan) ReadySets() ([][]string, error) {
	return p.graph.Layers()
}
