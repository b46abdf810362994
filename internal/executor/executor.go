// Package executor drives a plan through a pool of concurrent workers.
//
// The evaluator itself never realizes anything; the caller supplies an
// Applier that performs each operation. The executor's job is the ordering
// contract: an operation starts only after every operation it depends on
// has been applied, independent branches run concurrently, and a failure
// skips exactly the transitive dependents of the failed operation while
// the rest of the plan proceeds. Cancellation stops scheduling new work;
// outputs of already-applied operations are left intact and everything
// unstarted is marked skipped, so no operation is ever half-realized.
package executor

import (
	"context"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/thukhakyawe/terraform/internal/ctxlog"
	"github.com/thukhakyawe/terraform/internal/plan"
)

// Applier realizes a single operation and returns the resulting attribute
// object (cty.NilVal for deletes).
type Applier interface {
	Apply(ctx context.Context, op *plan.Operation) (cty.Value, error)
}

// ApplierFunc adapts a function to the Applier interface.
type ApplierFunc func(ctx context.Context, op *plan.Operation) (cty.Value, error)

// Apply implements Applier.
func (f ApplierFunc) Apply(ctx context.Context, op *plan.Operation) (cty.Value, error) {
	return f(ctx, op)
}

// Executor runs one plan to completion. It is single-use.
type Executor struct {
	plan    *plan.Plan
	workers int
	applier Applier

	mu        sync.Mutex
	statuses  map[string]Status
	outputs   map[string]cty.Value
	errors    map[string]error
	remaining map[string]int
	accounted int

	ready chan string
	wg    sync.WaitGroup
}

// New creates an executor for the given plan. workers must be at least 1.
func New(p *plan.Plan, workers int, applier Applier) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		plan:      p,
		workers:   workers,
		applier:   applier,
		statuses:  make(map[string]Status),
		outputs:   make(map[string]cty.Value),
		errors:    make(map[string]error),
		remaining: make(map[string]int),
	}
}

// Execute runs every operation, honoring the plan's dependency edges, and
// returns the per-operation outcome. Execute itself only returns an error
// for misuse; operation failures are reported through the Result.
func (e *Executor) Execute(ctx context.Context) *Result {
	logger := ctxlog.FromContext(ctx)
	ops := e.plan.Operations
	logger.Debug("Executor starting.", "operations", len(ops), "workers", e.workers)

	e.ready = make(chan string, len(ops))
	for _, op := range ops {
		e.statuses[op.ID] = StatusPending
		deps, _ := e.plan.Dependencies(op.ID)
		e.remaining[op.ID] = len(deps)
	}
	for _, op := range ops {
		if e.remaining[op.ID] == 0 {
			e.ready <- op.ID
		}
	}
	if len(ops) == 0 {
		close(e.ready)
	}

	e.wg.Add(e.workers)
	for i := 0; i < e.workers; i++ {
		go e.worker(ctx, i)
	}
	e.wg.Wait()

	result := &Result{
		Statuses: e.statuses,
		Outputs:  e.outputs,
		Errors:   e.errors,
	}
	logger.Debug("Executor finished.",
		"applied", len(result.IDsWithStatus(StatusApplied)),
		"failed", len(result.IDsWithStatus(StatusFailed)),
		"skipped", len(result.IDsWithStatus(StatusSkipped)),
	)
	return result
}
