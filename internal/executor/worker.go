package executor

import (
	"context"

	"github.com/thukhakyawe/terraform/internal/ctxlog"
)

// worker is the processing loop for one concurrent worker.
func (e *Executor) worker(ctx context.Context, workerID int) {
	defer e.wg.Done()
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)
	logger.Debug("Worker started.")

	for id := range e.ready {
		op := e.plan.Operation(id)

		if ctx.Err() != nil {
			logger.Debug("Context cancelled, skipping operation.", "op", id)
			e.finish(id, StatusSkipped, ctx.Err())
			continue
		}

		logger.Debug("Worker picked up operation.", "op", id, "kind", op.Kind.String())
		output, err := e.applier.Apply(ctx, op)

		if err != nil {
			logger.Error("Operation failed.", "op", id, "error", err)
			e.fail(id, err)
			continue
		}

		// The output slot is written exactly once, before any dependent is
		// released, so downstream reads always see a complete value.
		e.mu.Lock()
		e.outputs[id] = output
		e.mu.Unlock()
		logger.Debug("Operation applied.", "op", id)
		e.finish(id, StatusApplied, nil)
	}
	logger.Debug("Worker finished.")
}

// finish records an operation's terminal status, releases any dependents
// whose dependencies are now all satisfied, and closes the ready channel
// once every operation is accounted for.
func (e *Executor) finish(id string, status Status, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.account(id, status, err)

	if status == StatusApplied {
		dependents, _ := e.plan.Dependents(id)
		for _, dep := range dependents {
			e.remaining[dep]--
			if e.remaining[dep] == 0 && e.statuses[dep] == StatusPending {
				e.ready <- dep
			}
		}
		return
	}

	// Nothing downstream of a skipped operation can ever run; account those
	// operations now so the run still drains.
	all, _ := e.plan.TransitiveDependents(id)
	for _, dep := range all {
		if e.statuses[dep] == StatusPending {
			e.account(dep, StatusSkipped, err)
		}
	}
}

// fail records a failure and marks every transitive dependent skipped.
// Independent branches are unaffected: this is a best-effort executor, not
// an all-or-nothing transaction.
func (e *Executor) fail(id string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.account(id, StatusFailed, err)

	dependents, _ := e.plan.TransitiveDependents(id)
	for _, dep := range dependents {
		if e.statuses[dep] == StatusPending {
			e.account(dep, StatusSkipped, &SkippedError{FailedDependency: id})
		}
	}
}

// account sets one operation's terminal status exactly once. Callers must
// hold e.mu.
func (e *Executor) account(id string, status Status, err error) {
	if e.statuses[id] != StatusPending {
		return
	}
	e.statuses[id] = status
	if err != nil {
		e.errors[id] = err
	}
	e.accounted++
	if e.accounted == len(e.plan.Operations) {
		close(e.ready)
	}
}
