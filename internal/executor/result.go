package executor

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/zclconf/go-cty/cty"
)

// Status is the terminal outcome of one operation.
type Status int

const (
	// StatusPending means the operation has not reached a terminal state.
	// It never appears in a finished Result.
	StatusPending Status = iota
	// StatusApplied means the operation completed successfully.
	StatusApplied
	// StatusFailed means the operation was attempted and returned an error.
	StatusFailed
	// StatusSkipped means the operation was never attempted, either because
	// an operation it transitively depends on failed or because the run was
	// cancelled first.
	StatusSkipped
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApplied:
		return "applied"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "invalid"
	}
}

// SkippedError explains why an operation was skipped: the operation it
// (transitively) depended on failed, so it could never run.
type SkippedError struct {
	FailedDependency string
}

func (e *SkippedError) Error() string {
	return fmt.Sprintf("skipped because dependency %s failed", e.FailedDependency)
}

// Result is the per-operation accounting of one execution.
type Result struct {
	Statuses map[string]Status
	// Outputs holds the attribute object produced by each applied
	// operation. An operation is present here only when fully applied.
	Outputs map[string]cty.Value
	// Errors holds the failure or skip reason for each unapplied operation.
	Errors map[string]error
}

// IDsWithStatus returns the sorted operation IDs that finished with the
// given status.
func (r *Result) IDsWithStatus(status Status) []string {
	var ids []string
	for id, s := range r.Statuses {
		if s == status {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Err aggregates every failure and skip into a single report, or nil when
// every operation applied. Failures and skips are listed distinctly so the
// reader can tell what broke from what was merely downstream of the break.
func (r *Result) Err() error {
	var result *multierror.Error
	for _, id := range r.IDsWithStatus(StatusFailed) {
		result = multierror.Append(result, fmt.Errorf("operation %s failed: %w", id, r.Errors[id]))
	}
	for _, id := range r.IDsWithStatus(StatusSkipped) {
		result = multierror.Append(result, fmt.Errorf("operation %s: %w", id, r.Errors[id]))
	}
	return result.ErrorOrNil()
}
