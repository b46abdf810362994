// Package plan implements the final pipeline stage: diffing the expanded
// instance set against the prior-state snapshot and sequencing the result
// into a deterministic, executor-ready plan.
package plan

// Action is the kind of change planned for one resource instance.
type Action int

const (
	// NoOp means the instance exists and nothing about it changes.
	NoOp Action = iota
	// Create realizes an instance that has no prior record.
	Create
	// Read realizes a data source. Data reads run on every plan.
	Read
	// Update changes an existing instance in place.
	Update
	// Delete destroys an instance whose configuration is gone.
	Delete
	// DeleteThenCreate replaces an instance, destroying the old object
	// before creating its successor.
	DeleteThenCreate
	// CreateThenDelete replaces an instance, creating the successor before
	// destroying the old object.
	CreateThenDelete
)

// IsReplace reports whether the action replaces an existing object with a
// new one.
func (a Action) IsReplace() bool {
	return a == DeleteThenCreate || a == CreateThenDelete
}

// String returns the action name.
func (a Action) String() string {
	switch a {
	case NoOp:
		return "no-op"
	case Create:
		return "create"
	case Read:
		return "read"
	case Update:
		return "update"
	case Delete:
		return "delete"
	case DeleteThenCreate:
		return "replace (delete then create)"
	case CreateThenDelete:
		return "replace (create then delete)"
	default:
		return "invalid"
	}
}

// Sigil returns the short marker used when rendering a plan line.
func (a Action) Sigil() string {
	switch a {
	case Create:
		return "+"
	case Read:
		return "<="
	case Update:
		return "~"
	case Delete:
		return "-"
	case DeleteThenCreate:
		return "-/+"
	case CreateThenDelete:
		return "+/-"
	default:
		return " "
	}
}
