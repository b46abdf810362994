// Package evalerr defines the typed errors raised while turning a
// configuration into a plan. Every error carries the identity of the
// offending entity so callers can report it without parsing messages.
package evalerr

import (
	"fmt"
	"strings"
)

// TypeError reports a value that does not structurally match a declared type.
type TypeError struct {
	// Subject identifies the value being checked, e.g. a variable name.
	Subject string
	Wanted  string
	Got     string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("invalid value for %s: want %s, got %s", e.Subject, e.Wanted, e.Got)
}

// ValidationError reports a variable value that failed one of its
// validation predicates.
type ValidationError struct {
	Variable string
	// Message is the error_message declared alongside the failing predicate.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for variable %q: %s", e.Variable, e.Message)
}

// MissingValueError reports a variable with neither a default nor a
// user-supplied value.
type MissingValueError struct {
	Variable string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("no value for required variable %q", e.Variable)
}

// CyclicLocalError reports a reference cycle among local values. Cycle holds
// the local names in reference order; the first name closes the loop.
type CyclicLocalError struct {
	Cycle []string
}

func (e *CyclicLocalError) Error() string {
	return fmt.Sprintf("local value cycle: %s", cyclePath(e.Cycle))
}

// ConfigError reports a structurally invalid configuration, such as a block
// declaring both count and for_each, or a negative count.
type ConfigError struct {
	// Subject identifies the offending block or attribute.
	Subject string
	Detail  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Subject, e.Detail)
}

// ReferenceError reports an expression referencing something that does not
// exist, such as an attribute of a missing instance.
type ReferenceError struct {
	// Subject identifies where the bad reference appears.
	Subject string
	// Path is the referenced attribute path, e.g. "aws_vpc.main.id".
	Path string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s refers to unknown object %q", e.Subject, e.Path)
}

// CyclicDependencyError reports a cycle among resource instances. Cycle holds
// instance addresses in dependency order; the first address closes the loop.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", cyclePath(e.Cycle))
}

// cyclePath renders a cycle as "a -> b -> a" so the loop is visible even
// when the cycle has a single member.
func cyclePath(cycle []string) string {
	if len(cycle) == 0 {
		return "(empty cycle)"
	}
	return strings.Join(append(append([]string{}, cycle...), cycle[0]), " -> ")
}
