// Package schema defines the resource schema provider consulted by the
// plan sequencer: which attributes of a resource type can change in place,
// and whether a replacement creates the new object before destroying the
// old one.
package schema

// Provider supplies per-resource-type planning metadata. Implementations
// live outside the evaluator core; Static below covers tests and simple
// embedders.
type Provider interface {
	// MutableInPlace reports whether the named attribute of the given
	// resource type can be updated without replacing the resource.
	MutableInPlace(resourceType, attribute string) bool

	// CreateBeforeDestroy reports whether replacements of the given
	// resource type create the new instance before destroying the old one.
	CreateBeforeDestroy(resourceType string) bool
}

// ResourceType describes one resource type for the Static provider.
type ResourceType struct {
	// Mutable lists the attributes that may change in place. Attributes not
	// listed force replacement when they change.
	Mutable []string
	// CreateBeforeDestroy selects create-then-destroy replacement ordering.
	CreateBeforeDestroy bool
}

// Static is a map-backed Provider. Unregistered types fall back to treating
// every attribute as immutable, so an unknown type diff always plans a
// replacement rather than a possibly unsafe in-place update.
type Static struct {
	Types map[string]ResourceType
}

// NewStatic builds a Static provider from a type table. A nil table is
// valid and yields the conservative defaults for every type.
func NewStatic(types map[string]ResourceType) *Static {
	return &Static{Types: types}
}

// MutableInPlace implements Provider.
func (s *Static) MutableInPlace(resourceType, attribute string) bool {
	t, ok := s.Types[resourceType]
	if !ok {
		return false
	}
	for _, name := range t.Mutable {
		if name == attribute {
			return true
		}
	}
	return false
}

// CreateBeforeDestroy implements Provider.
func (s *Static) CreateBeforeDestroy(resourceType string) bool {
	return s.Types[resourceType].CreateBeforeDestroy
}
