package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/thukhakyawe/terraform/internal/addr"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths and translates it into
	// the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Model is the unified representation of one whole configuration: every
// variable, local and resource block across every loaded file.
type Model struct {
	Variables map[string]*Variable
	Locals    map[string]*Local
	Resources []*Resource
}

// NewModel creates an initialized, empty Model.
func NewModel() *Model {
	return &Model{
		Variables: make(map[string]*Variable),
		Locals:    make(map[string]*Local),
	}
}

// ResourceByAddr looks up a resource block by its address.
func (m *Model) ResourceByAddr(a addr.Resource) *Resource {
	for _, r := range m.Resources {
		if r.Addr() == a {
			return r
		}
	}
	return nil
}

// Variable is a declared input value. Once resolved for a run it never
// changes.
type Variable struct {
	Name string
	// Type is the declared type constraint the final value must conform to.
	Type cty.Type
	// Default is nil when the variable is required.
	Default     *cty.Value
	Validations []*Validation

	DeclRange hcl.Range
}

// Validation is one validation block attached to a variable. Condition may
// reference only the variable it validates.
type Validation struct {
	Condition    hcl.Expression
	ErrorMessage string
}

// Local is a named value derived from an expression. Locals may reference
// variables, other locals, and resource attributes.
type Local struct {
	Name string
	Expr hcl.Expression

	DeclRange hcl.Range
}

// Resource is the representation of a `resource` or `data` block before
// expansion: a template that produces one or more instances.
type Resource struct {
	Mode addr.Mode
	Type string
	Name string

	// Count and ForEach are mutually exclusive; the loader rejects blocks
	// declaring both. Both nil means exactly one instance.
	Count   hcl.Expression
	ForEach hcl.Expression

	// DependsOn holds explicit dependency references, one traversal per
	// entry of the depends_on list.
	DependsOn []hcl.Traversal

	// Attributes holds every remaining attribute's unevaluated expression.
	Attributes map[string]hcl.Expression

	DeclRange hcl.Range
}

// Addr returns the resource's address before expansion.
func (r *Resource) Addr() addr.Resource {
	return addr.Resource{Mode: r.Mode, Type: r.Type, Name: r.Name}
}
