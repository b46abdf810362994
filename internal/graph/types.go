// Package graph implements the third pipeline stage: deriving the
// dependency graph over expanded resource instances.
//
// Edges come from two sources. Implicit edges are inferred by walking each
// instance's expression ASTs and collecting every traversal that refers to
// another resource's attributes; references that pass through a local value
// are followed transitively. Explicit edges come from depends_on. Data
// source instances participate exactly like managed resources: anything
// referencing a data read depends on that read.
package graph

import (
	"github.com/thukhakyawe/terraform/internal/dag"
	"github.com/thukhakyawe/terraform/internal/expand"
)

// Graph is the validated dependency graph over resource instances. Node IDs
// are canonical instance address strings.
type Graph struct {
	// Instances provides address-keyed lookup for every node in the graph.
	Instances map[string]*expand.Instance

	// dag holds the topology and serves all ordering queries. It is
	// unexported so every mutation goes through the builder.
	dag *dag.Graph
}

// Dependencies returns the sorted addresses the given instance depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	return g.dag.Dependencies(id)
}

// Dependents returns the sorted addresses that depend on the given instance.
func (g *Graph) Dependents(id string) ([]string, error) {
	return g.dag.Dependents(id)
}

// Edges returns every dependency edge as [from, to] pairs where `to`
// depends on `from`.
func (g *Graph) Edges() [][2]string {
	return g.dag.Edges()
}

// Nodes returns every instance address, sorted.
func (g *Graph) Nodes() []string {
	return g.dag.Nodes()
}
