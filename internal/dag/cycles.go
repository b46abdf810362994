package dag

import (
	"sort"
)

// Cycles finds every cycle in the graph using Tarjan's strongly-connected
// components algorithm and returns them ordered smallest-first (fewest
// members, then lexicographically by first member). Each cycle is reported
// in dependency order starting from its lexicographically smallest node.
// An acyclic graph returns nil.
func (g *Graph) Cycles() [][]string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	t := &tarjan{
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
	}

	// Iterate in sorted order so component discovery is deterministic.
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if _, visited := t.index[id]; !visited {
			t.strongConnect(g.nodes[id])
		}
	}

	var cycles [][]string
	for _, component := range t.components {
		if len(component) > 1 {
			cycles = append(cycles, orderCycle(g, component))
			continue
		}
		// A single-node component is a cycle only if the node points at
		// itself. AddEdge rejects self-edges, but callers that detect a
		// self-reference earlier never reach this point anyway.
		n := g.nodes[component[0]]
		if _, ok := n.deps[n.id]; ok {
			cycles = append(cycles, component)
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		if len(cycles[i]) != len(cycles[j]) {
			return len(cycles[i]) < len(cycles[j])
		}
		return cycles[i][0] < cycles[j][0]
	})
	return cycles
}

// tarjan holds the bookkeeping state for one run of the SCC algorithm.
type tarjan struct {
	counter    int
	index      map[string]int
	lowlink    map[string]int
	onStack    map[string]bool
	stack      []*node
	components [][]string
}

func (t *tarjan) strongConnect(n *node) {
	t.index[n.id] = t.counter
	t.lowlink[n.id] = t.counter
	t.counter++
	t.stack = append(t.stack, n)
	t.onStack[n.id] = true

	// Successor order does not affect which components are found, only the
	// discovery order, and components are re-sorted afterwards.
	for _, dep := range n.deps {
		if _, visited := t.index[dep.id]; !visited {
			t.strongConnect(dep)
			if t.lowlink[dep.id] < t.lowlink[n.id] {
				t.lowlink[n.id] = t.lowlink[dep.id]
			}
		} else if t.onStack[dep.id] {
			if t.index[dep.id] < t.lowlink[n.id] {
				t.lowlink[n.id] = t.index[dep.id]
			}
		}
	}

	if t.lowlink[n.id] == t.index[n.id] {
		var component []string
		for {
			top := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[top.id] = false
			component = append(component, top.id)
			if top.id == n.id {
				break
			}
		}
		t.components = append(t.components, component)
	}
}

// orderCycle walks a strongly-connected component along dependency edges so
// the reported path reads as an actual cycle, starting from the smallest ID.
func orderCycle(g *Graph, component []string) []string {
	members := make(map[string]bool, len(component))
	start := component[0]
	for _, id := range component {
		members[id] = true
		if id < start {
			start = id
		}
	}

	ordered := []string{start}
	seen := map[string]bool{start: true}
	current := start
	for len(ordered) < len(component) {
		// Follow the smallest unvisited in-component dependency.
		next := ""
		for depID := range g.nodes[current].deps {
			if members[depID] && !seen[depID] && (next == "" || depID < next) {
				next = depID
			}
		}
		if next == "" {
			// The component is strongly connected, so every member is
			// reachable; fall back to sorted order for any stragglers.
			for _, id := range component {
				if !seen[id] {
					ordered = append(ordered, id)
					seen[id] = true
				}
			}
			break
		}
		ordered = append(ordered, next)
		seen[next] = true
		current = next
	}
	return ordered
}
