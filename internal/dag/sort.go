package dag

import (
	"container/heap"
	"fmt"
	"sort"
)

// TopologicalOrder returns every node ID ordered so each node appears after
// all of its dependencies. Ordering is stable: among nodes whose dependencies
// are all satisfied, the lexicographically smallest ID is emitted first, so
// identical graphs always produce identical orderings. An error is returned
// if the graph contains a cycle.
func (g *Graph) TopologicalOrder() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	inDegree := make(map[string]int, len(g.nodes))
	ready := &stringHeap{}
	for id, n := range g.nodes {
		inDegree[id] = len(n.deps)
		if len(n.deps) == 0 {
			heap.Push(ready, id)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(string)
		order = append(order, id)
		for depID := range g.nodes[id].dependents {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				heap.Push(ready, depID)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("graph contains a cycle; %d of %d nodes unordered", len(g.nodes)-len(order), len(g.nodes))
	}
	return order, nil
}

// Layers partitions the nodes into batches where every node's dependencies
// live in strictly earlier batches. Nodes within one batch are sorted and
// mutually independent with respect to batch boundaries, so a parallel
// executor may run a whole batch concurrently.
func (g *Graph) Layers() ([][]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	inDegree := make(map[string]int, len(g.nodes))
	var current []string
	for id, n := range g.nodes {
		inDegree[id] = len(n.deps)
		if len(n.deps) == 0 {
			current = append(current, id)
		}
	}

	var layers [][]string
	placed := 0
	for len(current) > 0 {
		layer := append([]string(nil), current...)
		sort.Strings(layer)
		layers = append(layers, layer)
		placed += len(layer)

		var next []string
		for _, id := range layer {
			for depID := range g.nodes[id].dependents {
				inDegree[depID]--
				if inDegree[depID] == 0 {
					next = append(next, depID)
				}
			}
		}
		current = next
	}

	if placed != len(g.nodes) {
		return nil, fmt.Errorf("graph contains a cycle; %d of %d nodes unordered", len(g.nodes)-placed, len(g.nodes))
	}
	return layers, nil
}

// stringHeap is a min-heap of strings used to pick the smallest ready node.
type stringHeap []string

func (h stringHeap) Len() int            { return len(h) }
func (h stringHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h stringHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *stringHeap) Push(x interface{}) { *h = append(*h, x.(string)) }
func (h *stringHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
