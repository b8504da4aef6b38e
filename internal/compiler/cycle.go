package compiler

import (
	"slices"

	"github.com/roach88/framesynth/internal/ir"
)

// ReceiverCycles finds call chains whose receivers loop back on themselves.
//
// Each call has at most one receiver, so every strongly connected component
// of the receiver graph with more than one node, or a call that is its own
// receiver, is a cycle. Each cycle is returned as a path that starts and
// ends at its smallest call ID: ["a", "b", "a"].
//
// Cycles are errors: the pass needs a receiver's schema before it can
// interpret the call.
func ReceiverCycles(p *ir.Program) [][]string {
	graph := buildReceiverGraph(p)

	var cycles [][]string
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			cycles = append(cycles, reconstructCyclePath(scc, graph))
		}
	}
	slices.SortFunc(cycles, func(a, b []string) int {
		return slices.Compare(a, b)
	})
	return cycles
}

// dependencyGraph maps call ID to the IDs it depends on.
type dependencyGraph map[string][]string

// buildReceiverGraph adds an edge call -> receiver for every known receiver.
func buildReceiverGraph(p *ir.Program) dependencyGraph {
	graph := make(dependencyGraph, len(p.Calls))
	for _, call := range p.Calls {
		if graph[call.ID] == nil {
			graph[call.ID] = []string{}
		}
	}
	for _, call := range p.Calls {
		if _, known := graph[call.Receiver]; call.Receiver != "" && known {
			graph[call.ID] = append(graph[call.ID], call.Receiver)
		}
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so the result is deterministic.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack into an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath walks the cycle from its smallest member back to
// itself. Receiver edges are unique per node, so the walk is unambiguous.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := slices.Min(scc)
	path := []string{start}
	current := start
	for {
		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
