package descriptor

import (
	"fmt"
	"slices"
	"strings"
)

// Cycle is a set of descriptors that reach themselves through field type
// references. Recursive types are not derivable.
type Cycle struct {
	Path    []string `json:"path"`    // ["A", "B", "A"]
	Message string   `json:"message"` // human-readable description
}

// Members returns the distinct type names on the cycle.
func (c Cycle) Members() []string {
	if len(c.Path) <= 1 {
		return c.Path
	}
	return c.Path[:len(c.Path)-1]
}

// FindCycles reports every reference cycle among the given descriptors.
//
// The algorithm:
//  1. Build type -> referenced type graph, keeping only edges to declared types
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop as a cycle
//
// Output is deterministic: nodes are visited in name order.
func FindCycles(types []*Type) []Cycle {
	graph := buildReferenceGraph(types)

	var cycles []Cycle
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}

	slices.SortFunc(cycles, func(a, b Cycle) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return cycles
}

// referenceGraph maps type name -> declared type names it references.
type referenceGraph map[string][]string

func buildReferenceGraph(types []*Type) referenceGraph {
	declared := make(map[string]bool, len(types))
	for _, t := range types {
		declared[t.Name] = true
	}

	graph := make(referenceGraph, len(types))
	for _, t := range types {
		// Ensure node exists even without edges
		if graph[t.Name] == nil {
			graph[t.Name] = []string{}
		}
		for _, ref := range t.References() {
			if declared[ref] {
				graph[t.Name] = append(graph[t.Name], ref)
			}
		}
	}
	return graph
}

func hasSelfLoop(node string, graph referenceGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
func tarjanSCC(graph referenceGraph) [][]string {
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

		// Root node: pop the stack and emit an SCC
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
			slices.Sort(scc)
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

func sccToCycle(scc []string, graph referenceGraph) Cycle {
	if len(scc) == 1 {
		name := scc[0]
		return Cycle{
			Path:    []string{name, name},
			Message: fmt.Sprintf("type %s refers to itself", name),
		}
	}

	path := cyclePath(scc, graph)
	return Cycle{
		Path:    path,
		Message: fmt.Sprintf("reference cycle: %s", strings.Join(path, " -> ")),
	}
}

// cyclePath walks edges inside the SCC from its first member until it
// returns to the start.
func cyclePath(scc []string, graph referenceGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
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
