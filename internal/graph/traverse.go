// # internal/graph/traverse.go
package graph

// Dependent is one module reached by reverse-edge traversal, tagged with its
// shortest hop distance from the seed.
type Dependent struct {
	ID    string
	Depth int
}

// TransitiveDependentsOf walks reverse edges breadth-first from seed. The
// seed itself is excluded, each module appears once at its first-seen (i.e.
// minimum) depth, and ties within a level are ordered by module ID. The seen
// set keys on module IDs, so cyclic graphs terminate. maxDepth <= 0 means
// no cap.
func (g *Graph) TransitiveDependentsOf(seed string, maxDepth int) []Dependent {
	seen := map[string]bool{seed: true}
	var out []Dependent

	level := []string{seed}
	depth := 0

	for len(level) > 0 {
		depth++
		if maxDepth > 0 && depth > maxDepth {
			break
		}

		nextSet := make(map[string]bool)
		for _, id := range level {
			for _, dep := range g.reverse[id] {
				if !seen[dep] {
					seen[dep] = true
					nextSet[dep] = true
				}
			}
		}

		next := sortedKeys(nextSet)
		for _, id := range next {
			out = append(out, Dependent{ID: id, Depth: depth})
		}
		level = next
	}

	return out
}

// DetectCycles reports import cycles (forward edges). Cycles are legitimate
// in source graphs; this exists for reporting, traversal never depends on
// acyclicity.
func (g *Graph) DetectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, id := range g.moduleIDs {
		if !visited[id] {
			g.findCycles(id, visited, onStack, nil, &cycles)
		}
	}

	return cycles
}

func (g *Graph) findCycles(curr string, visited, onStack map[string]bool, path []string, cycles *[][]string) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	for _, next := range g.forward[curr] {
		if onStack[next] {
			start := -1
			for i, mod := range path {
				if mod == next {
					start = i
					break
				}
			}
			if start != -1 {
				cycle := make([]string, len(path)-start)
				copy(cycle, path[start:])
				*cycles = append(*cycles, cycle)
			}
		} else if !visited[next] {
			g.findCycles(next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}
