package dag

import (
	"fmt"
	"strings"
)

// CycleDetectedError names the actions that form a dependency cycle. The
// first id is repeated at the end.
type CycleDetectedError struct {
	Cycle []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// DetectCycles checks the graph for cycles and returns a *CycleDetectedError
// naming every node of the first cycle found. Nodes are visited in
// declaration order so the reported cycle is stable.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search with three sets of nodes:
	// permanent: fully visited and not part of a cycle.
	// temporary: on the current recursion stack.
	// unvisited: all other nodes.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)
	var stack []string

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			// Cut the stack at the first occurrence of n to get the cycle.
			for i, id := range stack {
				if id == n.id {
					cycle := append(append([]string{}, stack[i:]...), n.id)
					return &CycleDetectedError{Cycle: cycle}
				}
			}
			return &CycleDetectedError{Cycle: []string{n.id, n.id}}
		}

		temporary[n.id] = true
		stack = append(stack, n.id)

		for _, depID := range sortedIDs(n.dependents) {
			if err := visit(n.dependents[depID]); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		delete(temporary, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, n := range g.ordered() {
		if !permanent[n.id] {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}
