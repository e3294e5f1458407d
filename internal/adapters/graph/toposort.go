package graph

import (
	"github.com/eleven-am/nodeflow/internal/domain"
)

// sortNodes computes a deterministic topological order over the edge
// relation via Kahn's algorithm, together with the level partition the
// scheduler dispatches from: each level holds the nodes whose dependencies
// are all satisfied by earlier levels. When the relation contains a cycle,
// order and levels are nil and cycle lists the node ids that are actually
// on a cycle, in declaration order.
func sortNodes(nodeIDs []string, edges []domain.Edge) (order []string, levels [][]string, cycle []string) {
	indeg := make(map[string]int, len(nodeIDs))
	out := make(map[string][]string, len(nodeIDs))
	known := make(map[string]bool, len(nodeIDs))

	for _, id := range nodeIDs {
		indeg[id] = 0
		known[id] = true
	}
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		out[e.Source] = append(out[e.Source], e.Target)
		indeg[e.Target]++
	}

	processed := make(map[string]bool, len(nodeIDs))
	for len(processed) < len(nodeIDs) {
		var level []string
		for _, id := range nodeIDs {
			if !processed[id] && indeg[id] == 0 {
				level = append(level, id)
			}
		}
		if len(level) == 0 {
			break
		}
		for _, id := range level {
			processed[id] = true
			for _, succ := range out[id] {
				indeg[succ]--
			}
		}
		levels = append(levels, level)
		order = append(order, level...)
	}

	if len(processed) < len(nodeIDs) {
		return nil, nil, cycleMembers(nodeIDs, out)
	}

	return order, levels, nil
}

// cycleMembers returns the node ids that sit on a cycle, in declaration
// order. A node qualifies when it belongs to a strongly connected component
// of more than one node, or carries a self-loop. Nodes that are merely
// downstream of a cycle are excluded.
func cycleMembers(nodeIDs []string, out map[string][]string) []string {
	index := make(map[string]int, len(nodeIDs))
	lowlink := make(map[string]int, len(nodeIDs))
	onStack := make(map[string]bool, len(nodeIDs))
	inCycle := make(map[string]bool, len(nodeIDs))
	var stack []string
	next := 0

	var strongconnect func(id string)
	strongconnect = func(id string) {
		index[id] = next
		lowlink[id] = next
		next++
		stack = append(stack, id)
		onStack[id] = true

		for _, succ := range out[id] {
			if _, seen := index[succ]; !seen {
				strongconnect(succ)
				if lowlink[succ] < lowlink[id] {
					lowlink[id] = lowlink[succ]
				}
			} else if onStack[succ] && index[succ] < lowlink[id] {
				lowlink[id] = index[succ]
			}
		}

		if lowlink[id] == index[id] {
			var comp []string
			for {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[top] = false
				comp = append(comp, top)
				if top == id {
					break
				}
			}
			if len(comp) > 1 {
				for _, member := range comp {
					inCycle[member] = true
				}
			} else {
				for _, succ := range out[comp[0]] {
					if succ == comp[0] {
						inCycle[comp[0]] = true
					}
				}
			}
		}
	}

	for _, id := range nodeIDs {
		if _, seen := index[id]; !seen {
			strongconnect(id)
		}
	}

	var members []string
	for _, id := range nodeIDs {
		if inCycle[id] {
			members = append(members, id)
		}
	}
	return members
}
