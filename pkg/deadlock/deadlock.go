// Package deadlock detects cycles in the wait-for graph implied by the
// lock document: an edge waiter -> holder exists for every queue entry
// whose module is currently locked by a different agent. All of an agent's
// wait edges participate, so an agent queued on several modules is fully
// represented in the graph.
package deadlock

import (
	"sort"

	"warden/pkg/protocol"
)

// Detect walks the wait-for graph with an iterative depth-first search
// (explicit stack, no recursion) and reports the first cycle found. The
// involved agents are the members of that cycle, sorted.
func Detect(doc *protocol.LockDocument) protocol.DeadlockResult {
	adj := buildWaitForGraph(doc)

	nodes := make([]string, 0, len(adj))
	for n := range adj {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	color := make(map[string]int, len(adj))

	type frame struct {
		node string
		next int // index of the next neighbor to explore
	}

	for _, start := range nodes {
		if color[start] != white {
			continue
		}
		stack := []frame{{node: start}}
		color[start] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			neighbors := adj[top.node]

			if top.next >= len(neighbors) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			next := neighbors[top.next]
			top.next++

			switch color[next] {
			case white:
				color[next] = gray
				stack = append(stack, frame{node: next})
			case gray:
				// Back edge into the current path: extract the cycle
				// from the stack starting at next.
				var cycle []string
				for i := len(stack) - 1; i >= 0; i-- {
					cycle = append(cycle, stack[i].node)
					if stack[i].node == next {
						break
					}
				}
				sort.Strings(cycle)
				return protocol.DeadlockResult{Detected: true, InvolvedAgents: cycle}
			}
		}
	}
	return protocol.DeadlockResult{Detected: false}
}

// buildWaitForGraph returns a deduplicated adjacency map of waiter -> holder
// edges. Neighbor lists are sorted for deterministic traversal.
func buildWaitForGraph(doc *protocol.LockDocument) map[string][]string {
	edges := make(map[string]map[string]bool)
	for _, entry := range doc.Queue {
		holder, locked := doc.Locks[entry.Module]
		if !locked || holder.AgentID == entry.AgentID {
			continue
		}
		if edges[entry.AgentID] == nil {
			edges[entry.AgentID] = make(map[string]bool)
		}
		edges[entry.AgentID][holder.AgentID] = true
		if edges[holder.AgentID] == nil {
			edges[holder.AgentID] = make(map[string]bool)
		}
	}

	adj := make(map[string][]string, len(edges))
	for node, targets := range edges {
		list := make([]string, 0, len(targets))
		for t := range targets {
			list = append(list, t)
		}
		sort.Strings(list)
		adj[node] = list
	}
	return adj
}
