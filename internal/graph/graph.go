// Package graph implements cycle detection and reachability queries over
// the task dependency edge set. It never mutates the graph; the service
// layer consults it before asking the store to insert an edge.
package graph

import (
	"sort"
)

// Edge is a directed depends-on relationship: TaskID depends on DependsOnID.
type Edge struct {
	TaskID      int64
	DependsOnID int64
}

// EdgeSource supplies the current edge set, restricted to edges whose
// endpoints are both non-deleted.
type EdgeSource interface {
	DependencyEdges() ([]Edge, error)
}

// Validator answers cycle questions about the dependency graph.
type Validator struct {
	src EdgeSource
}

// NewValidator creates a validator over the given edge source.
func NewValidator(src EdgeSource) *Validator {
	return &Validator{src: src}
}

// WouldCreateCycle reports whether adding the edge taskID -> dependsOnID
// would close a directed cycle. A self-edge is a trivial cycle; otherwise
// the new edge closes a cycle exactly when dependsOnID already depends,
// directly or transitively, on taskID.
func (v *Validator) WouldCreateCycle(taskID, dependsOnID int64) (bool, error) {
	if taskID == dependsOnID {
		return true, nil
	}

	adj, _, err := v.adjacency()
	if err != nil {
		return false, err
	}

	return reachable(adj, dependsOnID, taskID), nil
}

// CircularDependencies returns the tasks that sit on some directed cycle
// through taskID: nodes both forward-reachable from taskID and
// backward-reachable to it. taskID itself is excluded. Used for
// diagnostics on already-stored bad edges.
func (v *Validator) CircularDependencies(taskID int64) ([]int64, error) {
	adj, radj, err := v.adjacency()
	if err != nil {
		return nil, err
	}

	forward := reachSet(adj, taskID)
	backward := reachSet(radj, taskID)

	var cycle []int64
	for id := range forward {
		if id == taskID {
			continue
		}
		if backward[id] {
			cycle = append(cycle, id)
		}
	}
	sort.Slice(cycle, func(i, j int) bool { return cycle[i] < cycle[j] })
	return cycle, nil
}

// adjacency builds forward and reverse adjacency maps from the source.
func (v *Validator) adjacency() (map[int64][]int64, map[int64][]int64, error) {
	edges, err := v.src.DependencyEdges()
	if err != nil {
		return nil, nil, err
	}

	adj := make(map[int64][]int64, len(edges))
	radj := make(map[int64][]int64, len(edges))
	for _, e := range edges {
		adj[e.TaskID] = append(adj[e.TaskID], e.DependsOnID)
		radj[e.DependsOnID] = append(radj[e.DependsOnID], e.TaskID)
	}
	return adj, radj, nil
}

// reachable reports whether target can be reached from start. Iterative
// BFS with an explicit queue; dependency graphs can be arbitrarily deep.
func reachable(adj map[int64][]int64, start, target int64) bool {
	seen := map[int64]bool{start: true}
	queue := []int64{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if next == target {
				return true
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// reachSet returns every node reachable from start, excluding start unless
// it sits on a cycle back to itself.
func reachSet(adj map[int64][]int64, start int64) map[int64]bool {
	seen := make(map[int64]bool)
	queue := []int64{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}
