package universe

import (
	"container/heap"
	"sort"

	"cartography/internal/domain"
)

// Route is a weighted shortest path between two universe nodes
type Route struct {
	NodeIDs []string `json:"node_ids"`
	Cost    int      `json:"cost"`
}

// traversalCost converts an edge weight into a traversal cost:
// heavily co-occurring pairs are cheap to cross, rare pairs expensive
func traversalCost(weight int) int {
	if weight <= 0 {
		return 1000
	}
	cost := 1000 / weight
	if cost < 1 {
		cost = 1
	}
	return cost
}

// FindRoute computes the cheapest route between two nodes over the
// universe's edges using dijkstra. The second return value is false
// when either endpoint is missing or no route exists.
func FindRoute(u *domain.Universe, fromID, toID string) (Route, bool) {
	if !u.HasNode(fromID) || !u.HasNode(toID) {
		return Route{}, false
	}
	if fromID == toID {
		return Route{NodeIDs: []string{fromID}}, true
	}

	adj := adjacency(u)

	dist := map[string]int{fromID: 0}
	prev := make(map[string]string)
	visited := make(map[string]struct{})

	pq := &costQueue{{id: fromID, cost: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(costEntry)
		if _, ok := visited[cur.id]; ok {
			continue
		}
		visited[cur.id] = struct{}{}

		if cur.id == toID {
			break
		}

		for _, n := range adj[cur.id] {
			next := cur.cost + n.cost
			if d, ok := dist[n.id]; !ok || next < d {
				dist[n.id] = next
				prev[n.id] = cur.id
				heap.Push(pq, costEntry{id: n.id, cost: next})
			}
		}
	}

	total, ok := dist[toID]
	if !ok {
		return Route{}, false
	}
	if _, reached := visited[toID]; !reached {
		return Route{}, false
	}

	var ids []string
	for id := toID; ; id = prev[id] {
		ids = append(ids, id)
		if id == fromID {
			break
		}
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}

	return Route{NodeIDs: ids, Cost: total}, true
}

type neighbor struct {
	id   string
	cost int
}

func adjacency(u *domain.Universe) map[string][]neighbor {
	adj := make(map[string][]neighbor, len(u.Nodes))
	for i := range u.Edges {
		e := &u.Edges[i]
		cost := traversalCost(e.Weight)
		adj[e.FromID] = append(adj[e.FromID], neighbor{id: e.ToID, cost: cost})
		adj[e.ToID] = append(adj[e.ToID], neighbor{id: e.FromID, cost: cost})
	}
	// Deterministic expansion order
	for _, ns := range adj {
		sort.Slice(ns, func(i, j int) bool { return ns[i].id < ns[j].id })
	}
	return adj
}

type costEntry struct {
	id   string
	cost int
}

type costQueue []costEntry

func (q costQueue) Len() int { return len(q) }
func (q costQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].id < q[j].id
}
func (q costQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *costQueue) Push(x interface{}) { *q = append(*q, x.(costEntry)) }
func (q *costQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
