package domain

import (
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Universe is the complete spatial graph built from one load pass.
// Nodes and Edges are kept in deterministic order; identical input data
// always produces an identical Universe.
type Universe struct {
	Nodes []UniverseNode `json:"nodes"`
	Edges []UniverseEdge `json:"edges"`

	nodeIndex map[string]int
}

// NewUniverse creates an empty universe
func NewUniverse() *Universe {
	return &Universe{
		Nodes:     make([]UniverseNode, 0),
		Edges:     make([]UniverseEdge, 0),
		nodeIndex: make(map[string]int),
	}
}

// AddNode appends a node. Adding a duplicate ID is an error because it
// would break the one-node-per-source-record invariant.
func (u *Universe) AddNode(node UniverseNode) error {
	if u.nodeIndex == nil {
		u.nodeIndex = make(map[string]int)
	}
	if _, ok := u.nodeIndex[node.ID]; ok {
		return fmt.Errorf("duplicate node id %q", node.ID)
	}
	u.nodeIndex[node.ID] = len(u.Nodes)
	u.Nodes = append(u.Nodes, node)
	return nil
}

// AddEdge appends an edge
func (u *Universe) AddEdge(edge UniverseEdge) {
	u.Edges = append(u.Edges, edge)
}

// NodeByID looks up a node by its ID
func (u *Universe) NodeByID(id string) (*UniverseNode, bool) {
	if u.nodeIndex == nil {
		u.reindex()
	}
	idx, ok := u.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return &u.Nodes[idx], true
}

// HasNode reports whether a node with the given ID exists
func (u *Universe) HasNode(id string) bool {
	_, ok := u.NodeByID(id)
	return ok
}

// Degree returns the number of edges incident to a node
func (u *Universe) Degree(nodeID string) int {
	n := 0
	for i := range u.Edges {
		if u.Edges[i].Touches(nodeID) {
			n++
		}
	}
	return n
}

// SortCanonical orders nodes by ID and edges by ID so that two
// universes built from the same data compare equal slice-for-slice
func (u *Universe) SortCanonical() {
	sort.Slice(u.Nodes, func(i, j int) bool { return u.Nodes[i].ID < u.Nodes[j].ID })
	sort.Slice(u.Edges, func(i, j int) bool { return u.Edges[i].ID < u.Edges[j].ID })
	u.reindex()
}

func (u *Universe) reindex() {
	u.nodeIndex = make(map[string]int, len(u.Nodes))
	for i := range u.Nodes {
		u.nodeIndex[u.Nodes[i].ID] = i
	}
}

// Equal compares two universes node-for-node and edge-for-edge. Both
// must be in canonical order.
func (u *Universe) Equal(o *Universe) bool {
	if o == nil {
		return false
	}
	if len(u.Nodes) != len(o.Nodes) || len(u.Edges) != len(o.Edges) {
		return false
	}
	for i := range u.Nodes {
		a, b := &u.Nodes[i], &o.Nodes[i]
		if a.ID != b.ID || a.Kind != b.Kind || a.Site != b.Site ||
			a.Position != b.Position || a.Scale != b.Scale {
			return false
		}
	}
	for i := range u.Edges {
		a, b := &u.Edges[i], &o.Edges[i]
		if a.ID != b.ID || a.FromID != b.FromID || a.ToID != b.ToID ||
			a.Kind != b.Kind || a.Weight != b.Weight {
			return false
		}
	}
	return true
}

// Fingerprint returns a stable digest of the universe's structure and
// geometry. Two equal universes always share a fingerprint.
func (u *Universe) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	for i := range u.Nodes {
		n := &u.Nodes[i]
		fmt.Fprintf(h, "n|%s|%s|%s|%.6f|%.6f|%.6f|%.6f\n",
			n.ID, n.Kind, n.Site, n.Position.X, n.Position.Y, n.Position.Z, n.Scale)
	}
	for i := range u.Edges {
		e := &u.Edges[i]
		fmt.Fprintf(h, "e|%s|%s|%s|%s|%d\n", e.ID, e.FromID, e.ToID, e.Kind, e.Weight)
	}
	return hex.EncodeToString(h.Sum(nil))
}
