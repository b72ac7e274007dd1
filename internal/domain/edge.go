package domain

import (
	"crypto/sha256"
	"fmt"
)

// EdgeKind represents the relation an edge stands for
type EdgeKind string

const (
	// EdgeKindSharedTag connects two questions sharing at least one tag
	EdgeKindSharedTag EdgeKind = "shared_tag"
	// EdgeKindLink connects two questions through an explicit cross-reference
	EdgeKindLink EdgeKind = "link"
	// EdgeKindRelation connects two tag clusters from a relation entry
	EdgeKindRelation EdgeKind = "relation"
)

// UniverseEdge represents a relation between two universe nodes. Both
// endpoints must exist in the same build pass.
type UniverseEdge struct {
	ID     string   `json:"id"`
	FromID string   `json:"from_id"`
	ToID   string   `json:"to_id"`
	Kind   EdgeKind `json:"kind"`
	Weight int      `json:"weight"`
	Width  float32  `json:"width"`
}

// NewUniverseEdge creates an edge with a deterministic ID
func NewUniverseEdge(fromID, toID string, kind EdgeKind, weight int) *UniverseEdge {
	edge := &UniverseEdge{
		FromID: fromID,
		ToID:   toID,
		Kind:   kind,
		Weight: weight,
	}
	edge.ID = edge.GenerateID()
	return edge
}

// GenerateID creates a deterministic ID for the edge based on its
// endpoints. Endpoint order does not matter: (a,b) and (b,a) hash the
// same, which is how duplicate bidirectional relations collapse.
func (e *UniverseEdge) GenerateID() string {
	from, to := e.FromID, e.ToID
	if from > to {
		from, to = to, from
	}

	key := fmt.Sprintf("%s|%s|%s", from, to, e.Kind)
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash[:8])
}

// Touches reports whether the edge is incident to the given node
func (e *UniverseEdge) Touches(nodeID string) bool {
	return e.FromID == nodeID || e.ToID == nodeID
}
