package domain

import "fmt"

// NodeKind represents what a universe node stands for
type NodeKind string

const (
	// NodeKindQuestion is a node derived from a single question record
	NodeKindQuestion NodeKind = "question"
	// NodeKindTag is a node derived from a tag cluster
	NodeKindTag NodeKind = "tag"
)

// UniverseNode is a spatial placement derived from a question or tag
// cluster. Site is a weak reference to the owning dataset: lookup only,
// the node does not keep the dataset alive.
type UniverseNode struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Label    string   `json:"label"`
	Site     string   `json:"site"`
	Sites    []string `json:"sites,omitempty"`
	Position Position `json:"position"`
	Scale    float32  `json:"scale"`
	Score    int      `json:"score"`
	Tags     []string `json:"tags,omitempty"`
	SourceID int64    `json:"source_id,omitempty"`
}

// QuestionNodeID returns the canonical node ID for a question record
func QuestionNodeID(site string, questionID int64) string {
	return fmt.Sprintf("q/%s/%d", site, questionID)
}

// TagNodeID returns the canonical node ID for a tag cluster. Tags span
// sites, so the ID is global.
func TagNodeID(tag string) string {
	return "t/" + tag
}

// NewQuestionNode creates a node for one question record
func NewQuestionNode(site string, q *Question) *UniverseNode {
	return &UniverseNode{
		ID:       QuestionNodeID(site, q.ID),
		Kind:     NodeKindQuestion,
		Label:    q.Title,
		Site:     site,
		Position: Position{},
		Score:    q.Score,
		Tags:     q.UniqueTags(),
		SourceID: q.ID,
	}
}

// NewTagNode creates a node for a tag cluster. site is the first site
// (in sort order) the tag was observed in.
func NewTagNode(tag, site string) *UniverseNode {
	return &UniverseNode{
		ID:    TagNodeID(tag),
		Kind:  NodeKindTag,
		Label: tag,
		Site:  site,
		Sites: []string{site},
	}
}
