// Package universe turns loaded datasets into the spatial graph the
// presenter renders. The build is deterministic end to end: identical
// input data always yields identical node positions, scales and edge
// sets, so a universe explored in one session looks the same in the
// next.
package universe

import (
	"sort"

	"cartography/internal/config"
	"cartography/internal/domain"
)

// Builder computes a Universe from a full set of loaded datasets
type Builder struct {
	layout layout
}

// NewBuilder creates a builder with the given layout policy
func NewBuilder(policy config.LayoutConfig) *Builder {
	return &Builder{layout: layout{policy: policy}}
}

// Build deterministically computes the universe for one load pass. An
// empty dataset slice yields an empty universe. A LayoutError is only
// returned on an internal invariant violation.
func (b *Builder) Build(datasets []*domain.DomainDataset) (*domain.Universe, error) {
	u := domain.NewUniverse()

	ordered := make([]*domain.DomainDataset, len(datasets))
	copy(ordered, datasets)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Site < ordered[j].Site })

	siteIndex := siteIndices(ordered)

	maxScore := 0
	for _, ds := range ordered {
		for i := range ds.Questions {
			if ds.Questions[i].Score > maxScore {
				maxScore = ds.Questions[i].Score
			}
		}
	}

	tagTotals, tagSites := discoverTags(ordered)
	maxTagTotal := 0
	for _, total := range tagTotals {
		if total > maxTagTotal {
			maxTagTotal = total
		}
	}

	// Create nodes. Question nodes are scoped to their site; tag nodes
	// are global and homed on the first site (in sort order) that
	// mentions them.
	for _, ds := range ordered {
		for i := range ds.Questions {
			q := &ds.Questions[i]
			node := domain.NewQuestionNode(ds.Site, q)
			node.Scale = b.layout.nodeScale(q.Score, maxScore)
			if err := u.AddNode(*node); err != nil {
				return nil, &domain.LayoutError{NodeID: node.ID, Reason: err.Error()}
			}
		}
	}
	for _, tag := range sortedKeys(tagTotals) {
		sites := tagSites[tag]
		node := domain.NewTagNode(tag, sites[0])
		node.Sites = sites
		node.Score = tagTotals[tag]
		node.Scale = b.layout.nodeScale(tagTotals[tag], maxTagTotal)
		if err := u.AddNode(*node); err != nil {
			return nil, &domain.LayoutError{NodeID: node.ID, Reason: err.Error()}
		}
	}

	b.placeNodes(u, siteIndex)

	if err := b.buildEdges(u, ordered); err != nil {
		return nil, err
	}

	u.SortCanonical()

	if err := Verify(u, ordered); err != nil {
		return nil, err
	}

	return u, nil
}

// placeNodes assigns every node a position on its domain's shell.
// Ranks within a shell are stable: score descending then ID for
// question nodes, label order for tag nodes.
func (b *Builder) placeNodes(u *domain.Universe, siteIndex map[string]int) {
	perSite := make(map[string][]*domain.UniverseNode)
	for i := range u.Nodes {
		node := &u.Nodes[i]
		perSite[node.Site] = append(perSite[node.Site], node)
	}

	for site, nodes := range perSite {
		sort.Slice(nodes, func(i, j int) bool {
			if nodes[i].Kind != nodes[j].Kind {
				return nodes[i].Kind < nodes[j].Kind
			}
			if nodes[i].Score != nodes[j].Score {
				return nodes[i].Score > nodes[j].Score
			}
			return nodes[i].ID < nodes[j].ID
		})
		for rank, node := range nodes {
			node.Position = b.layout.place(siteIndex[site], rank, len(nodes), site+"|"+node.ID)
		}
	}
}

func (b *Builder) buildEdges(u *domain.Universe, datasets []*domain.DomainDataset) error {
	// Shared-tag edges between question nodes, across the whole pass
	tagIndex := make(map[string][]string)
	for i := range u.Nodes {
		node := &u.Nodes[i]
		if node.Kind != domain.NodeKindQuestion {
			continue
		}
		for _, tag := range node.Tags {
			tagIndex[tag] = append(tagIndex[tag], node.ID)
		}
	}
	for _, ids := range tagIndex {
		sort.Strings(ids)
	}

	shared := sharedTagPairs(tagIndex)
	for _, pair := range sortedPairs(shared) {
		weight := shared[pair]
		edge := domain.NewUniverseEdge(pair.a, pair.b, domain.EdgeKindSharedTag, weight)
		edge.Width = b.layout.edgeWidth(weight)
		u.AddEdge(*edge)
	}

	// Explicit cross-reference edges. A link whose target is not part
	// of this build pass produces no edge.
	linkSeen := make(map[nodePair]struct{})
	for _, ds := range datasets {
		for i := range ds.Questions {
			q := &ds.Questions[i]
			fromID := domain.QuestionNodeID(ds.Site, q.ID)
			for _, target := range q.Linked {
				toID := domain.QuestionNodeID(ds.Site, target)
				if fromID == toID || !u.HasNode(toID) {
					continue
				}
				pair := makePair(fromID, toID)
				if _, ok := linkSeen[pair]; ok {
					continue
				}
				linkSeen[pair] = struct{}{}
				edge := domain.NewUniverseEdge(pair.a, pair.b, domain.EdgeKindLink, 1)
				edge.Width = b.layout.edgeWidth(1)
				u.AddEdge(*edge)
			}
		}
	}

	// Relation edges between tag nodes. Bidirectional duplicates
	// collapse; when the two directions report different counts the
	// larger one wins.
	relWeights := make(map[nodePair]int)
	for _, ds := range datasets {
		for _, rel := range ds.Relations {
			fromID := domain.TagNodeID(rel.Tag)
			for _, rc := range rel.Related {
				if rc.Tag == rel.Tag {
					continue
				}
				pair := makePair(fromID, domain.TagNodeID(rc.Tag))
				if rc.Count > relWeights[pair] {
					relWeights[pair] = rc.Count
				}
			}
		}
	}
	for _, pair := range sortedPairs(relWeights) {
		weight := relWeights[pair]
		edge := domain.NewUniverseEdge(pair.a, pair.b, domain.EdgeKindRelation, weight)
		edge.Width = b.layout.edgeWidth(weight)
		u.AddEdge(*edge)
	}

	return nil
}

// Verify checks the builder's output invariants: every node references
// a dataset from this pass and every edge connects two existing nodes
func Verify(u *domain.Universe, datasets []*domain.DomainDataset) error {
	sites := make(map[string]struct{}, len(datasets))
	for _, ds := range datasets {
		sites[ds.Site] = struct{}{}
	}

	for i := range u.Nodes {
		node := &u.Nodes[i]
		if _, ok := sites[node.Site]; !ok {
			return &domain.LayoutError{
				NodeID: node.ID,
				Reason: "references unknown dataset " + node.Site,
			}
		}
	}

	for i := range u.Edges {
		edge := &u.Edges[i]
		if !u.HasNode(edge.FromID) || !u.HasNode(edge.ToID) {
			return &domain.LayoutError{
				NodeID: edge.FromID,
				Reason: "edge " + edge.ID + " references a node outside this build pass",
			}
		}
	}

	return nil
}

func siteIndices(ordered []*domain.DomainDataset) map[string]int {
	idx := make(map[string]int)
	for _, ds := range ordered {
		if _, ok := idx[ds.Site]; !ok {
			idx[ds.Site] = len(idx)
		}
	}
	return idx
}

func discoverTags(datasets []*domain.DomainDataset) (map[string]int, map[string][]string) {
	totals := make(map[string]int)
	siteSet := make(map[string]map[string]struct{})

	touch := func(tag, site string, count int) {
		totals[tag] += count
		if siteSet[tag] == nil {
			siteSet[tag] = make(map[string]struct{})
		}
		siteSet[tag][site] = struct{}{}
	}

	for _, ds := range datasets {
		for _, rel := range ds.Relations {
			relTotal := 0
			for _, rc := range rel.Related {
				relTotal += rc.Count
				// Related tags may never appear as keys themselves;
				// they still become nodes so relation edges always have
				// both endpoints.
				touch(rc.Tag, ds.Site, rc.Count)
			}
			touch(rel.Tag, ds.Site, relTotal)
		}
	}

	sites := make(map[string][]string, len(siteSet))
	for tag, set := range siteSet {
		list := sortedKeys(set)
		sites[tag] = list
	}
	return totals, sites
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
