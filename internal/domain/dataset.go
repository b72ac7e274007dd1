package domain

import (
	"fmt"
	"sort"
)

// DatasetKind distinguishes the two export shapes a dataset file can have
type DatasetKind string

const (
	// DatasetKindQuestions is a question export: site plus question records
	DatasetKindQuestions DatasetKind = "questions"
	// DatasetKindRelations is a tag-relation map: tag -> related tags with counts
	DatasetKindRelations DatasetKind = "relations"
)

// Question is one question record from a Stack Exchange export
type Question struct {
	ID     int64    `json:"id"`
	Title  string   `json:"title"`
	Tags   []string `json:"tags,omitempty"`
	Score  int      `json:"score"`
	Linked []int64  `json:"linked,omitempty"`
}

// UniqueTags returns the question's tag set with duplicates removed,
// sorted for stable iteration
func (q *Question) UniqueTags() []string {
	if len(q.Tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(q.Tags))
	tags := make([]string, 0, len(q.Tags))
	for _, t := range q.Tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// TagCount is one entry in a tag-relation list: a related tag and how
// often the pair co-occurred
type TagCount struct {
	Tag   string `json:"t"`
	Count int    `json:"n"`
}

// TagRelation maps one tag to the tags it co-occurs with
type TagRelation struct {
	Tag     string     `json:"tag"`
	Related []TagCount `json:"related"`
}

// DomainDataset is one Stack Exchange site's exported data, produced by
// parsing a single JSON file. Immutable after load.
type DomainDataset struct {
	Site       string        `json:"site"`
	Kind       DatasetKind   `json:"kind"`
	SourcePath string        `json:"source_path,omitempty"`
	Questions  []Question    `json:"questions,omitempty"`
	Relations  []TagRelation `json:"relations,omitempty"`
}

// NewQuestionDataset creates a question-export dataset
func NewQuestionDataset(site string, questions []Question) *DomainDataset {
	return &DomainDataset{
		Site:      site,
		Kind:      DatasetKindQuestions,
		Questions: questions,
	}
}

// NewRelationDataset creates a tag-relation dataset
func NewRelationDataset(site string, relations []TagRelation) *DomainDataset {
	return &DomainDataset{
		Site:      site,
		Kind:      DatasetKindRelations,
		Relations: relations,
	}
}

// Validate checks the dataset invariants: a non-empty site identifier
// and question IDs unique within the dataset
func (d *DomainDataset) Validate() error {
	if d.Site == "" {
		return fmt.Errorf("dataset has no site identifier")
	}
	seen := make(map[int64]struct{}, len(d.Questions))
	for i := range d.Questions {
		id := d.Questions[i].ID
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate question id %d in site %q", id, d.Site)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Empty reports whether the dataset contributes no records
func (d *DomainDataset) Empty() bool {
	return len(d.Questions) == 0 && len(d.Relations) == 0
}

// RecordCount returns the number of source records in the dataset
func (d *DomainDataset) RecordCount() int {
	if d.Kind == DatasetKindRelations {
		return len(d.Relations)
	}
	return len(d.Questions)
}
