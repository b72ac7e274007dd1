package loader

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"cartography/internal/domain"
)

// questionExportJSON is the question-export file shape
type questionExportJSON struct {
	Site      string         `json:"site"`
	Questions []questionJSON `json:"questions"`
}

type questionJSON struct {
	ID     *int64   `json:"id"`
	Title  string   `json:"title"`
	Tags   []string `json:"tags"`
	Score  int      `json:"score"`
	Linked []int64  `json:"linked"`
}

// tagCountJSON is one entry of a tag-relation file. Field names follow
// the export format: "t" for the tag, "n" for the co-occurrence count.
type tagCountJSON struct {
	Tag   *string `json:"t"`
	Count int     `json:"n"`
}

// ParseDataset parses one dataset file. Two shapes are accepted: a
// question export (object with a "questions" array) and a tag-relation
// map (object mapping tag names to related-tag lists), where the site
// name comes from the filename.
//
// Malformed JSON yields *domain.ParseError; valid JSON that does not
// match either shape, or violates a dataset invariant, yields
// *domain.SchemaError.
func ParseDataset(path string, data []byte) (*domain.DomainDataset, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &domain.ParseError{Path: path, Err: err}
	}

	if _, ok := raw["questions"]; ok {
		return parseQuestionExport(path, data)
	}
	return parseRelationMap(path, raw)
}

func parseQuestionExport(path string, data []byte) (*domain.DomainDataset, error) {
	var export questionExportJSON
	if err := json.Unmarshal(data, &export); err != nil {
		// The shape probe accepted the document, so a failure here is a
		// field-level type mismatch, not malformed JSON.
		return nil, &domain.SchemaError{Path: path, Reason: err.Error()}
	}

	if export.Site == "" {
		return nil, &domain.SchemaError{Path: path, Reason: "missing required field: site"}
	}

	questions := make([]domain.Question, 0, len(export.Questions))
	seen := make(map[int64]struct{}, len(export.Questions))
	for i, q := range export.Questions {
		if q.ID == nil {
			return nil, &domain.SchemaError{
				Path:   path,
				Reason: fmt.Sprintf("question %d: missing required field: id", i),
			}
		}
		if _, ok := seen[*q.ID]; ok {
			return nil, &domain.SchemaError{
				Path:   path,
				Reason: fmt.Sprintf("duplicate question id %d", *q.ID),
			}
		}
		seen[*q.ID] = struct{}{}
		questions = append(questions, domain.Question{
			ID:     *q.ID,
			Title:  q.Title,
			Tags:   q.Tags,
			Score:  q.Score,
			Linked: q.Linked,
		})
	}

	return domain.NewQuestionDataset(export.Site, questions), nil
}

func parseRelationMap(path string, raw map[string]json.RawMessage) (*domain.DomainDataset, error) {
	site := siteFromFilename(path)
	if site == "" {
		return nil, &domain.SchemaError{Path: path, Reason: "cannot derive site name from filename"}
	}

	relations := make([]domain.TagRelation, 0, len(raw))
	for tag, entry := range raw {
		if tag == "" {
			return nil, &domain.SchemaError{Path: path, Reason: "empty tag key in relation map"}
		}

		var counts []tagCountJSON
		if err := json.Unmarshal(entry, &counts); err != nil {
			return nil, &domain.SchemaError{
				Path:   path,
				Reason: fmt.Sprintf("tag %q: expected a related-tag list: %v", tag, err),
			}
		}

		related := make([]domain.TagCount, 0, len(counts))
		for i, c := range counts {
			if c.Tag == nil || *c.Tag == "" {
				return nil, &domain.SchemaError{
					Path:   path,
					Reason: fmt.Sprintf("tag %q entry %d: missing required field: t", tag, i),
				}
			}
			related = append(related, domain.TagCount{Tag: *c.Tag, Count: c.Count})
		}

		// Highest co-occurrence first, name as tiebreak, so downstream
		// consumers never depend on file order
		sort.Slice(related, func(i, j int) bool {
			if related[i].Count != related[j].Count {
				return related[i].Count > related[j].Count
			}
			return related[i].Tag < related[j].Tag
		})

		relations = append(relations, domain.TagRelation{Tag: tag, Related: related})
	}

	sort.Slice(relations, func(i, j int) bool { return relations[i].Tag < relations[j].Tag })

	return domain.NewRelationDataset(site, relations), nil
}

// siteFromFilename derives the site name from a dataset filename,
// e.g. "datasets/unix.json" -> "unix"
func siteFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
