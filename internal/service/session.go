package service

import (
	"time"

	"cartography/internal/domain"
	"cartography/internal/loader"
	"cartography/internal/scene"
)

// DatasetSummary describes one loaded dataset for status reporting
type DatasetSummary struct {
	Site    string `json:"site"`
	Kind    string `json:"kind"`
	Records int    `json:"records"`
}

// Session is one fully built universe plus everything derived from it.
// Sessions are immutable: the pipeline builds a complete session off to
// the side and swaps it in atomically, so a reader never observes a
// partially built universe.
type Session struct {
	ID          string
	Universe    *domain.Universe
	Scene       *scene.Graph
	Datasets    []DatasetSummary
	Skipped     []loader.Skipped
	Fingerprint string
	BuiltAt     time.Time
	FromCache   bool
}

func summarize(datasets []*domain.DomainDataset) []DatasetSummary {
	summaries := make([]DatasetSummary, 0, len(datasets))
	for _, ds := range datasets {
		summaries = append(summaries, DatasetSummary{
			Site:    ds.Site,
			Kind:    string(ds.Kind),
			Records: ds.RecordCount(),
		})
	}
	return summaries
}
