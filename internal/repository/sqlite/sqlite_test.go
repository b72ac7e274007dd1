package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cartography/internal/domain"
)

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	u := domain.NewUniverse()
	nodes := []domain.UniverseNode{
		{ID: "q/unix/1", Kind: domain.NodeKindQuestion, Label: "grep recursively", Site: "unix",
			Position: domain.Position{X: 1.5, Y: -2, Z: 3}, Scale: 25, Score: 120,
			Tags: []string{"grep", "search"}, SourceID: 1},
		{ID: "t/grep", Kind: domain.NodeKindTag, Label: "grep", Site: "unix",
			Sites: []string{"unix"}, Position: domain.Position{Z: 9}, Scale: 40},
	}
	for _, n := range nodes {
		if err := u.AddNode(n); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	edge := domain.NewUniverseEdge("q/unix/1", "t/grep", domain.EdgeKindRelation, 7)
	edge.Width = 0.8
	u.AddEdge(*edge)
	u.SortCanonical()

	return &Snapshot{
		Fingerprint: "abc123",
		BuiltAt:     time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Datasets: []*domain.DomainDataset{
			domain.NewQuestionDataset("unix", []domain.Question{
				{ID: 1, Title: "grep recursively", Tags: []string{"grep", "search"}, Score: 120},
			}),
		},
		Universe: u,
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	want := testSnapshot(t)

	if err := repo.SaveSnapshot(ctx, want); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := repo.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got == nil {
		t.Fatal("expected a snapshot")
	}

	if got.Fingerprint != want.Fingerprint {
		t.Errorf("expected fingerprint %q, got %q", want.Fingerprint, got.Fingerprint)
	}
	if !got.BuiltAt.Equal(want.BuiltAt) {
		t.Errorf("expected built-at %v, got %v", want.BuiltAt, got.BuiltAt)
	}
	if len(got.Datasets) != 1 || got.Datasets[0].Site != "unix" {
		t.Errorf("unexpected datasets: %+v", got.Datasets)
	}
	if !got.Universe.Equal(want.Universe) {
		t.Error("expected the universe to survive the round trip unchanged")
	}
	if got.Universe.Fingerprint() != want.Universe.Fingerprint() {
		t.Error("expected the universe fingerprint to survive the round trip")
	}

	node, ok := got.Universe.NodeByID("q/unix/1")
	if !ok {
		t.Fatal("expected q/unix/1 after restore")
	}
	if len(node.Tags) != 2 || node.SourceID != 1 {
		t.Errorf("expected node detail to survive, got %+v", node)
	}
}

func TestFingerprint(t *testing.T) {
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()

	if _, ok, err := repo.Fingerprint(ctx); err != nil || ok {
		t.Errorf("expected no fingerprint in an empty repository, got ok=%v err=%v", ok, err)
	}

	if err := repo.SaveSnapshot(ctx, testSnapshot(t)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	fp, ok, err := repo.Fingerprint(ctx)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if !ok || fp != "abc123" {
		t.Errorf("expected fingerprint abc123, got %q (ok=%v)", fp, ok)
	}
}

func TestLoadSnapshotEmpty(t *testing.T) {
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer repo.Close()

	snap, err := repo.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap != nil {
		t.Error("expected nil snapshot from an empty repository")
	}
}

func TestSaveSnapshotReplaces(t *testing.T) {
	repo, err := New(filepath.Join(t.TempDir(), "cartography.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()

	if err := repo.SaveSnapshot(ctx, testSnapshot(t)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	second := testSnapshot(t)
	second.Fingerprint = "def456"
	u := domain.NewUniverse()
	u.AddNode(domain.UniverseNode{ID: "q/math/1", Site: "math", Kind: domain.NodeKindQuestion})
	u.SortCanonical()
	second.Universe = u
	second.Datasets = []*domain.DomainDataset{domain.NewQuestionDataset("math", []domain.Question{{ID: 1}})}

	if err := repo.SaveSnapshot(ctx, second); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := repo.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got.Fingerprint != "def456" {
		t.Errorf("expected the second snapshot, got fingerprint %q", got.Fingerprint)
	}
	if len(got.Universe.Nodes) != 1 || got.Universe.Nodes[0].ID != "q/math/1" {
		t.Errorf("expected the first snapshot's nodes to be gone, got %+v", got.Universe.Nodes)
	}
}
