package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"cartography/internal/config"
	"cartography/internal/repository/sqlite"
)

const pipelineDataset = `{
	"site": "unix",
	"questions": [
		{"id": 1, "title": "grep recursively", "tags": ["grep", "search"], "score": 120},
		{"id": 2, "title": "find by name", "tags": ["search"], "score": 80}
	]
}`

func testPipeline(t *testing.T, dir string) (*Pipeline, chan Event) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Datasets.Dir = dir

	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	bus := NewEventBus()
	events := make(chan Event, 16)
	bus.Subscribe(events)

	return NewPipeline(cfg, repo, bus, zaptest.NewLogger(t)), events
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "unix.json"), []byte(pipelineDataset), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	p, events := testPipeline(t, dir)

	if st := p.Status(); st.State != "loading" {
		t.Errorf("expected loading before the first run, got %q", st.State)
	}
	if p.Current() != nil {
		t.Error("expected no session before the first run")
	}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	st := p.Status()
	if st.State != "ready" {
		t.Fatalf("expected ready, got %q (%s)", st.State, st.Error)
	}
	if st.Nodes != 2 {
		t.Errorf("expected 2 nodes, got %d", st.Nodes)
	}
	if st.Edges != 1 {
		t.Errorf("expected 1 shared-tag edge, got %d", st.Edges)
	}
	if st.Datasets != 1 || st.Skipped != 0 {
		t.Errorf("expected 1 dataset, 0 skipped, got %d/%d", st.Datasets, st.Skipped)
	}
	if st.FromCache {
		t.Error("first build should not come from cache")
	}

	session := p.Current()
	if session == nil {
		t.Fatal("expected a session after Run")
	}
	if session.Scene == nil || len(session.Scene.Spheres) != 2 {
		t.Error("expected a derived scene on the session")
	}
	if session.Fingerprint == "" {
		t.Error("expected a dataset fingerprint on the session")
	}

	want := []EventType{EventBuildStarted, EventUniverseReloaded}
	for _, wt := range want {
		select {
		case ev := <-events:
			if ev.Type != wt {
				t.Errorf("expected event %s, got %s", wt, ev.Type)
			}
		default:
			t.Fatalf("expected event %s to have been published", wt)
		}
	}
}

func TestPipelineCacheHit(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "unix.json"), []byte(pipelineDataset), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	p, _ := testPipeline(t, dir)
	ctx := context.Background()

	if err := p.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first := p.Current()

	if err := p.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	second := p.Current()

	if !second.FromCache {
		t.Error("expected the second run to hit the snapshot cache")
	}
	if second.ID == first.ID {
		t.Error("expected a fresh session ID per run")
	}
	if !first.Universe.Equal(second.Universe) {
		t.Error("expected the cached universe to match the built one")
	}
}

func TestPipelineRebuildOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unix.json")
	if err := os.WriteFile(path, []byte(pipelineDataset), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	p, _ := testPipeline(t, dir)
	ctx := context.Background()

	if err := p.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first := p.Current()

	extra := `{"site": "math", "questions": [{"id": 1, "title": "induction", "score": 5}]}`
	if err := os.WriteFile(filepath.Join(dir, "math.json"), []byte(extra), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	if err := p.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	second := p.Current()

	if second.FromCache {
		t.Error("changed datasets must not hit the cache")
	}
	if second.Fingerprint == first.Fingerprint {
		t.Error("expected the fingerprint to change with the directory contents")
	}
	if len(second.Universe.Nodes) != 3 {
		t.Errorf("expected 3 nodes after adding a dataset, got %d", len(second.Universe.Nodes))
	}
}

func TestPipelineFailureKeepsLastSession(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "unix.json"), []byte(pipelineDataset), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	p, events := testPipeline(t, dir)
	ctx := context.Background()

	if err := p.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	firstID := p.Current().ID
	for len(events) > 0 {
		<-events
	}

	// Turn the dataset directory into a regular file to force the next
	// load to fail
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove dir: %v", err)
	}
	if err := os.WriteFile(dir, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if err := p.Run(ctx); err == nil {
		t.Fatal("expected Run to fail when the dataset path is a file")
	}

	st := p.Status()
	if st.State != "failed" || st.Error == "" {
		t.Errorf("expected a failed status with an error, got %+v", st)
	}
	// The previous session stays live behind the failure
	if st.SessionID != firstID {
		t.Errorf("expected the failed status to still report session %s, got %s", firstID, st.SessionID)
	}
	if p.Current() == nil || p.Current().ID != firstID {
		t.Error("expected the previous session to survive a failed rebuild")
	}

	sawFailed := false
	for len(events) > 0 {
		if ev := <-events; ev.Type == EventBuildFailed {
			sawFailed = true
		}
	}
	if !sawFailed {
		t.Error("expected a build_failed event")
	}
}

func TestPipelineEmptyDirectory(t *testing.T) {
	p, _ := testPipeline(t, t.TempDir())

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	st := p.Status()
	if st.State != "ready" {
		t.Fatalf("expected ready for an empty directory, got %q", st.State)
	}
	if st.Nodes != 0 || st.Edges != 0 {
		t.Errorf("expected an empty universe, got %d nodes, %d edges", st.Nodes, st.Edges)
	}
}

func TestRequestRebuildCoalesces(t *testing.T) {
	p, _ := testPipeline(t, t.TempDir())

	// Many requests while no serve loop is draining must neither block
	// nor panic
	for i := 0; i < 10; i++ {
		p.RequestRebuild()
	}
	if len(p.rebuild) != 1 {
		t.Errorf("expected pending rebuild requests to coalesce to 1, got %d", len(p.rebuild))
	}
}
