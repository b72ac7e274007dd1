package domain

import (
	"strings"
	"testing"
)

func testUniverse(t *testing.T) *Universe {
	t.Helper()
	u := NewUniverse()
	nodes := []UniverseNode{
		{ID: "q/math/1", Kind: NodeKindQuestion, Site: "math", Position: Position{X: 1}, Scale: 10},
		{ID: "q/math/2", Kind: NodeKindQuestion, Site: "math", Position: Position{Y: 2}, Scale: 12},
		{ID: "t/algebra", Kind: NodeKindTag, Site: "math", Position: Position{Z: 3}, Scale: 20},
	}
	for _, n := range nodes {
		if err := u.AddNode(n); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	u.AddEdge(*NewUniverseEdge("q/math/1", "q/math/2", EdgeKindSharedTag, 1))
	u.AddEdge(*NewUniverseEdge("q/math/1", "t/algebra", EdgeKindRelation, 5))
	u.SortCanonical()
	return u
}

func TestUniverseAddNode(t *testing.T) {
	u := NewUniverse()
	if err := u.AddNode(UniverseNode{ID: "q/math/1"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	err := u.AddNode(UniverseNode{ID: "q/math/1"})
	if err == nil {
		t.Fatal("expected error on duplicate node ID")
	}
	if !strings.Contains(err.Error(), "q/math/1") {
		t.Errorf("error should name the offending ID, got %v", err)
	}
}

func TestUniverseNodeByID(t *testing.T) {
	u := testUniverse(t)

	node, ok := u.NodeByID("t/algebra")
	if !ok {
		t.Fatal("expected t/algebra to exist")
	}
	if node.Kind != NodeKindTag {
		t.Errorf("expected tag node, got %s", node.Kind)
	}

	if _, ok := u.NodeByID("q/math/99"); ok {
		t.Error("expected lookup of unknown ID to fail")
	}
}

func TestUniverseDegree(t *testing.T) {
	u := testUniverse(t)

	if got := u.Degree("q/math/1"); got != 2 {
		t.Errorf("expected degree 2 for q/math/1, got %d", got)
	}
	if got := u.Degree("q/math/2"); got != 1 {
		t.Errorf("expected degree 1 for q/math/2, got %d", got)
	}
	if got := u.Degree("q/math/99"); got != 0 {
		t.Errorf("expected degree 0 for unknown node, got %d", got)
	}
}

func TestUniverseEqual(t *testing.T) {
	t.Run("equal universes", func(t *testing.T) {
		a, b := testUniverse(t), testUniverse(t)
		if !a.Equal(b) {
			t.Error("expected identically built universes to compare equal")
		}
	})

	t.Run("position differs", func(t *testing.T) {
		a, b := testUniverse(t), testUniverse(t)
		b.Nodes[0].Position.X += 0.5
		if a.Equal(b) {
			t.Error("expected position change to break equality")
		}
	})

	t.Run("edge weight differs", func(t *testing.T) {
		a, b := testUniverse(t), testUniverse(t)
		b.Edges[0].Weight++
		if a.Equal(b) {
			t.Error("expected weight change to break equality")
		}
	})

	t.Run("nil", func(t *testing.T) {
		if testUniverse(t).Equal(nil) {
			t.Error("expected Equal(nil) to be false")
		}
	})
}

func TestUniverseFingerprint(t *testing.T) {
	a, b := testUniverse(t), testUniverse(t)

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("expected equal universes to share a fingerprint")
	}

	b.Nodes[0].Scale += 1
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("expected scale change to change the fingerprint")
	}
}

func TestUniverseSortCanonical(t *testing.T) {
	u := NewUniverse()
	u.AddNode(UniverseNode{ID: "t/zsh"})
	u.AddNode(UniverseNode{ID: "q/unix/1"})
	u.AddNode(UniverseNode{ID: "t/awk"})
	u.SortCanonical()

	want := []string{"q/unix/1", "t/awk", "t/zsh"}
	for i, id := range want {
		if u.Nodes[i].ID != id {
			t.Errorf("node %d: expected %s, got %s", i, id, u.Nodes[i].ID)
		}
	}

	// Index must survive the reorder
	if node, ok := u.NodeByID("t/awk"); !ok || node.ID != "t/awk" {
		t.Error("expected lookup to work after canonical sort")
	}
}
