package graph

import (
	"log/slog"
	"os"
	"testing"

	"codeatlas/internal/catalog"
	"codeatlas/internal/domain/models"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	registry, err := catalog.NewRegistry()
	if err != nil {
		t.Fatalf("Failed to create catalog registry: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewBuilder(registry, logger)
}

// TestBuild_BasicScenario covers the canonical three-file layout: two
// folders plus root, three files, five contains edges.
func TestBuild_BasicScenario(t *testing.T) {
	builder := newTestBuilder(t)

	files := []string{"src/index.js", "src/utils/helpers.js", "package.json"}
	graph := builder.Build("proj-1", files)

	var folders, fileNodes int
	for _, n := range graph.Nodes {
		switch n.Type {
		case models.NodeTypeFolder:
			folders++
		case models.NodeTypeFile:
			fileNodes++
		}
	}

	// src, src/utils, plus the synthesized root
	if folders != 3 {
		t.Errorf("expected 3 folder nodes (incl. root), got %d", folders)
	}
	if fileNodes != 3 {
		t.Errorf("expected 3 file nodes, got %d", fileNodes)
	}
	if len(graph.Edges) != 5 {
		// root->src, root->package.json, src->index.js, src->utils, src/utils->helpers.js
		t.Errorf("expected 5 contains edges, got %d", len(graph.Edges))
	}

	for _, e := range graph.Edges {
		if e.Type != models.EdgeTypeContains {
			t.Errorf("unexpected edge type %q", e.Type)
		}
	}
}

// TestBuild_Idempotence verifies that reordering the input file list yields
// identical node and edge sets.
func TestBuild_Idempotence(t *testing.T) {
	builder := newTestBuilder(t)

	a := builder.Build("proj-1", []string{"src/a.go", "src/b/c.go", "README.md"})
	b := builder.Build("proj-1", []string{"README.md", "src/b/c.go", "src/a.go"})

	nodeSet := func(g *models.CodeGraph) map[string]models.GraphNode {
		m := make(map[string]models.GraphNode)
		for _, n := range g.Nodes {
			m[n.ID] = n
		}
		return m
	}
	edgeSet := func(g *models.CodeGraph) map[[2]string]bool {
		m := make(map[[2]string]bool)
		for _, e := range g.Edges {
			m[[2]string{e.From, e.To}] = true
		}
		return m
	}

	nodesA, nodesB := nodeSet(a), nodeSet(b)
	if len(nodesA) != len(nodesB) {
		t.Fatalf("node count mismatch: %d vs %d", len(nodesA), len(nodesB))
	}
	for id, na := range nodesA {
		nb, ok := nodesB[id]
		if !ok {
			t.Errorf("node %s missing from reordered build", id)
			continue
		}
		if na != nb {
			t.Errorf("node %s differs: %+v vs %+v", id, na, nb)
		}
	}

	edgesA, edgesB := edgeSet(a), edgeSet(b)
	if len(edgesA) != len(edgesB) {
		t.Fatalf("edge count mismatch: %d vs %d", len(edgesA), len(edgesB))
	}
	for e := range edgesA {
		if !edgesB[e] {
			t.Errorf("edge %v missing from reordered build", e)
		}
	}
}

// TestBuild_CoverageInvariant verifies that every node except the root has
// exactly one incoming contains edge.
func TestBuild_CoverageInvariant(t *testing.T) {
	builder := newTestBuilder(t)

	graph := builder.Build("proj-1", []string{
		"cmd/server/main.go",
		"internal/config/config.go",
		"internal/config/limits.go",
		"go.mod",
	})

	incoming := make(map[string]int)
	for _, e := range graph.Edges {
		incoming[e.To]++
	}

	for _, n := range graph.Nodes {
		if n.ID == RootNodeID {
			if incoming[n.ID] != 0 {
				t.Errorf("root should have no incoming edges, got %d", incoming[n.ID])
			}
			continue
		}
		if incoming[n.ID] != 1 {
			t.Errorf("node %q (path %q) has %d incoming edges, want 1", n.ID, n.Path, incoming[n.ID])
		}
	}
}

// TestBuild_DuplicateFiles verifies repeated input paths collapse into a
// single node with a single incoming edge.
func TestBuild_DuplicateFiles(t *testing.T) {
	builder := newTestBuilder(t)

	graph := builder.Build("proj-1", []string{"src/a.go", "src/a.go", "src/b.go"})

	counts := make(map[string]int)
	for _, n := range graph.Nodes {
		counts[n.ID]++
	}
	for id, count := range counts {
		if count != 1 {
			t.Errorf("node %s appears %d times, want 1", id, count)
		}
	}

	incoming := make(map[string]int)
	for _, e := range graph.Edges {
		incoming[e.To]++
	}
	for _, n := range graph.Nodes {
		if n.ID == RootNodeID {
			continue
		}
		if incoming[n.ID] != 1 {
			t.Errorf("node %q (path %q) has %d incoming edges, want 1", n.ID, n.Path, incoming[n.ID])
		}
	}
}

// TestBuild_LanguageDetection verifies the extension table fills Language
// for known extensions and leaves it empty otherwise.
func TestBuild_LanguageDetection(t *testing.T) {
	builder := newTestBuilder(t)

	graph := builder.Build("proj-1", []string{"main.py", "notes.xyz"})

	byPath := make(map[string]models.GraphNode)
	for _, n := range graph.Nodes {
		byPath[n.Path] = n
	}

	if got := byPath["main.py"].Language; got != "Python" {
		t.Errorf("expected Python for main.py, got %q", got)
	}
	if got := byPath["notes.xyz"].Language; got != "" {
		t.Errorf("expected empty language for unknown extension, got %q", got)
	}
}

// TestBuild_DeterministicIDs verifies node IDs are a pure function of path.
func TestBuild_DeterministicIDs(t *testing.T) {
	if NodeID("src/index.js") != NodeID("src/index.js") {
		t.Error("NodeID is not deterministic")
	}
	if NodeID("src/a") == NodeID("src/b") {
		t.Error("distinct paths must map to distinct IDs")
	}
	if NodeID("") != RootNodeID {
		t.Errorf("empty path should map to root ID, got %q", NodeID(""))
	}
}
