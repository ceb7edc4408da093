package snapshotfs

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"codeatlas/internal/domain"
	"codeatlas/internal/domain/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	store, err := NewStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func testGraph(projectID string, generatedAt time.Time) *models.CodeGraph {
	return &models.CodeGraph{
		ProjectID:   projectID,
		GeneratedAt: generatedAt,
		Nodes: []models.GraphNode{
			{ID: "root", Type: models.NodeTypeFolder, Name: "root", Path: ""},
		},
	}
}

// TestSaveAndList verifies snapshots come back newest first.
func TestSaveAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{0, time.Hour, 2 * time.Hour} {
		if err := store.Save(ctx, "proj-1", testGraph("proj-1", base.Add(offset))); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	graphs, err := store.List(ctx, "proj-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(graphs) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(graphs))
	}
	for i := 1; i < len(graphs); i++ {
		if graphs[i].GeneratedAt.After(graphs[i-1].GeneratedAt) {
			t.Errorf("snapshots not sorted newest first at index %d", i)
		}
	}

	latest, err := store.Latest(ctx, "proj-1")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if !latest.GeneratedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("Latest returned %v, want %v", latest.GeneratedAt, base.Add(2*time.Hour))
	}
}

// TestSave_DuplicateTimestamp verifies the store never overwrites an
// existing timestamp.
func TestSave_DuplicateTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Save(ctx, "proj-1", testGraph("proj-1", at)); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	err := store.Save(ctx, "proj-1", testGraph("proj-1", at))
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate timestamp, got %v", err)
	}

	graphs, err := store.List(ctx, "proj-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(graphs) != 1 {
		t.Errorf("expected 1 snapshot after duplicate save, got %d", len(graphs))
	}
}

// TestList_EmptyProject verifies a project with no snapshots yields an
// empty slice, not an error.
func TestList_EmptyProject(t *testing.T) {
	store := newTestStore(t)

	graphs, err := store.List(context.Background(), "never-analyzed")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if graphs == nil || len(graphs) != 0 {
		t.Errorf("expected empty slice, got %v", graphs)
	}

	_, err = store.Latest(context.Background(), "never-analyzed")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound from Latest, got %v", err)
	}
}

// TestSave_RoundTrip verifies a saved graph decodes back identically.
func TestSave_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	graph := testGraph("proj-1", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	graph.Technologies = []models.DetectedTechnology{
		{Name: "Go", Category: models.TechCategoryLanguage},
	}
	graph.Edges = []models.GraphEdge{
		{From: "root", To: "abc", Type: models.EdgeTypeContains},
	}

	if err := store.Save(ctx, "proj-1", graph); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	graphs, err := store.List(ctx, "proj-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	got := graphs[0]
	if got.ProjectID != graph.ProjectID {
		t.Errorf("ProjectID = %q, want %q", got.ProjectID, graph.ProjectID)
	}
	if len(got.Nodes) != 1 || len(got.Edges) != 1 || len(got.Technologies) != 1 {
		t.Errorf("round trip lost data: %+v", got)
	}
}
