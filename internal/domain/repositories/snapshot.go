package repositories

import (
	"context"

	"codeatlas/internal/domain/models"
)

// SnapshotStore is the append-only store of timestamped code graphs that
// powers the architecture timeline. Implementations key artifacts by
// (projectID, generatedAt) and never overwrite an existing timestamp.
type SnapshotStore interface {
	// Save persists a graph under (graph.ProjectID, graph.GeneratedAt).
	// Returns domain.ErrConflict if that timestamp is already stored.
	Save(ctx context.Context, projectID string, graph *models.CodeGraph) error

	// List returns all stored graphs for a project, newest first.
	// A project with no snapshots yields an empty slice, not an error.
	List(ctx context.Context, projectID string) ([]models.CodeGraph, error)

	// Latest returns the most recent snapshot for a project.
	// Returns domain.ErrNotFound if the project has none.
	Latest(ctx context.Context, projectID string) (*models.CodeGraph, error)
}
