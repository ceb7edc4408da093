package snapshotfs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"codeatlas/internal/domain"
	"codeatlas/internal/domain/models"
	"codeatlas/internal/domain/repositories"
)

// timestampFormat names snapshot files chronologically-sortable without
// colons, which some filesystems reject.
const timestampFormat = "2006-01-02T15-04-05.000000000Z"

// Store persists one JSON document per (projectID, generatedAt) under
// <root>/<projectID>/<timestamp>.json. Append-only: an existing timestamp
// is never overwritten. Writes go through a temp file plus rename, so a
// snapshot either fully lands or the directory is unchanged.
//
// Assumes a single writer per project; two concurrent saves of the same
// timestamp race on the existence check.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a snapshot store rooted at dir.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot root: %w", err)
	}
	return &Store{root: dir, logger: logger}, nil
}

var _ repositories.SnapshotStore = (*Store)(nil)

// Save persists a graph under (projectID, graph.GeneratedAt).
func (s *Store) Save(ctx context.Context, projectID string, graph *models.CodeGraph) error {
	dir := filepath.Join(s.root, sanitize(projectID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create project snapshot directory: %w", err)
	}

	path := filepath.Join(dir, graph.GeneratedAt.UTC().Format(timestampFormat)+".json")
	if _, err := os.Stat(path); err == nil {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("snapshot at %s already exists", graph.GeneratedAt.UTC().Format(timestampFormat)),
			ResourceType: "snapshot",
			ResourceID:   path,
		}
	}

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	// Write to a temp file in the same directory, then rename into place
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit snapshot: %w", err)
	}

	s.logger.Info("snapshot saved",
		"project_id", projectID,
		"generated_at", graph.GeneratedAt,
		"node_count", len(graph.Nodes),
	)

	return nil
}

// List returns all stored graphs for a project, newest first.
func (s *Store) List(ctx context.Context, projectID string) ([]models.CodeGraph, error) {
	dir := filepath.Join(s.root, sanitize(projectID))

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			// No snapshots yet is not an error
			return []models.CodeGraph{}, nil
		}
		return nil, fmt.Errorf("read snapshot directory: %w", err)
	}

	graphs := make([]models.CodeGraph, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read snapshot %s: %w", entry.Name(), err)
		}

		var graph models.CodeGraph
		if err := json.Unmarshal(data, &graph); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", entry.Name(), err)
		}
		graphs = append(graphs, graph)
	}

	sort.Slice(graphs, func(i, j int) bool {
		return graphs[i].GeneratedAt.After(graphs[j].GeneratedAt)
	})

	return graphs, nil
}

// Latest returns the most recent snapshot for a project.
func (s *Store) Latest(ctx context.Context, projectID string) (*models.CodeGraph, error) {
	graphs, err := s.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(graphs) == 0 {
		return nil, fmt.Errorf("project %s has no snapshots: %w", projectID, domain.ErrNotFound)
	}
	return &graphs[0], nil
}

// sanitize keeps project IDs filesystem-safe.
func sanitize(projectID string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return replacer.Replace(projectID)
}
