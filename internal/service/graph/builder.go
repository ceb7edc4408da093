package graph

import (
	"encoding/base64"
	"log/slog"
	"sort"
	"strings"
	"time"

	"codeatlas/internal/catalog"
	"codeatlas/internal/domain/models"
)

// RootNodeID identifies the synthesized root folder that top-level entries
// attach to.
const RootNodeID = "root"

// Builder turns a flat list of file paths into a hierarchical code graph.
// Pure computation over its inputs; safe for concurrent use.
type Builder struct {
	catalog *catalog.Registry
	logger  *slog.Logger
}

// NewBuilder creates a new graph builder.
func NewBuilder(registry *catalog.Registry, logger *slog.Logger) *Builder {
	return &Builder{
		catalog: registry,
		logger:  logger,
	}
}

// Build constructs a CodeGraph from forward-slash relative file paths.
// Node IDs are a deterministic function of the path, so two builds from the
// same (possibly reordered) file list produce equal node and edge sets.
// Input validation happens at the boundary; Build assumes a non-empty list.
func (b *Builder) Build(projectID string, files []string) *models.CodeGraph {
	// First pass: derive every distinct ancestor folder path
	folderSet := make(map[string]bool)
	for _, file := range files {
		segments := strings.Split(file, "/")
		for i := 1; i < len(segments); i++ {
			folderSet[strings.Join(segments[:i], "/")] = true
		}
	}

	folderPaths := make([]string, 0, len(folderSet))
	for path := range folderSet {
		folderPaths = append(folderPaths, path)
	}
	sort.Strings(folderPaths)

	nodes := make([]models.GraphNode, 0, len(folderPaths)+len(files)+1)
	edges := make([]models.GraphEdge, 0, len(folderPaths)+len(files))

	// The root folder is synthesized once, the first time a top-level
	// entry needs a parent.
	rootCreated := false
	ensureRoot := func() {
		if rootCreated {
			return
		}
		nodes = append(nodes, models.GraphNode{
			ID:   RootNodeID,
			Type: models.NodeTypeFolder,
			Name: "root",
			Path: "",
		})
		rootCreated = true
	}

	attach := func(childPath string) {
		parent := parentOf(childPath)
		from := NodeID(parent)
		if parent == "" {
			ensureRoot()
			from = RootNodeID
		}
		edges = append(edges, models.GraphEdge{
			From: from,
			To:   NodeID(childPath),
			Type: models.EdgeTypeContains,
		})
	}

	// Second pass: one folder node per distinct ancestor path
	for _, path := range folderPaths {
		nodes = append(nodes, models.GraphNode{
			ID:   NodeID(path),
			Type: models.NodeTypeFolder,
			Name: lastSegment(path),
			Path: path,
		})
		attach(path)
	}

	// Third pass: one file node per distinct input path. Repeated entries
	// collapse into a single node, keeping one incoming edge per node.
	fileSeen := make(map[string]bool, len(files))
	for _, path := range files {
		if fileSeen[path] {
			continue
		}
		fileSeen[path] = true
		node := models.GraphNode{
			ID:   NodeID(path),
			Type: models.NodeTypeFile,
			Name: lastSegment(path),
			Path: path,
		}
		if lang, ok := b.catalog.LanguageForPath(path); ok {
			node.Language = lang
		}
		nodes = append(nodes, node)
		attach(path)
	}

	graph := &models.CodeGraph{
		ProjectID:   projectID,
		GeneratedAt: time.Now().UTC(),
		Nodes:       nodes,
		Edges:       edges,
	}

	b.logger.Info("code graph built",
		"project_id", projectID,
		"file_count", len(fileSeen),
		"folder_count", len(folderPaths),
		"edge_count", len(edges),
	)

	return graph
}

// NodeID derives the deterministic node ID for a path. base64url keeps the
// mapping injective, so distinct paths can never collide.
func NodeID(path string) string {
	if path == "" {
		return RootNodeID
	}
	return base64.RawURLEncoding.EncodeToString([]byte(path))
}

// parentOf returns the immediate parent path, or "" for top-level entries.
func parentOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// lastSegment returns the final path segment.
func lastSegment(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}
