package models

import (
	"time"
)

// Node types within a code graph.
const (
	NodeTypeFile   = "file"
	NodeTypeFolder = "folder"
)

// EdgeTypeContains is the only edge type: directed from container to contained.
const EdgeTypeContains = "contains"

// Technology categories.
const (
	TechCategoryLanguage  = "language"
	TechCategoryFramework = "framework"
	TechCategoryRuntime   = "runtime"
	TechCategoryTooling   = "tooling"
)

// GraphNode represents a single file or folder in a project's structure.
// ID is a deterministic function of Path, so rebuilding from the same file
// list yields identical node sets.
type GraphNode struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Language string `json:"language,omitempty"`
}

// GraphEdge links a container node to a contained node.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// DetectedTechnology is a language/framework/runtime/tooling tag derived
// from file paths. Unique per name within one graph.
type DetectedTechnology struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// CodeGraph is the node/edge representation of a project's file hierarchy
// plus its detected technologies. Immutable once produced; a re-analysis
// builds a new graph rather than mutating an old one.
type CodeGraph struct {
	ProjectID    string               `json:"project_id"`
	GeneratedAt  time.Time            `json:"generated_at"`
	Nodes        []GraphNode          `json:"nodes"`
	Edges        []GraphEdge          `json:"edges"`
	Technologies []DetectedTechnology `json:"technologies"`
}

// FileCount returns the number of file nodes in the graph.
func (g *CodeGraph) FileCount() int {
	count := 0
	for _, n := range g.Nodes {
		if n.Type == NodeTypeFile {
			count++
		}
	}
	return count
}
