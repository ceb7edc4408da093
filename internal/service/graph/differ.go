package graph

import (
	"codeatlas/internal/domain/models"
)

// Compare computes the structural diff between a current and a historical
// graph. Plain set difference on file paths and technology names: a file
// moved without content change reports as one removal plus one addition,
// and downstream narratives describe it that way (no rename detection).
//
// The added/removed lists are capped at limit entries to bound prompt size
// for narrative generation; limit <= 0 disables the cap. Counts always
// reflect the full, uncapped sets.
func Compare(current, historical *models.CodeGraph, limit int) *models.ArchitectureDiff {
	currentFiles := filePaths(current)
	historicalFiles := filePaths(historical)

	currentTechs := techNames(current)
	historicalTechs := techNames(historical)

	diff := &models.ArchitectureDiff{
		AddedFiles:          capList(subtract(currentFiles, historicalFiles), limit),
		RemovedFiles:        capList(subtract(historicalFiles, currentFiles), limit),
		AddedTechnologies:   capList(subtract(currentTechs, historicalTechs), limit),
		RemovedTechnologies: capList(subtract(historicalTechs, currentTechs), limit),
		CurrentFileCount:    len(currentFiles),
		HistoricalFileCount: len(historicalFiles),
		CurrentTechCount:    len(currentTechs),
		HistoricalTechCount: len(historicalTechs),
	}

	return diff
}

// filePaths returns the graph's file-node paths in node order.
func filePaths(g *models.CodeGraph) []string {
	paths := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Type == models.NodeTypeFile {
			paths = append(paths, n.Path)
		}
	}
	return paths
}

func techNames(g *models.CodeGraph) []string {
	names := make([]string, 0, len(g.Technologies))
	for _, t := range g.Technologies {
		names = append(names, t.Name)
	}
	return names
}

// subtract returns the members of a that are absent from b, preserving
// a's order.
func subtract(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, v := range b {
		inB[v] = true
	}

	result := make([]string, 0)
	for _, v := range a {
		if !inB[v] {
			result = append(result, v)
		}
	}
	return result
}

func capList(list []string, limit int) []string {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
