package analysis

import (
	"context"
	"fmt"
	"strings"

	"codeatlas/internal/domain"
	"codeatlas/internal/domain/models"
	"codeatlas/internal/llm"
	"codeatlas/internal/service/graph"
)

// CompareRequest carries two persisted snapshots into a structural diff.
// Which graph is "current" is the caller's choice; recency is not checked.
// Nothing user-scoped is read or written, so no user ID is carried.
type CompareRequest struct {
	CurrentGraph    *models.CodeGraph `json:"current_graph"`
	HistoricalGraph *models.CodeGraph `json:"historical_graph"`
}

// CompareResult pairs the structural diff with a short narrative of it.
type CompareResult struct {
	Explanation string                   `json:"explanation"`
	Comparison  *models.ArchitectureDiff `json:"comparison"`
}

// Compare diffs two graphs and asks the completion provider for a short
// narrative of the changes. The diff lists handed to the prompt are capped
// at the configured limit so prompt size stays bounded.
func (s *Service) Compare(ctx context.Context, req *CompareRequest) (*CompareResult, error) {
	if err := validateGraph(req.CurrentGraph, "current_graph"); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := validateGraph(req.HistoricalGraph, "historical_graph"); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	diff := graph.Compare(req.CurrentGraph, req.HistoricalGraph, s.diffLimit)

	reply, err := s.provider.Complete(ctx, &llm.CompletionRequest{
		System: compareSystemPrompt,
		Messages: []llm.Message{
			{Role: models.RoleUser, Content: comparePrompt(diff)},
		},
	})
	if err != nil {
		s.logger.Error("comparison narrative failed", "error", err)
		return nil, fmt.Errorf("generate comparison: %w", domain.ErrUnavailable)
	}

	return &CompareResult{
		Explanation: reply.Text,
		Comparison:  diff,
	}, nil
}

const compareSystemPrompt = `You are a software architecture tutor. You receive a structural diff between two versions of a project and describe, in a short paragraph of plain prose, how the architecture evolved. Treat every entry literally: a removed path plus an added path are independent events, not a rename.`

func comparePrompt(diff *models.ArchitectureDiff) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current version: %d files, %d technologies.\n",
		diff.CurrentFileCount, diff.CurrentTechCount)
	fmt.Fprintf(&b, "Historical version: %d files, %d technologies.\n\n",
		diff.HistoricalFileCount, diff.HistoricalTechCount)

	writeList := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", label)
		for _, item := range items {
			fmt.Fprintf(&b, "- %s\n", item)
		}
		b.WriteString("\n")
	}

	writeList("Added files", diff.AddedFiles)
	writeList("Removed files", diff.RemovedFiles)
	writeList("Added technologies", diff.AddedTechnologies)
	writeList("Removed technologies", diff.RemovedTechnologies)

	if len(diff.AddedFiles) == 0 && len(diff.RemovedFiles) == 0 &&
		len(diff.AddedTechnologies) == 0 && len(diff.RemovedTechnologies) == 0 {
		b.WriteString("No structural changes between the two versions.\n")
	}

	return b.String()
}
