package analysis

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"codeatlas/internal/domain"
	"codeatlas/internal/domain/models"
	"codeatlas/internal/llm"
)

// ExplainRequest asks for an AI narrative over a built graph.
type ExplainRequest struct {
	ProjectID string            `json:"project_id"`
	UserID    string            `json:"user_id"`
	Graph     *models.CodeGraph `json:"graph"`
}

// ExplainResult is the narrative bundle persisted onto the analysis record.
type ExplainResult struct {
	Summary                 string                    `json:"summary"`
	ArchitectureExplanation string                    `json:"architecture_explanation"`
	Technologies            []models.TechnologyDetail `json:"technologies"`
}

// explainReply is the JSON shape requested from the model.
type explainReply struct {
	Summary                 string `json:"summary"`
	ArchitectureExplanation string `json:"architecture_explanation"`
	Technologies            []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"technologies"`
}

// Explain asks the completion provider to narrate a graph, resolves
// documentation deep links for each technology, and persists the result
// onto the (project, user) analysis record.
func (s *Service) Explain(ctx context.Context, req *ExplainRequest) (*ExplainResult, error) {
	if err := s.validateExplainRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	reply, err := s.provider.Complete(ctx, &llm.CompletionRequest{
		System: explainSystemPrompt,
		Messages: []llm.Message{
			{Role: models.RoleUser, Content: explainUserPrompt(req.Graph)},
		},
	})
	if err != nil {
		s.logger.Error("explanation generation failed",
			"project_id", req.ProjectID,
			"error", err,
		)
		return nil, fmt.Errorf("generate explanation: %w", domain.ErrUnavailable)
	}

	var parsed explainReply
	if err := llm.ParseJSONReply(reply.Text, &parsed); err != nil {
		return nil, fmt.Errorf("generate explanation: %w", domain.ErrUnavailable)
	}

	result := &ExplainResult{
		Summary:                 parsed.Summary,
		ArchitectureExplanation: parsed.ArchitectureExplanation,
		Technologies:            s.resolveTechnologies(req.Graph, parsed),
	}

	record := &models.AnalysisRecord{
		ProjectID:               req.ProjectID,
		UserID:                  req.UserID,
		FileGraph:               req.Graph,
		Technologies:            result.Technologies,
		SummaryText:             result.Summary,
		ArchitectureExplanation: result.ArchitectureExplanation,
	}
	if _, err := s.SaveRecord(ctx, record); err != nil {
		return nil, err
	}

	return result, nil
}

// resolveTechnologies joins the graph's detected technologies with the
// model's descriptions and the catalog's deep links. Categories come from
// detection, never from the model.
func (s *Service) resolveTechnologies(graph *models.CodeGraph, parsed explainReply) []models.TechnologyDetail {
	descriptions := make(map[string]string, len(parsed.Technologies))
	for _, t := range parsed.Technologies {
		descriptions[t.Name] = t.Description
	}

	details := make([]models.TechnologyDetail, 0, len(graph.Technologies))
	for _, tech := range graph.Technologies {
		details = append(details, models.TechnologyDetail{
			Name:        tech.Name,
			Category:    tech.Category,
			Description: descriptions[tech.Name],
			DeepLink:    s.catalog.DeepLink(tech.Name),
		})
	}

	return details
}

const explainSystemPrompt = `You are a software architecture tutor. You receive the file/folder structure of a project and explain it to a learner. Respond with a single JSON object and nothing else, in this shape:
{"summary": "...", "architecture_explanation": "...", "technologies": [{"name": "...", "description": "..."}]}
Keep the summary to a few sentences, the architecture explanation to a few paragraphs, and write one plain-language sentence per technology.`

func explainUserPrompt(graph *models.CodeGraph) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Project: %s\n", graph.ProjectID)
	fmt.Fprintf(&b, "Files: %d, folders and files total: %d, edges: %d\n",
		graph.FileCount(), len(graph.Nodes), len(graph.Edges))

	if len(graph.Technologies) > 0 {
		names := make([]string, 0, len(graph.Technologies))
		for _, t := range graph.Technologies {
			names = append(names, t.Name)
		}
		fmt.Fprintf(&b, "Detected technologies: %s\n", strings.Join(names, ", "))
	}

	b.WriteString("\nFile paths:\n")
	for _, n := range graph.Nodes {
		if n.Type == models.NodeTypeFile {
			fmt.Fprintf(&b, "- %s\n", n.Path)
		}
	}

	return b.String()
}

func (s *Service) validateExplainRequest(req *ExplainRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Graph, validation.Required),
	); err != nil {
		return err
	}
	return validateGraph(req.Graph, "graph")
}

// validateGraph rejects graphs missing their node or edge lists, naming
// the offending field.
func validateGraph(graph *models.CodeGraph, field string) error {
	if graph == nil {
		return fmt.Errorf("%s is required", field)
	}
	if len(graph.Nodes) == 0 {
		return fmt.Errorf("%s.nodes must not be empty", field)
	}
	if graph.Edges == nil {
		return fmt.Errorf("%s.edges is required", field)
	}
	return nil
}
