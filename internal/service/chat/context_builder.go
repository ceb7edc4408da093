package chat

import (
	"fmt"
	"sort"
	"strings"

	"codeatlas/internal/config"
	"codeatlas/internal/domain/models"
	"codeatlas/internal/llm"
)

// truncationMarker flags summaries cut at the character budget. The cut is
// never silent.
const truncationMarker = "... (truncated)"

// BuildSystemBlock renders the grounding context for a Q&A session: project
// identity, graph shape, detected technologies, and per-file summaries
// bounded at budget characters each.
func BuildSystemBlock(record *models.AnalysisRecord, budget int) string {
	var b strings.Builder

	b.WriteString("You are answering questions about a specific software project. Ground every answer in the context below; say so when the context does not cover a question.\n\n")

	fmt.Fprintf(&b, "Project: %s\n", record.ProjectID)
	if record.DisplayName != "" && record.DisplayName != record.ProjectID {
		fmt.Fprintf(&b, "Display name: %s\n", record.DisplayName)
	}

	if graph := record.FileGraph; graph != nil {
		fmt.Fprintf(&b, "Graph generated at: %s\n", graph.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(&b, "Nodes: %d, edges: %d, files: %d\n",
			len(graph.Nodes), len(graph.Edges), graph.FileCount())

		if len(graph.Technologies) > 0 {
			names := make([]string, 0, len(graph.Technologies))
			for _, t := range graph.Technologies {
				names = append(names, t.Name)
			}
			fmt.Fprintf(&b, "Technologies: %s\n", strings.Join(names, ", "))
		}
	}

	if record.ArchitectureExplanation != "" {
		fmt.Fprintf(&b, "\nArchitecture overview:\n%s\n", record.ArchitectureExplanation)
	}

	if len(record.FileSummaries) > 0 {
		b.WriteString("\nFile summaries:\n")
		// Stable iteration order keeps assembled context reproducible
		paths := make([]string, 0, len(record.FileSummaries))
		for path := range record.FileSummaries {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			fmt.Fprintf(&b, "- %s: %s\n", path, truncateSummary(record.FileSummaries[path], budget))
		}
	}

	return b.String()
}

// truncateSummary cuts text at budget characters, appending an explicit
// marker so readers know content is missing.
func truncateSummary(text string, budget int) string {
	runes := []rune(text)
	if budget <= 0 || len(runes) <= budget {
		return text
	}
	return string(runes[:budget]) + truncationMarker
}

// TrimHistory keeps the last window messages in their original order.
// Older messages are dropped, never summarized.
func TrimHistory(history []models.ChatMessage, window int) []models.ChatMessage {
	if window <= 0 || len(history) <= window {
		return history
	}
	return history[len(history)-window:]
}

// AssembleContext produces the full message sequence for a completion call:
// trimmed history followed by the new question as the final user turn.
func AssembleContext(record *models.AnalysisRecord, history []models.ChatMessage, question string) (string, []llm.Message) {
	system := BuildSystemBlock(record, config.FileSummaryCharBudget)

	trimmed := TrimHistory(history, config.ChatHistoryWindow)
	messages := make([]llm.Message, 0, len(trimmed)+1)
	for _, m := range trimmed {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: models.RoleUser, Content: question})

	return system, messages
}
