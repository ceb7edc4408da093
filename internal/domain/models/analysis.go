package models

import (
	"time"
)

// Source types for an analysis record.
const (
	SourceTypeGitHub   = "github"
	SourceTypeLocal    = "local"
	SourceTypeInternal = "internal"
)

// TechnologyDetail enriches a detected technology with AI-written prose and
// a documentation link.
type TechnologyDetail struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	DeepLink    string `json:"deep_link"`
}

// AnalysisRecord bundles a project's code graph with the AI-generated
// narrative for it. One active record exists per (project, user) pair;
// re-analysis updates the record in place rather than creating a duplicate.
type AnalysisRecord struct {
	ID                      string             `json:"id" db:"id"`
	ProjectID               string             `json:"project_id" db:"project_id"`
	UserID                  string             `json:"user_id" db:"user_id"`
	DisplayName             string             `json:"display_name" db:"display_name"`
	SourceType              string             `json:"source_type" db:"source_type"`
	FileGraph               *CodeGraph         `json:"file_graph" db:"file_graph"`
	FileSummaries           map[string]string  `json:"file_summaries" db:"file_summaries"`
	Technologies            []TechnologyDetail `json:"technologies" db:"technologies"`
	SummaryText             string             `json:"summary_text" db:"summary_text"`
	ArchitectureExplanation string             `json:"architecture_explanation" db:"architecture_explanation"`
	CreatedAt               time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time          `json:"updated_at" db:"updated_at"`
}
