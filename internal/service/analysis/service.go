package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"codeatlas/internal/catalog"
	"codeatlas/internal/config"
	"codeatlas/internal/domain"
	"codeatlas/internal/domain/models"
	"codeatlas/internal/domain/repositories"
	"codeatlas/internal/llm"
	"codeatlas/internal/service/graph"
)

// Service owns the analysis lifecycle: building graphs, persisting
// snapshots, keeping one analysis record per (project, user), and
// orchestrating AI narratives over stored graphs.
type Service struct {
	analysisRepo repositories.AnalysisRepository
	snapshots    repositories.SnapshotStore
	builder      *graph.Builder
	detector     *graph.Detector
	provider     llm.CompletionProvider
	catalog      *catalog.Registry
	diffLimit    int
	logger       *slog.Logger
}

// NewService creates a new analysis service.
func NewService(
	analysisRepo repositories.AnalysisRepository,
	snapshots repositories.SnapshotStore,
	builder *graph.Builder,
	detector *graph.Detector,
	provider llm.CompletionProvider,
	registry *catalog.Registry,
	diffLimit int,
	logger *slog.Logger,
) *Service {
	if diffLimit <= 0 {
		diffLimit = config.DefaultDiffListLimit
	}
	return &Service{
		analysisRepo: analysisRepo,
		snapshots:    snapshots,
		builder:      builder,
		detector:     detector,
		provider:     provider,
		catalog:      registry,
		diffLimit:    diffLimit,
		logger:       logger,
	}
}

// AnalyzeRequest carries a project's flat file list into an analysis.
type AnalyzeRequest struct {
	ProjectID     string            `json:"project_id"`
	UserID        string            `json:"user_id"`
	Files         []string          `json:"files"`
	FileSummaries map[string]string `json:"file_summaries"`
	DisplayName   string            `json:"display_name"`
	SourceType    string            `json:"source_type"`
}

// Analyze builds a fresh graph from the file list, persists it as a
// snapshot, and creates or refreshes the (project, user) analysis record.
func (s *Service) Analyze(ctx context.Context, req *AnalyzeRequest) (*models.CodeGraph, error) {
	if err := s.validateAnalyzeRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	codeGraph := s.builder.Build(req.ProjectID, req.Files)
	codeGraph.Technologies = s.detector.Detect(req.Files)

	if err := s.snapshots.Save(ctx, req.ProjectID, codeGraph); err != nil {
		return nil, err
	}

	record := &models.AnalysisRecord{
		ProjectID:     req.ProjectID,
		UserID:        req.UserID,
		DisplayName:   req.DisplayName,
		SourceType:    req.SourceType,
		FileGraph:     codeGraph,
		FileSummaries: req.FileSummaries,
	}

	if _, err := s.SaveRecord(ctx, record); err != nil {
		return nil, err
	}

	return codeGraph, nil
}

// SaveRecord upserts an analysis record keyed by (projectID, userID):
// merging into the existing record and bumping UpdatedAt when one exists,
// creating a fresh record otherwise. Callers that omit DisplayName or
// SourceType get the raw project ID and "internal" - older callers never
// supplied these fields.
func (s *Service) SaveRecord(ctx context.Context, candidate *models.AnalysisRecord) (*models.AnalysisRecord, error) {
	if candidate.ProjectID == "" || candidate.UserID == "" {
		return nil, fmt.Errorf("%w: project_id and user_id are required", domain.ErrValidation)
	}

	if candidate.DisplayName == "" {
		candidate.DisplayName = candidate.ProjectID
	}
	if candidate.SourceType == "" {
		candidate.SourceType = models.SourceTypeInternal
	}

	now := time.Now().UTC()

	existing, err := s.analysisRepo.GetByProject(ctx, candidate.ProjectID, candidate.UserID)
	if err == nil {
		mergeRecord(existing, candidate)
		existing.UpdatedAt = now
		if err := s.analysisRepo.Update(ctx, existing); err != nil {
			return nil, err
		}
		s.logger.Info("analysis record updated",
			"id", existing.ID,
			"project_id", existing.ProjectID,
			"user_id", existing.UserID,
		)
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	candidate.ID = uuid.NewString()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	if err := s.analysisRepo.Create(ctx, candidate); err != nil {
		return nil, err
	}

	s.logger.Info("analysis record created",
		"id", candidate.ID,
		"project_id", candidate.ProjectID,
		"user_id", candidate.UserID,
	)

	return candidate, nil
}

// GetRecord retrieves a record by ID, scoped to the requesting user.
func (s *Service) GetRecord(ctx context.Context, id, userID string) (*models.AnalysisRecord, error) {
	return s.analysisRepo.GetByID(ctx, id, userID)
}

// GetRecordByProject retrieves the active record for a (project, user) pair.
func (s *Service) GetRecordByProject(ctx context.Context, projectID, userID string) (*models.AnalysisRecord, error) {
	return s.analysisRepo.GetByProject(ctx, projectID, userID)
}

// ListRecords retrieves every record owned by the user.
func (s *Service) ListRecords(ctx context.Context, userID string) ([]models.AnalysisRecord, error) {
	return s.analysisRepo.ListByUser(ctx, userID)
}

// ListSnapshots returns a project's stored graphs, newest first.
func (s *Service) ListSnapshots(ctx context.Context, projectID string) ([]models.CodeGraph, error) {
	return s.snapshots.List(ctx, projectID)
}

// LatestSnapshot returns a project's most recent stored graph.
func (s *Service) LatestSnapshot(ctx context.Context, projectID string) (*models.CodeGraph, error) {
	return s.snapshots.Latest(ctx, projectID)
}

// mergeRecord copies the candidate's supplied fields onto the existing
// record, leaving fields the candidate omitted untouched.
func mergeRecord(existing, candidate *models.AnalysisRecord) {
	existing.DisplayName = candidate.DisplayName
	existing.SourceType = candidate.SourceType
	if candidate.FileGraph != nil {
		existing.FileGraph = candidate.FileGraph
	}
	if candidate.FileSummaries != nil {
		existing.FileSummaries = candidate.FileSummaries
	}
	if candidate.Technologies != nil {
		existing.Technologies = candidate.Technologies
	}
	if candidate.SummaryText != "" {
		existing.SummaryText = candidate.SummaryText
	}
	if candidate.ArchitectureExplanation != "" {
		existing.ArchitectureExplanation = candidate.ArchitectureExplanation
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func (s *Service) validateAnalyzeRequest(req *AnalyzeRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Files,
			validation.Required,
			validation.Length(1, config.MaxFilesPerAnalysis),
			validation.By(validateFilePaths),
		),
		validation.Field(&req.SourceType, validation.In("", models.SourceTypeGitHub, models.SourceTypeLocal, models.SourceTypeInternal)),
	)
}

// validateFilePaths rejects empty, absolute, or backslash-separated paths.
func validateFilePaths(value interface{}) error {
	files, ok := value.([]string)
	if !ok {
		return fmt.Errorf("files must be a list of strings")
	}
	for i, f := range files {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("files[%d] is empty", i)
		}
		if strings.HasPrefix(f, "/") {
			return fmt.Errorf("files[%d] must be a relative path", i)
		}
		if strings.Contains(f, "\\") {
			return fmt.Errorf("files[%d] must use forward slashes", i)
		}
	}
	return nil
}
