package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"codeatlas/internal/domain"
	"codeatlas/internal/domain/models"
	"codeatlas/internal/domain/repositories"
)

// PostgresAnalysisRepository implements AnalysisRepository using PostgreSQL.
// Graph, summaries, and technologies are stored as JSONB documents; the
// record's relational columns carry identity and ownership.
type PostgresAnalysisRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewAnalysisRepository creates a new PostgresAnalysisRepository
func NewAnalysisRepository(config *RepositoryConfig) repositories.AnalysisRepository {
	return &PostgresAnalysisRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new analysis record
func (r *PostgresAnalysisRepository) Create(ctx context.Context, record *models.AnalysisRecord) error {
	graphJSON, summariesJSON, techJSON, err := marshalRecordDocs(record)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, user_id, display_name, source_type,
			file_graph, file_summaries, technologies,
			summary_text, architecture_explanation, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, r.tables.Analyses)

	_, err = r.pool.Exec(ctx, query,
		record.ID,
		record.ProjectID,
		record.UserID,
		record.DisplayName,
		record.SourceType,
		graphJSON,
		summariesJSON,
		techJSON,
		record.SummaryText,
		record.ArchitectureExplanation,
		record.CreatedAt,
		record.UpdatedAt,
	)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("analysis for project '%s' already exists", record.ProjectID),
				ResourceType: "analysis",
				ResourceID:   record.ID,
			}
		}
		return fmt.Errorf("create analysis: %w", err)
	}

	return nil
}

// Update replaces the mutable fields of an existing record
func (r *PostgresAnalysisRepository) Update(ctx context.Context, record *models.AnalysisRecord) error {
	graphJSON, summariesJSON, techJSON, err := marshalRecordDocs(record)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET display_name = $1, source_type = $2, file_graph = $3,
			file_summaries = $4, technologies = $5, summary_text = $6,
			architecture_explanation = $7, updated_at = $8
		WHERE id = $9 AND user_id = $10
	`, r.tables.Analyses)

	result, err := r.pool.Exec(ctx, query,
		record.DisplayName,
		record.SourceType,
		graphJSON,
		summariesJSON,
		techJSON,
		record.SummaryText,
		record.ArchitectureExplanation,
		record.UpdatedAt,
		record.ID,
		record.UserID,
	)

	if err != nil {
		return fmt.Errorf("update analysis: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("analysis %s: %w", record.ID, domain.ErrNotFound)
	}

	return nil
}

// GetByID retrieves a record by ID, scoped to the requesting user
func (r *PostgresAnalysisRepository) GetByID(ctx context.Context, id, userID string) (*models.AnalysisRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND user_id = $2
	`, analysisColumns, r.tables.Analyses)

	record, err := r.scanOne(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get analysis: %w", err)
	}

	return record, nil
}

// GetByProject retrieves the active record for a (project, user) pair
func (r *PostgresAnalysisRepository) GetByProject(ctx context.Context, projectID, userID string) (*models.AnalysisRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1 AND user_id = $2
	`, analysisColumns, r.tables.Analyses)

	record, err := r.scanOne(r.pool.QueryRow(ctx, query, projectID, userID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("analysis for project %s: %w", projectID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get analysis by project: %w", err)
	}

	return record, nil
}

// ListByUser retrieves every record owned by the user, newest first
func (r *PostgresAnalysisRepository) ListByUser(ctx context.Context, userID string) ([]models.AnalysisRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, analysisColumns, r.tables.Analyses)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		record, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}

	// Return empty slice instead of nil
	if records == nil {
		records = []models.AnalysisRecord{}
	}

	return records, nil
}

const analysisColumns = `id, project_id, user_id, display_name, source_type,
	file_graph, file_summaries, technologies,
	summary_text, architecture_explanation, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresAnalysisRepository) scanOne(row rowScanner) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	var graphJSON, summariesJSON, techJSON []byte

	err := row.Scan(
		&record.ID,
		&record.ProjectID,
		&record.UserID,
		&record.DisplayName,
		&record.SourceType,
		&graphJSON,
		&summariesJSON,
		&techJSON,
		&record.SummaryText,
		&record.ArchitectureExplanation,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(graphJSON) > 0 {
		record.FileGraph = &models.CodeGraph{}
		if err := json.Unmarshal(graphJSON, record.FileGraph); err != nil {
			return nil, fmt.Errorf("decode file_graph: %w", err)
		}
	}
	if len(summariesJSON) > 0 {
		if err := json.Unmarshal(summariesJSON, &record.FileSummaries); err != nil {
			return nil, fmt.Errorf("decode file_summaries: %w", err)
		}
	}
	if len(techJSON) > 0 {
		if err := json.Unmarshal(techJSON, &record.Technologies); err != nil {
			return nil, fmt.Errorf("decode technologies: %w", err)
		}
	}

	return &record, nil
}

func marshalRecordDocs(record *models.AnalysisRecord) (graphJSON, summariesJSON, techJSON []byte, err error) {
	if record.FileGraph != nil {
		graphJSON, err = json.Marshal(record.FileGraph)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("encode file_graph: %w", err)
		}
	}

	summariesJSON, err = json.Marshal(record.FileSummaries)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode file_summaries: %w", err)
	}

	techJSON, err = json.Marshal(record.Technologies)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode technologies: %w", err)
	}

	return graphJSON, summariesJSON, techJSON, nil
}
