package repositories

import (
	"context"

	"codeatlas/internal/domain/models"
)

// AnalysisRepository defines data access for analysis records.
type AnalysisRepository interface {
	// Create inserts a new analysis record
	Create(ctx context.Context, record *models.AnalysisRecord) error

	// Update replaces the mutable fields of an existing record
	// Returns domain.ErrNotFound if not found
	Update(ctx context.Context, record *models.AnalysisRecord) error

	// GetByID retrieves a record by ID, scoped to the requesting user.
	// A lookup for another user's record returns domain.ErrNotFound.
	GetByID(ctx context.Context, id, userID string) (*models.AnalysisRecord, error)

	// GetByProject retrieves the active record for a (project, user) pair
	// Returns domain.ErrNotFound if the project has never been analyzed
	GetByProject(ctx context.Context, projectID, userID string) (*models.AnalysisRecord, error)

	// ListByUser retrieves every record owned by the user, newest first
	// Returns empty slice if none found
	ListByUser(ctx context.Context, userID string) ([]models.AnalysisRecord, error)
}
