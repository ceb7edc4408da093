package repositories

import (
	"context"

	"codeatlas/internal/domain/models"
)

// ChatSessionRepository defines data access for chat sessions.
type ChatSessionRepository interface {
	// CreateSession creates a new session
	CreateSession(ctx context.Context, session *models.ChatSession) error

	// GetSession retrieves a session by ID (scoped to user)
	// Returns domain.ErrNotFound if not found
	GetSession(ctx context.Context, sessionID, userID string) (*models.ChatSession, error)

	// ListSessionsByAnalysis retrieves all sessions for an analysis record,
	// most recently updated first. Returns empty slice if none found.
	ListSessionsByAnalysis(ctx context.Context, analysisID, userID string) ([]models.ChatSession, error)

	// UpdateSession updates a session's mutable fields (title, updated_at)
	// Returns domain.ErrNotFound if not found
	UpdateSession(ctx context.Context, session *models.ChatSession) error

	// DeleteSession removes a session and its messages
	// Returns domain.ErrNotFound if not found
	DeleteSession(ctx context.Context, sessionID, userID string) error
}

// ChatMessageRepository defines data access for the append-only message log.
type ChatMessageRepository interface {
	// AppendMessage appends a message to a session's log
	AppendMessage(ctx context.Context, message *models.ChatMessage) error

	// ListMessages retrieves a session's messages ordered by created_at ascending
	// Returns empty slice if the session has no messages
	ListMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error)

	// DeleteMessage removes a single message. Used to retract a user message
	// when the completion call that should answer it fails.
	// Returns domain.ErrNotFound if not found
	DeleteMessage(ctx context.Context, messageID string) error
}
