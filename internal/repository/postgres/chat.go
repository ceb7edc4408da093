package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"codeatlas/internal/domain"
	"codeatlas/internal/domain/models"
	"codeatlas/internal/domain/repositories"
)

// PostgresChatSessionRepository implements ChatSessionRepository using PostgreSQL
type PostgresChatSessionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewChatSessionRepository creates a new PostgresChatSessionRepository
func NewChatSessionRepository(config *RepositoryConfig) repositories.ChatSessionRepository {
	return &PostgresChatSessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateSession creates a new session
func (r *PostgresChatSessionRepository) CreateSession(ctx context.Context, session *models.ChatSession) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, analysis_id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.ChatSessions)

	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.AnalysisID,
		session.UserID,
		session.Title,
		session.CreatedAt,
		session.UpdatedAt,
	)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("session '%s' already exists", session.ID),
				ResourceType: "chat_session",
				ResourceID:   session.ID,
			}
		}
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID (scoped to user)
func (r *PostgresChatSessionRepository) GetSession(ctx context.Context, sessionID, userID string) (*models.ChatSession, error) {
	query := fmt.Sprintf(`
		SELECT id, analysis_id, user_id, title, created_at, updated_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.ChatSessions)

	var session models.ChatSession
	err := r.pool.QueryRow(ctx, query, sessionID, userID).Scan(
		&session.ID,
		&session.AnalysisID,
		&session.UserID,
		&session.Title,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &session, nil
}

// ListSessionsByAnalysis retrieves all sessions for an analysis record
func (r *PostgresChatSessionRepository) ListSessionsByAnalysis(ctx context.Context, analysisID, userID string) ([]models.ChatSession, error) {
	query := fmt.Sprintf(`
		SELECT id, analysis_id, user_id, title, created_at, updated_at
		FROM %s
		WHERE analysis_id = $1 AND user_id = $2
		ORDER BY updated_at DESC
	`, r.tables.ChatSessions)

	rows, err := r.pool.Query(ctx, query, analysisID, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ChatSession
	for rows.Next() {
		var session models.ChatSession
		err := rows.Scan(
			&session.ID,
			&session.AnalysisID,
			&session.UserID,
			&session.Title,
			&session.CreatedAt,
			&session.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	// Return empty slice instead of nil
	if sessions == nil {
		sessions = []models.ChatSession{}
	}

	return sessions, nil
}

// UpdateSession updates a session's mutable fields
func (r *PostgresChatSessionRepository) UpdateSession(ctx context.Context, session *models.ChatSession) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4
	`, r.tables.ChatSessions)

	result, err := r.pool.Exec(ctx, query,
		session.Title,
		session.UpdatedAt,
		session.ID,
		session.UserID,
	)

	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", session.ID, domain.ErrNotFound)
	}

	return nil
}

// DeleteSession removes a session; its messages cascade via the
// chat_messages foreign key.
func (r *PostgresChatSessionRepository) DeleteSession(ctx context.Context, sessionID, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.ChatSessions)

	result, err := r.pool.Exec(ctx, query, sessionID, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	return nil
}

// PostgresChatMessageRepository implements ChatMessageRepository using PostgreSQL
type PostgresChatMessageRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewChatMessageRepository creates a new PostgresChatMessageRepository
func NewChatMessageRepository(config *RepositoryConfig) repositories.ChatMessageRepository {
	return &PostgresChatMessageRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// AppendMessage appends a message to a session's log
func (r *PostgresChatMessageRepository) AppendMessage(ctx context.Context, message *models.ChatMessage) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.ChatMessages)

	_, err := r.pool.Exec(ctx, query,
		message.ID,
		message.SessionID,
		message.Role,
		message.Content,
		message.CreatedAt,
	)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("session %s: %w", message.SessionID, domain.ErrNotFound)
		}
		return fmt.Errorf("append message: %w", err)
	}

	return nil
}

// ListMessages retrieves a session's messages ordered by created_at ascending
func (r *PostgresChatMessageRepository) ListMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	query := fmt.Sprintf(`
		SELECT id, session_id, role, content, created_at
		FROM %s
		WHERE session_id = $1
		ORDER BY created_at ASC
	`, r.tables.ChatMessages)

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var message models.ChatMessage
		err := rows.Scan(
			&message.ID,
			&message.SessionID,
			&message.Role,
			&message.Content,
			&message.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Return empty slice instead of nil
	if messages == nil {
		messages = []models.ChatMessage{}
	}

	return messages, nil
}

// DeleteMessage removes a single message
func (r *PostgresChatMessageRepository) DeleteMessage(ctx context.Context, messageID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
	`, r.tables.ChatMessages)

	result, err := r.pool.Exec(ctx, query, messageID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}

	return nil
}
