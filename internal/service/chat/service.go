package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"codeatlas/internal/config"
	"codeatlas/internal/domain"
	"codeatlas/internal/domain/models"
	"codeatlas/internal/domain/repositories"
	"codeatlas/internal/llm"
)

// Service orchestrates Q&A sessions over persisted analysis records.
// A session is created on the first question and never reaches a terminal
// state; it can always receive more messages.
type Service struct {
	sessionRepo  repositories.ChatSessionRepository
	messageRepo  repositories.ChatMessageRepository
	analysisRepo repositories.AnalysisRepository
	provider     llm.CompletionProvider
	logger       *slog.Logger
}

// NewService creates a new chat service.
func NewService(
	sessionRepo repositories.ChatSessionRepository,
	messageRepo repositories.ChatMessageRepository,
	analysisRepo repositories.AnalysisRepository,
	provider llm.CompletionProvider,
	logger *slog.Logger,
) *Service {
	return &Service{
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		analysisRepo: analysisRepo,
		provider:     provider,
		logger:       logger,
	}
}

// CreateSessionRequest opens a session against an analysis record.
type CreateSessionRequest struct {
	AnalysisID string `json:"analysis_id"`
	UserID     string `json:"user_id"`
	Title      string `json:"title"`
}

// CreateSession opens a new session. Title defaults to "New Chat" until the
// first user message overwrites it.
func (s *Service) CreateSession(ctx context.Context, req *CreateSessionRequest) (*models.ChatSession, error) {
	if err := s.validateCreateSessionRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Verify the analysis record exists and belongs to this user
	if _, err := s.analysisRepo.GetByID(ctx, req.AnalysisID, req.UserID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = models.DefaultSessionTitle
	}

	now := time.Now().UTC()
	session := &models.ChatSession{
		ID:         uuid.NewString(),
		AnalysisID: req.AnalysisID,
		UserID:     req.UserID,
		Title:      title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("chat session created",
		"id", session.ID,
		"analysis_id", req.AnalysisID,
		"user_id", req.UserID,
	)

	return session, nil
}

// GetSession retrieves a session by ID, scoped to the user.
func (s *Service) GetSession(ctx context.Context, sessionID, userID string) (*models.ChatSession, error) {
	return s.sessionRepo.GetSession(ctx, sessionID, userID)
}

// ListSessions retrieves all sessions for an analysis record.
func (s *Service) ListSessions(ctx context.Context, analysisID, userID string) ([]models.ChatSession, error) {
	return s.sessionRepo.ListSessionsByAnalysis(ctx, analysisID, userID)
}

// ListMessages retrieves a session's messages, oldest first. Ownership is
// checked through the session lookup.
func (s *Service) ListMessages(ctx context.Context, sessionID, userID string) ([]models.ChatMessage, error) {
	if _, err := s.sessionRepo.GetSession(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListMessages(ctx, sessionID)
}

// DeleteSession removes a session and its messages. Sessions are only ever
// removed by explicit user action.
func (s *Service) DeleteSession(ctx context.Context, sessionID, userID string) error {
	if err := s.sessionRepo.DeleteSession(ctx, sessionID, userID); err != nil {
		return err
	}
	s.logger.Info("chat session deleted", "id", sessionID, "user_id", userID)
	return nil
}

// AskRequest carries one question into a session. An empty SessionID with
// an AnalysisID set opens a new session for the question (the no-session
// to active transition).
type AskRequest struct {
	SessionID  string `json:"session_id"`
	AnalysisID string `json:"analysis_id"`
	UserID     string `json:"user_id"`
	Question   string `json:"question"`
}

// AskResult is the assistant's reply plus the session it landed in.
type AskResult struct {
	Session *models.ChatSession `json:"session"`
	Reply   *models.ChatMessage `json:"reply"`
}

// Ask appends the question to the session log, assembles bounded context
// (system block, trimmed history, question), calls the completion provider,
// and appends the reply verbatim. If the provider fails, the just-appended
// question is retracted so the log never holds an unanswered user turn.
func (s *Service) Ask(ctx context.Context, req *AskRequest) (*AskResult, error) {
	if err := s.validateAskRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	session, sessionCreated, err := s.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}

	record, err := s.analysisRepo.GetByID(ctx, session.AnalysisID, req.UserID)
	if err != nil {
		return nil, err
	}

	history, err := s.messageRepo.ListMessages(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	question := strings.TrimSpace(req.Question)

	// One-time title transition: the first user message names the session
	if session.Title == models.DefaultSessionTitle && !hasUserMessage(history) {
		session.Title = deriveTitle(question)
	}

	userMessage := &models.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      models.RoleUser,
		Content:   question,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messageRepo.AppendMessage(ctx, userMessage); err != nil {
		return nil, err
	}

	system, messages := AssembleContext(record, history, question)

	reply, err := s.provider.Complete(ctx, &llm.CompletionRequest{
		System:   system,
		Messages: messages,
	})
	if err != nil {
		// Retract the question so the log is not left half-answered
		if delErr := s.messageRepo.DeleteMessage(ctx, userMessage.ID); delErr != nil {
			s.logger.Error("failed to retract unanswered question",
				"message_id", userMessage.ID,
				"error", delErr,
			)
		}
		// A session opened for this very question would linger empty;
		// remove it so the caller can simply retry
		if sessionCreated {
			if delErr := s.sessionRepo.DeleteSession(ctx, session.ID, req.UserID); delErr != nil {
				s.logger.Error("failed to remove empty session",
					"session_id", session.ID,
					"error", delErr,
				)
			}
		}
		s.logger.Error("completion failed",
			"session_id", session.ID,
			"error", err,
		)
		return nil, fmt.Errorf("completion: %w", domain.ErrUnavailable)
	}

	assistantMessage := &models.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      models.RoleAssistant,
		Content:   reply.Text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messageRepo.AppendMessage(ctx, assistantMessage); err != nil {
		return nil, err
	}

	session.UpdatedAt = time.Now().UTC()
	if err := s.sessionRepo.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("question answered",
		"session_id", session.ID,
		"history_len", len(history),
		"input_tokens", reply.InputTokens,
		"output_tokens", reply.OutputTokens,
	)

	return &AskResult{Session: session, Reply: assistantMessage}, nil
}

// resolveSession loads the addressed session, or opens one when the caller
// has none yet. The created flag tells Ask whether a failed completion
// should take the fresh session down with it.
func (s *Service) resolveSession(ctx context.Context, req *AskRequest) (*models.ChatSession, bool, error) {
	if req.SessionID != "" {
		session, err := s.sessionRepo.GetSession(ctx, req.SessionID, req.UserID)
		return session, false, err
	}
	session, err := s.CreateSession(ctx, &CreateSessionRequest{
		AnalysisID: req.AnalysisID,
		UserID:     req.UserID,
	})
	return session, err == nil, err
}

// deriveTitle truncates the first user message into a session title.
func deriveTitle(question string) string {
	title := []rune(strings.TrimSpace(question))
	if len(title) > config.MaxSessionTitleLength {
		title = title[:config.MaxSessionTitleLength]
	}
	return string(title)
}

func hasUserMessage(history []models.ChatMessage) bool {
	for _, m := range history {
		if m.Role == models.RoleUser {
			return true
		}
	}
	return false
}

// Validation methods

func (s *Service) validateCreateSessionRequest(req *CreateSessionRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.AnalysisID, validation.Required),
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Title, validation.Length(0, config.MaxSessionTitleLength)),
	)
}

func (s *Service) validateAskRequest(req *AskRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Question,
			validation.Required,
			validation.Length(1, config.MaxQuestionLength),
		),
	); err != nil {
		return err
	}
	if strings.TrimSpace(req.Question) == "" {
		return fmt.Errorf("question must not be blank")
	}
	if req.SessionID == "" && req.AnalysisID == "" {
		return fmt.Errorf("either session_id or analysis_id is required")
	}
	return nil
}
