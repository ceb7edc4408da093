package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"codeatlas/internal/domain"
	"codeatlas/internal/domain/models"
	"codeatlas/internal/llm"
)

// In-memory fakes

type fakeSessionRepo struct {
	sessions map[string]*models.ChatSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.ChatSession)}
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, session *models.ChatSession) error {
	clone := *session
	f.sessions[session.ID] = &clone
	return nil
}

func (f *fakeSessionRepo) GetSession(ctx context.Context, sessionID, userID string) (*models.ChatSession, error) {
	session, ok := f.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	clone := *session
	return &clone, nil
}

func (f *fakeSessionRepo) ListSessionsByAnalysis(ctx context.Context, analysisID, userID string) ([]models.ChatSession, error) {
	result := []models.ChatSession{}
	for _, session := range f.sessions {
		if session.AnalysisID == analysisID && session.UserID == userID {
			result = append(result, *session)
		}
	}
	return result, nil
}

func (f *fakeSessionRepo) UpdateSession(ctx context.Context, session *models.ChatSession) error {
	if _, ok := f.sessions[session.ID]; !ok {
		return fmt.Errorf("session %s: %w", session.ID, domain.ErrNotFound)
	}
	clone := *session
	f.sessions[session.ID] = &clone
	return nil
}

func (f *fakeSessionRepo) DeleteSession(ctx context.Context, sessionID, userID string) error {
	session, ok := f.sessions[sessionID]
	if !ok || session.UserID != userID {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	delete(f.sessions, sessionID)
	return nil
}

// fakeMessageRepo keeps append order explicitly so tests do not depend on
// clock resolution.
type fakeMessageRepo struct {
	log []models.ChatMessage
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (f *fakeMessageRepo) AppendMessage(ctx context.Context, message *models.ChatMessage) error {
	f.log = append(f.log, *message)
	return nil
}

func (f *fakeMessageRepo) ListMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	result := []models.ChatMessage{}
	for _, message := range f.log {
		if message.SessionID == sessionID {
			result = append(result, message)
		}
	}
	return result, nil
}

func (f *fakeMessageRepo) DeleteMessage(ctx context.Context, messageID string) error {
	for i, message := range f.log {
		if message.ID == messageID {
			f.log = append(f.log[:i], f.log[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
}

type fakeAnalysisRepo struct {
	records map[string]*models.AnalysisRecord
}

func (f *fakeAnalysisRepo) Create(ctx context.Context, record *models.AnalysisRecord) error { return nil }
func (f *fakeAnalysisRepo) Update(ctx context.Context, record *models.AnalysisRecord) error { return nil }

func (f *fakeAnalysisRepo) GetByID(ctx context.Context, id, userID string) (*models.AnalysisRecord, error) {
	record, ok := f.records[id]
	if !ok || record.UserID != userID {
		return nil, fmt.Errorf("analysis %s: %w", id, domain.ErrNotFound)
	}
	return record, nil
}

func (f *fakeAnalysisRepo) GetByProject(ctx context.Context, projectID, userID string) (*models.AnalysisRecord, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeAnalysisRepo) ListByUser(ctx context.Context, userID string) ([]models.AnalysisRecord, error) {
	return nil, nil
}

type fakeProvider struct {
	reply    string
	err      error
	lastSeen *llm.CompletionRequest
}

func (f *fakeProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastSeen = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.reply}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func newTestService(t *testing.T, provider llm.CompletionProvider) (*Service, *fakeSessionRepo, *fakeMessageRepo) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	sessions := newFakeSessionRepo()
	messages := newFakeMessageRepo()
	analyses := &fakeAnalysisRepo{records: map[string]*models.AnalysisRecord{
		"analysis-1": {
			ID:        "analysis-1",
			ProjectID: "proj-1",
			UserID:    "user-1",
			FileGraph: &models.CodeGraph{ProjectID: "proj-1"},
		},
	}}
	return NewService(sessions, messages, analyses, provider, logger), sessions, messages
}

// TestAsk_FirstQuestionCreatesSession covers the no-session to active
// transition.
func TestAsk_FirstQuestionCreatesSession(t *testing.T) {
	svc, sessions, messages := newTestService(t, &fakeProvider{reply: "It is a Python project."})
	ctx := context.Background()

	result, err := svc.Ask(ctx, &AskRequest{
		AnalysisID: "analysis-1",
		UserID:     "user-1",
		Question:   "What language is this project written in?",
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if result.Session == nil || result.Session.ID == "" {
		t.Fatal("expected a session to be created")
	}
	if len(sessions.sessions) != 1 {
		t.Errorf("expected 1 session, got %d", len(sessions.sessions))
	}
	if result.Reply.Role != models.RoleAssistant || result.Reply.Content != "It is a Python project." {
		t.Errorf("unexpected reply: %+v", result.Reply)
	}

	log, err := svc.ListMessages(ctx, result.Session.ID, "user-1")
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("expected question + reply in the log, got %d messages", len(log))
	}
	if log[0].Role != models.RoleUser || log[1].Role != models.RoleAssistant {
		t.Errorf("log order wrong: %s then %s", log[0].Role, log[1].Role)
	}
	_ = messages
}

// TestAsk_TitleTransitionHappensOnce verifies the title moves from
// "New Chat" to the truncated first question exactly once.
func TestAsk_TitleTransitionHappensOnce(t *testing.T) {
	svc, sessions, _ := newTestService(t, &fakeProvider{reply: "ok"})
	ctx := context.Background()

	longQuestion := strings.Repeat("why ", 30) // 120 chars
	result, err := svc.Ask(ctx, &AskRequest{
		AnalysisID: "analysis-1",
		UserID:     "user-1",
		Question:   longQuestion,
	})
	if err != nil {
		t.Fatalf("first Ask failed: %v", err)
	}

	stored := sessions.sessions[result.Session.ID]
	if stored.Title == models.DefaultSessionTitle {
		t.Fatal("title was not derived from the first message")
	}
	if got := len([]rune(stored.Title)); got > 50 {
		t.Errorf("title length %d exceeds 50", got)
	}
	firstTitle := stored.Title

	// A second long message must never overwrite the title
	_, err = svc.Ask(ctx, &AskRequest{
		SessionID: result.Session.ID,
		UserID:    "user-1",
		Question:  strings.Repeat("and another thing ", 20),
	})
	if err != nil {
		t.Fatalf("second Ask failed: %v", err)
	}
	if sessions.sessions[result.Session.ID].Title != firstTitle {
		t.Error("title was re-derived by a later message")
	}
}

// TestAsk_RetractsQuestionOnProviderFailure verifies the user message does
// not linger in the log when the completion call fails.
func TestAsk_RetractsQuestionOnProviderFailure(t *testing.T) {
	provider := &fakeProvider{reply: "fine"}
	svc, _, _ := newTestService(t, provider)
	ctx := context.Background()

	result, err := svc.Ask(ctx, &AskRequest{
		AnalysisID: "analysis-1",
		UserID:     "user-1",
		Question:   "first question",
	})
	if err != nil {
		t.Fatalf("setup Ask failed: %v", err)
	}

	provider.err = errors.New("completion API unreachable")
	_, err = svc.Ask(ctx, &AskRequest{
		SessionID: result.Session.ID,
		UserID:    "user-1",
		Question:  "doomed question",
	})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	log, err := svc.ListMessages(ctx, result.Session.ID, "user-1")
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	for _, m := range log {
		if m.Content == "doomed question" {
			t.Error("failed question was not retracted from the log")
		}
	}
	if len(log) != 2 {
		t.Errorf("expected the original 2 messages, got %d", len(log))
	}
}

// TestAsk_FailedFirstQuestionRemovesSession verifies that a session opened
// for a first question does not linger empty when the completion fails.
func TestAsk_FailedFirstQuestionRemovesSession(t *testing.T) {
	provider := &fakeProvider{err: errors.New("completion API unreachable")}
	svc, sessions, messages := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.Ask(ctx, &AskRequest{
		AnalysisID: "analysis-1",
		UserID:     "user-1",
		Question:   "doomed first question",
	})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	if len(sessions.sessions) != 0 {
		t.Errorf("expected the fresh session to be removed, %d sessions remain", len(sessions.sessions))
	}
	if len(messages.log) != 0 {
		t.Errorf("expected an empty message log, got %d messages", len(messages.log))
	}

	// An existing session must survive its own provider failures
	provider.err = nil
	result, err := svc.Ask(ctx, &AskRequest{
		AnalysisID: "analysis-1",
		UserID:     "user-1",
		Question:   "first question",
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	provider.err = errors.New("completion API unreachable")
	_, err = svc.Ask(ctx, &AskRequest{
		SessionID: result.Session.ID,
		UserID:    "user-1",
		Question:  "doomed followup",
	})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, ok := sessions.sessions[result.Session.ID]; !ok {
		t.Error("existing session must not be removed on a failed followup")
	}
}

// TestAsk_HistoryWindowReachesProvider verifies only the trailing window of
// history is sent to the provider, with the question last.
func TestAsk_HistoryWindowReachesProvider(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	svc, _, _ := newTestService(t, provider)
	ctx := context.Background()

	result, err := svc.Ask(ctx, &AskRequest{
		AnalysisID: "analysis-1",
		UserID:     "user-1",
		Question:   "question 0",
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	// 7 more asks leave 16 messages of history before the final question
	for i := 1; i <= 7; i++ {
		if _, err := svc.Ask(ctx, &AskRequest{
			SessionID: result.Session.ID,
			UserID:    "user-1",
			Question:  fmt.Sprintf("question %d", i),
		}); err != nil {
			t.Fatalf("Ask %d failed: %v", i, err)
		}
	}

	_, err = svc.Ask(ctx, &AskRequest{
		SessionID: result.Session.ID,
		UserID:    "user-1",
		Question:  "final question",
	})
	if err != nil {
		t.Fatalf("final Ask failed: %v", err)
	}

	sent := provider.lastSeen.Messages
	// 10 history messages plus the new question
	if len(sent) != 11 {
		t.Fatalf("expected 11 messages sent to provider, got %d", len(sent))
	}
	if sent[len(sent)-1].Content != "final question" {
		t.Errorf("question must be the final turn, got %q", sent[len(sent)-1].Content)
	}
	if provider.lastSeen.System == "" {
		t.Error("system block missing from provider request")
	}
}

// TestAsk_Validation rejects blank questions at the boundary.
func TestAsk_Validation(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeProvider{reply: "ok"})
	ctx := context.Background()

	for _, question := range []string{"", "   "} {
		_, err := svc.Ask(ctx, &AskRequest{AnalysisID: "analysis-1", UserID: "user-1", Question: question})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("question %q: expected ErrValidation, got %v", question, err)
		}
	}
}

// TestForeignSession verifies another user cannot read or ask in a session.
func TestForeignSession(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeProvider{reply: "ok"})
	ctx := context.Background()

	result, err := svc.Ask(ctx, &AskRequest{
		AnalysisID: "analysis-1",
		UserID:     "user-1",
		Question:   "hello",
	})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if _, err := svc.ListMessages(ctx, result.Session.ID, "intruder"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign ListMessages, got %v", err)
	}
	_, err = svc.Ask(ctx, &AskRequest{SessionID: result.Session.ID, UserID: "intruder", Question: "hi"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign Ask, got %v", err)
	}
}
