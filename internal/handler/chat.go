package handler

import (
	"log/slog"
	"net/http"

	"codeatlas/internal/httputil"
	"codeatlas/internal/service/chat"
)

// ChatHandler serves session and Q&A endpoints.
type ChatHandler struct {
	service *chat.Service
	logger  *slog.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service *chat.Service, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

type createSessionBody struct {
	AnalysisID string `json:"analysis_id"`
	Title      string `json:"title"`
}

// CreateSession handles POST /api/sessions
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.CreateSession(r.Context(), &chat.CreateSessionRequest{
		AnalysisID: body.AnalysisID,
		UserID:     httputil.GetUserID(r),
		Title:      body.Title,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, session)
}

// ListSessions handles GET /api/sessions?analysis_id=...
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	analysisID := r.URL.Query().Get("analysis_id")
	if analysisID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "analysis_id query parameter is required")
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), analysisID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sessions)
}

// GetMessages handles GET /api/sessions/{id}/messages
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.service.ListMessages(r.Context(), r.PathValue("id"), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messages)
}

type askBody struct {
	AnalysisID string `json:"analysis_id"`
	Question   string `json:"question"`
}

// SendMessage handles POST /api/sessions/{id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var body askBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Ask(r.Context(), &chat.AskRequest{
		SessionID: r.PathValue("id"),
		UserID:    httputil.GetUserID(r),
		Question:  body.Question,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// StartChat handles POST /api/chat - the first question of a new session.
// A session is created for the analysis and the question answered in one
// call.
func (h *ChatHandler) StartChat(w http.ResponseWriter, r *http.Request) {
	var body askBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Ask(r.Context(), &chat.AskRequest{
		AnalysisID: body.AnalysisID,
		UserID:     httputil.GetUserID(r),
		Question:   body.Question,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, result)
}

// DeleteSession handles DELETE /api/sessions/{id}
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSession(r.Context(), r.PathValue("id"), httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
