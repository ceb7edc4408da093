package handler

import (
	"log/slog"
	"net/http"

	"codeatlas/internal/domain/models"
	"codeatlas/internal/httputil"
	"codeatlas/internal/service/analysis"
)

// AnalysisHandler serves analysis, explanation, snapshot, and comparison
// endpoints.
type AnalysisHandler struct {
	service *analysis.Service
	logger  *slog.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(service *analysis.Service, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		logger:  logger,
	}
}

// HealthCheck handles GET /health
func (h *AnalysisHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeBody struct {
	Files         []string          `json:"files"`
	FileSummaries map[string]string `json:"file_summaries"`
	DisplayName   string            `json:"display_name"`
	SourceType    string            `json:"source_type"`
}

// Analyze handles POST /api/projects/{id}/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var body analyzeBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	graph, err := h.service.Analyze(r.Context(), &analysis.AnalyzeRequest{
		ProjectID:     r.PathValue("id"),
		UserID:        httputil.GetUserID(r),
		Files:         body.Files,
		FileSummaries: body.FileSummaries,
		DisplayName:   body.DisplayName,
		SourceType:    body.SourceType,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, graph)
}

type explainBody struct {
	Graph *models.CodeGraph `json:"graph"`
}

// Explain handles POST /api/projects/{id}/explain
func (h *AnalysisHandler) Explain(w http.ResponseWriter, r *http.Request) {
	var body explainBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Explain(r.Context(), &analysis.ExplainRequest{
		ProjectID: r.PathValue("id"),
		UserID:    httputil.GetUserID(r),
		Graph:     body.Graph,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// ListSnapshots handles GET /api/projects/{id}/snapshots
func (h *AnalysisHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	graphs, err := h.service.ListSnapshots(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, graphs)
}

// LatestSnapshot handles GET /api/projects/{id}/snapshots/latest
func (h *AnalysisHandler) LatestSnapshot(w http.ResponseWriter, r *http.Request) {
	graph, err := h.service.LatestSnapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, graph)
}

type compareBody struct {
	CurrentGraph    *models.CodeGraph `json:"current_graph"`
	HistoricalGraph *models.CodeGraph `json:"historical_graph"`
}

// Compare handles POST /api/compare
func (h *AnalysisHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var body compareBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Compare(r.Context(), &analysis.CompareRequest{
		CurrentGraph:    body.CurrentGraph,
		HistoricalGraph: body.HistoricalGraph,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// ListAnalyses handles GET /api/analyses
func (h *AnalysisHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListRecords(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, records)
}

// GetAnalysis handles GET /api/analyses/{id}
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.GetRecord(r.Context(), r.PathValue("id"), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, record)
}
