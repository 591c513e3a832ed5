// Package handlers implements the HTTP endpoints of the safety API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/storeassist/safety-platform/internal/http/middleware"
	"github.com/storeassist/safety-platform/internal/pipeline"
	"github.com/storeassist/safety-platform/internal/report"
	"github.com/storeassist/safety-platform/internal/safety"
	"github.com/storeassist/safety-platform/pkg/logging"
)

// SafetyHandler serves message classification and report access endpoints.
type SafetyHandler struct {
	pipeline *pipeline.Pipeline
	reports  *report.Service
	logger   *logging.Logger
}

// NewSafetyHandler creates the handler.
func NewSafetyHandler(p *pipeline.Pipeline, reports *report.Service, logger *logging.Logger) *SafetyHandler {
	if p == nil {
		panic("handlers: pipeline cannot be nil")
	}
	if reports == nil {
		panic("handlers: report service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SafetyHandler{pipeline: p, reports: reports, logger: logger}
}

// ClassifyRequest is the body of POST /v1/messages/classify.
type ClassifyRequest struct {
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	StoreID   string `json:"store_id,omitempty"`
	DeviceID  string `json:"device_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Classify evaluates one message and returns the safety response.
func (h *SafetyHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	resp := h.pipeline.HandleMessage(r.Context(), pipeline.Request{
		UserID:  req.UserID,
		Message: req.Message,
		Context: safety.Context{
			StoreID:   req.StoreID,
			DeviceID:  req.DeviceID,
			SessionID: req.SessionID,
		},
	})
	writeJSON(w, http.StatusOK, resp)
}

// GetReport serves GET /v1/reports/{reportID}. The accessor identity comes
// from the JWT subject; the access purpose from the purpose query parameter.
func (h *SafetyHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.AccessorClaimsFromContext(r.Context())
	if !ok || claims.Subject == "" {
		writeError(w, http.StatusUnauthorized, "missing accessor identity")
		return
	}

	reportID := chi.URLParam(r, "reportID")
	purpose := r.URL.Query().Get("purpose")
	if purpose == "" {
		writeError(w, http.StatusBadRequest, "purpose query parameter is required")
		return
	}

	view, err := h.reports.GetReport(r.Context(), claims.Subject, reportID, purpose)
	if errors.Is(err, report.ErrReportAccess) {
		// Same response for unauthorized and unknown IDs.
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		h.logger.Error("report retrieval failed", "report_id", reportID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// PurgeResponse is the body returned by POST /v1/reports/purge.
type PurgeResponse struct {
	Deleted int `json:"deleted"`
}

// PurgeExpired deletes reports past their retention window.
func (h *SafetyHandler) PurgeExpired(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.reports.PurgeExpired(r.Context())
	if err != nil {
		h.logger.Error("retention purge failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, PurgeResponse{Deleted: deleted})
}

// HealthCheck reports service liveness.
func (h *SafetyHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
