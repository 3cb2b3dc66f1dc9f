package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"logbook/internal/models"
	core "logbook/logservice/core"
)

const healthTimeout = 2 * time.Second

// Generic failure bodies, never carrying store details
var (
	saveFailed  = map[string]string{"error": "Failed to save log"}
	fetchFailed = map[string]string{"error": "Failed to fetch logs"}
	serverError = map[string]string{"message": "Server error"}
)

// LogHandler encapsulates the logic for handling HTTP log requests
type LogHandler struct {
	svc          *core.Service
	logger       *log.Logger
	maxBodyBytes int64
}

// NewLogHandler creates a new LogHandler
func NewLogHandler(s *core.Service, l *log.Logger, maxBodyBytes int64) *LogHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &LogHandler{svc: s, logger: l, maxBodyBytes: maxBodyBytes}
}

// CreateLog handles POST /api/logs
func (h *LogHandler) CreateLog(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondJSON(w, map[string]string{"error": "Request body too large"}, http.StatusRequestEntityTooLarge, saveFailed)
			return
		}
		h.logger.Printf("HTTP Handler: Failed to read request body: %v", err)
		h.respondJSON(w, saveFailed, http.StatusInternalServerError, saveFailed)
		return
	}

	// Only JSON bodies are parsed; anything else is treated as an empty object
	if !isJSON(r.Header.Get("Content-Type")) {
		body = nil
	}
	h.logger.Printf("HTTP Handler: Received body: %s", body)

	input, err := models.DecodeLogInput(body)
	if err != nil {
		h.respondJSON(w, map[string]string{"error": err.Error()}, http.StatusBadRequest, saveFailed)
		return
	}

	entry, err := h.svc.Create(r.Context(), *input)
	if err != nil {
		if core.IsValidation(err) {
			h.respondJSON(w, map[string]string{"error": err.Error()}, http.StatusBadRequest, saveFailed)
			return
		}
		h.logger.Printf("HTTP Handler: Error saving log: %v", err)
		h.respondJSON(w, saveFailed, http.StatusInternalServerError, saveFailed)
		return
	}

	h.respondJSON(w, entry, http.StatusOK, saveFailed)
}

// ListActive handles GET /api/logs
func (h *LogHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, h.svc.ListActive)
}

// ListArchived handles GET /api/logs/archived
func (h *LogHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, h.svc.ListArchived)
}

func (h *LogHandler) respondList(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]models.LogEntry, error)) {
	entries, err := list(r.Context())
	if err != nil {
		h.logger.Printf("HTTP Handler: Error fetching logs: %v", err)
		h.respondJSON(w, fetchFailed, http.StatusInternalServerError, fetchFailed)
		return
	}
	h.respondJSON(w, entries, http.StatusOK, fetchFailed)
}

// DeleteLog handles DELETE /api/logs/{id}
func (h *LogHandler) DeleteLog(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondByIDError(w, err)
		return
	}
	h.respondJSON(w, map[string]interface{}{
		"message":    "Log deleted",
		"deletedLog": entry,
	}, http.StatusOK, serverError)
}

// ArchiveLog handles PUT /api/logs/archive/{id}
func (h *LogHandler) ArchiveLog(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.Archive(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondByIDError(w, err)
		return
	}
	h.respondJSON(w, map[string]interface{}{
		"message":     "Log archived",
		"archivedLog": entry,
	}, http.StatusOK, serverError)
}

func (h *LogHandler) respondByIDError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrNotFound) {
		h.respondJSON(w, map[string]string{"message": "Log not found"}, http.StatusNotFound, serverError)
		return
	}
	h.logger.Printf("HTTP Handler: Server error: %v", err)
	h.respondJSON(w, serverError, http.StatusInternalServerError, serverError)
}

// HealthCheck handles GET /health requests
func (h *LogHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"service":   "logbook-api",
	}
	status := http.StatusOK
	if err := h.svc.Ping(ctx); err != nil {
		h.logger.Printf("HTTP Handler: Health check failed: %v", err)
		resp["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	h.respondJSON(w, resp, status, serverError)
}

// respondJSON sends JSON response. The body is encoded before the status
// is written; if encoding fails the client gets a 500 with onFailure.
func (h *LogHandler) respondJSON(w http.ResponseWriter, data interface{}, statusCode int, onFailure map[string]string) {
	body, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("HTTP Handler: Failed to encode JSON response: %v", err)
		statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(onFailure)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Printf("HTTP Handler: Failed to write response: %v", err)
	}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}
