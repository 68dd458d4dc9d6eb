package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/domcapture-service/internal/delivery/http/request"
	"github.com/user/domcapture-service/internal/delivery/http/response"
	"github.com/user/domcapture-service/internal/entity"
	"github.com/user/domcapture-service/internal/repository"
	"github.com/user/domcapture-service/internal/usecase"
)

type Handler struct {
	orchestrator usecase.CaptureOrchestrator
}

func NewHandler(orchestrator usecase.CaptureOrchestrator) *Handler {
	return &Handler{
		orchestrator: orchestrator,
	}
}

func (h *Handler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	var req entity.CaptureRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	state, err := h.orchestrator.Capture(r.Context(), &req)
	if err != nil {
		var capErr *entity.CaptureError
		if !errors.As(err, &capErr) {
			capErr = entity.NewCaptureError(entity.CodeUnknown, "%v", err)
		}
		h.writeJSON(w, statusForCode(capErr.Code), response.CaptureResponse{
			Success: false,
			Error:   capErr,
		})
		return
	}

	h.writeJSON(w, http.StatusOK, response.CaptureResponse{
		Success:  true,
		DOMState: state,
		Warnings: state.Warnings,
	})
}

func (h *Handler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	var req request.ClearCacheRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	if req.Target == "" {
		req.Target = r.URL.Query().Get("target")
	}

	if err := h.orchestrator.ClearCache(r.Context(), req.Target); err != nil {
		slog.Error("Failed to clear capture cache", "target", req.Target, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.StatusResponse{
		Status:  "success",
		Message: "Cache cleared",
	})
}

func (h *Handler) HandleNavigated(w http.ResponseWriter, r *http.Request) {
	var event request.NavigationEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if event.Target == "" {
		h.writeJSONError(w, "Target is required", http.StatusBadRequest)
		return
	}

	if err := h.orchestrator.NotifyNavigation(r.Context(), event.Target); err != nil {
		slog.Error("Failed to invalidate cache on navigation", "target", event.Target, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusAccepted, response.StatusResponse{
		Status: "success",
	})
}

func (h *Handler) HandleGetArchived(w http.ResponseWriter, r *http.Request) {
	fingerprint := r.URL.Query().Get("fingerprint")
	if fingerprint == "" {
		h.writeJSONError(w, "Fingerprint query parameter is required", http.StatusBadRequest)
		return
	}

	state, err := h.orchestrator.Archived(r.Context(), fingerprint)
	if err != nil {
		if errors.Is(err, repository.ErrArchiveNotFound) {
			h.writeJSONError(w, "No archived capture for the given fingerprint", http.StatusNotFound)
			return
		}
		slog.Error("Failed to load archived capture", "fingerprint", fingerprint, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.CaptureResponse{
		Success:  true,
		DOMState: state,
		Warnings: state.Warnings,
	})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusForCode maps capture failure codes onto HTTP statuses.
func statusForCode(code entity.ErrorCode) int {
	switch code {
	case entity.CodeTimeout:
		return http.StatusGatewayTimeout
	case entity.CodeTargetNotFound:
		return http.StatusNotFound
	case entity.CodePermissionDenied, entity.CodeCrossOriginFrame:
		return http.StatusForbidden
	case entity.CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case entity.CodeAgentUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
