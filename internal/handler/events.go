package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/yusakuma/feed-service/internal/domain"
	"github.com/yusakuma/feed-service/internal/visibility"
)

type observationRequest struct {
	SlotID   string  `json:"slot_id"`
	Ratio    float64 `json:"ratio"`
	Sequence uint64  `json:"sequence"`
}

// POST /viewers/{viewerID}/observations
func (h *Handler) PostObservation(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewerID")

	var req observationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SlotID == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid observation body")
		return
	}
	if req.Ratio < 0 || req.Ratio > 1 {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Intersection ratio must be within [0,1]")
		return
	}

	directives, err := h.service.Observe(r.Context(), viewerID, req.SlotID, visibility.Observation{
		Ratio:    req.Ratio,
		Sequence: req.Sequence,
		At:       time.Now(),
	})
	if err != nil {
		writeLookupError(w, viewerID, err)
		return
	}

	writeJSON(w, http.StatusOK, ObservationResponse{Directives: directives})
}

type eventRequest struct {
	Action  string `json:"action"`
	SlotID  string `json:"slot_id,omitempty"`
	VideoID string `json:"video_id,omitempty"`
}

// POST /viewers/{viewerID}/events
func (h *Handler) PostEvent(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewerID")

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Invalid event body")
		return
	}

	switch req.Action {
	case "click":
		if err := h.service.Click(r.Context(), viewerID, req.SlotID); err != nil {
			writeLookupError(w, viewerID, err)
			return
		}
		writeJSON(w, http.StatusOK, EventResponse{Status: "recorded"})
	case "embed_failed":
		directive, err := h.service.EmbedFailed(r.Context(), viewerID, req.SlotID)
		if err != nil {
			writeLookupError(w, viewerID, err)
			return
		}
		writeJSON(w, http.StatusOK, EventResponse{Status: "degraded", Directive: &directive})
	case "like":
		if err := h.service.Like(r.Context(), viewerID, req.VideoID); err != nil {
			writeLookupError(w, viewerID, err)
			return
		}
		writeJSON(w, http.StatusOK, EventResponse{Status: "recorded"})
	default:
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Unknown event action")
	}
}

func writeLookupError(w http.ResponseWriter, viewerID string, err error) {
	switch {
	case errors.Is(err, domain.ErrViewerNotFound):
		writeError(w, http.StatusNotFound, "viewer_not_found", "Viewer has no active session")
	case errors.Is(err, domain.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", "Slot is not part of the viewer's feed")
	case errors.Is(err, domain.ErrVideoNotFound):
		writeError(w, http.StatusNotFound, "video_not_found", "Video does not exist in the catalog")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
