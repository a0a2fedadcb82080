package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yusakuma/feed-service/internal/domain"
)

// GET /videos.json
func (h *Handler) GetManifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Videos())
}

// POST /viewers
func (h *Handler) CreateViewer(w http.ResponseWriter, r *http.Request) {
	viewerID, err := h.service.RegisterViewer(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}
	writeJSON(w, http.StatusCreated, ViewerResponse{ViewerID: viewerID})
}

// GET /viewers/{viewerID}/feed
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	viewerID := chi.URLParam(r, "viewerID")
	if viewerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid viewer_id parameter")
		return
	}

	// Parse and validate limit
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 50 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	result, err := h.service.Feed(r.Context(), viewerID, limit)
	if err != nil {
		if errors.Is(err, domain.ErrViewerNotFound) {
			writeError(w, http.StatusNotFound, "viewer_not_found",
				fmt.Sprintf("Viewer with ID %s does not exist", viewerID))
			return
		}
		if errors.Is(err, domain.ErrNoEligibleVideos) {
			writeError(w, http.StatusUnprocessableEntity, "no_eligible_videos",
				"No ad-eligible videos are available")
			return
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			writeError(w, http.StatusServiceUnavailable, "request_timeout",
				"Request timed out, please try again")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	writeJSON(w, http.StatusOK, FeedResponse{
		ViewerID: viewerID,
		Cycle:    result.Cycle,
		Slots:    result.Slots,
		Metadata: FeedMeta{
			CacheHit:    result.CacheHit,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			SlotCount:   len(result.Slots),
		},
	})
}
