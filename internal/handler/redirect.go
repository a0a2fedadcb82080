package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yusakuma/feed-service/internal/service"
)

// GET /go/{videoID}
//
// Lookup failures redirect to the site root instead of erroring: a broken
// outbound link must never strand the viewer on an error page.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	if videoID == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	target, err := h.service.Redirect(r.Context(), videoID, service.ClickMeta{
		Country:   r.Header.Get("CF-IPCountry"),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	})
	if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}
