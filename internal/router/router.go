package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yusakuma/feed-service/internal/handler"
)

func Setup(h *handler.Handler) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Routes
	r.Get("/videos.json", h.GetManifest)
	r.Post("/viewers", h.CreateViewer)
	r.Get("/viewers/{viewerID}/feed", h.GetFeed)
	r.Post("/viewers/{viewerID}/observations", h.PostObservation)
	r.Post("/viewers/{viewerID}/events", h.PostEvent)
	r.Get("/go/{videoID}", h.Redirect)
	r.Get("/feed/batch", h.WarmBatch)
	r.Get("/health", healthCheck)

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
