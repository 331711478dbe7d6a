package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mkondo/blogd/internal/repository"
	"github.com/mkondo/blogd/internal/service"
)

type handlers struct {
	svcs   Services
	logger *slog.Logger
}

// blogResponse is the JSON shape of a full post.
type blogResponse struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// blogTitleResponse is the JSON shape of a listing entry.
type blogTitleResponse struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

func (h *handlers) listBlogs(w http.ResponseWriter, r *http.Request) {
	titles, err := h.svcs.Blogs.ListTitles(r.Context())
	if err != nil {
		h.serveError(w, r, err)
		return
	}

	resp := make([]blogTitleResponse, len(titles))
	for i, t := range titles {
		resp[i] = blogTitleResponse{Slug: t.Slug, Title: t.Title}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *handlers) getBlog(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	blog, err := h.svcs.Blogs.Get(r.Context(), slug)
	if err != nil {
		h.serveError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, blogResponse{
		Slug:    blog.Slug,
		Title:   blog.Title,
		Content: blog.Content,
	})
}

func (h *handlers) relatedBlogs(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	related, err := h.svcs.Related.Related(r.Context(), slug)
	if err != nil {
		h.serveError(w, r, err)
		return
	}

	// An empty list is a valid outcome and must stay distinguishable from
	// an error, so it is served as 200 with an empty array.
	if related == nil {
		related = []service.RelatedPost{}
	}
	respondJSON(w, http.StatusOK, related)
}

func (h *handlers) reingest(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svcs.Ingestor.Run(r.Context())
	if err != nil {
		h.serveError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"scanned":   stats.Scanned,
		"skipped":   stats.Skipped,
		"processed": stats.Processed,
		"failed":    stats.Failed,
	})
}

// serveError maps domain errors to HTTP statuses. Store and provider
// failures surface as 500s rather than empty results so data problems stay
// visible.
func (h *handlers) serveError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "blog not found")
		return
	}

	h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	respondError(w, http.StatusInternalServerError, "internal error")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// healthCheckHandler returns a handler for the /healthz endpoint
func healthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

// readinessCheckHandler returns a handler for the /readyz endpoint
func readinessCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
