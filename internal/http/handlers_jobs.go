// Package httpx provides the HTTP API of the streamclip job service.
package httpx

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clipsyelt-svg/Project/internal/domain/model"
	"github.com/clipsyelt-svg/Project/internal/service"
)

// JobHandlers provides the read-only job and clip endpoints.
type JobHandlers struct {
	Reader *service.JobReader
	// ClipBaseURL, when set, is joined with clip paths to build download URLs.
	ClipBaseURL string
	Logger      *slog.Logger
}

type jobListResponse struct {
	Jobs []*model.Job `json:"jobs"`
}

// clipView is a clip as exposed to presentation layers.
type clipView struct {
	ID          string    `json:"id"`
	Idx         int       `json:"idx"`
	Path        string    `json:"path"`
	Hook        *string   `json:"hook"`
	CreatedAt   time.Time `json:"created_at"`
	DownloadURL string    `json:"download_url,omitempty"`
}

type clipListResponse struct {
	Clips []clipView `json:"clips"`
}

// List handles GET /api/jobs?limit=n, newest first.
func (h *JobHandlers) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Reader.ListRecent(r.Context(), parseIntQuery(r, "limit", 0))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	if jobs == nil {
		jobs = []*model.Job{}
	}
	WriteJSON(w, http.StatusOK, jobListResponse{Jobs: jobs})
}

// Get handles GET /api/jobs/{id}.
func (h *JobHandlers) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.Reader.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Clips handles GET /api/jobs/{id}/clips, ordered by idx.
func (h *JobHandlers) Clips(w http.ResponseWriter, r *http.Request) {
	clips, err := h.Reader.ListClips(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}

	out := make([]clipView, 0, len(clips))
	for _, c := range clips {
		out = append(out, clipView{
			ID:          c.ID,
			Idx:         c.Idx,
			Path:        c.Path,
			Hook:        c.Hook,
			CreatedAt:   c.CreatedAt,
			DownloadURL: h.downloadURL(c.Path),
		})
	}
	WriteJSON(w, http.StatusOK, clipListResponse{Clips: out})
}

func (h *JobHandlers) downloadURL(path string) string {
	if h.ClipBaseURL == "" || path == "" {
		return ""
	}
	return h.ClipBaseURL + "/" + strings.TrimLeft(path, "/")
}
