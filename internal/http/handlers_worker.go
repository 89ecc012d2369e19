package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/clipsyelt-svg/Project/internal/domain/model"
	"github.com/clipsyelt-svg/Project/internal/service"
)

// WorkerHandlers expose the job lifecycle to out-of-process workers.
type WorkerHandlers struct {
	Svc    *service.JobService
	Logger *slog.Logger
}

// Claim handles POST /api/worker/claim. It answers 204 when nothing is pending.
func (h *WorkerHandlers) Claim(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.ClaimNext(r.Context())
	if errors.Is(err, model.ErrNoJobsAvailable) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Transition handles POST /api/worker/jobs/{id}/transition with {"status": "..."}.
// A second terminal write answers 409 already_finished.
func (h *WorkerHandlers) Transition(w http.ResponseWriter, r *http.Request) {
	var req model.TransitionJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.ID = r.PathValue("id")

	job, err := h.Svc.Transition(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// AddClip handles POST /api/worker/jobs/{id}/clips with {"idx", "path", "hook"}.
func (h *WorkerHandlers) AddClip(w http.ResponseWriter, r *http.Request) {
	var req model.CreateClipRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.JobID = r.PathValue("id")

	clip, err := h.Svc.AddClip(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, clip)
}
