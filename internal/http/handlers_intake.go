package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/clipsyelt-svg/Project/internal/domain/model"
	apperrors "github.com/clipsyelt-svg/Project/internal/errors"
	"github.com/clipsyelt-svg/Project/internal/service"
)

// IntakeHandlers serves job submission.
type IntakeHandlers struct {
	Svc               *service.IntakeService
	Policy            *service.SubmissionPolicy // Optional
	TrustProxyHeaders bool
	Logger            *slog.Logger
}

type submitRequest struct {
	URL *string `json:"url"`
}

type submitResponse struct {
	OK  bool       `json:"ok"`
	ID  string     `json:"id"`
	Job *model.Job `json:"job"`
}

// Submit handles POST /api/create and POST /api/jobs with a body of exactly {"url": "..."}.
func (h *IntakeHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.URL == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: string(apperrors.ErrCodeMalformedRequest),
			Err:     errors.New("url is required"),
			Field:   "url",
		})
		return
	}

	if h.Policy.Enabled() {
		d := h.Policy.Allow(r.Context(), clientKey(r, h.TrustProxyHeaders))
		if !d.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(max(1, int(d.RetryAfter.Seconds()))))
			writeServiceError(w, r, h.Logger, apperrors.RateLimited(d.Message()))
			return
		}
	}

	job, err := h.Svc.Submit(r.Context(), *req.URL)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}

	w.Header().Set("Location", "/api/jobs/"+job.ID)
	WriteJSON(w, http.StatusCreated, submitResponse{OK: true, ID: job.ID, Job: job})
}
