package httpx

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clipsyelt-svg/Project/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Intake *service.IntakeService    // Required
	Reader *service.JobReader        // Required
	Jobs   *service.JobService       // Optional: worker API is mounted only with WorkerToken
	Policy *service.SubmissionPolicy // Optional: submission rate limiting
	Checks map[string]HealthCheck    // Optional: readiness probes keyed by dependency name

	WorkerToken       string
	ClipBaseURL       string
	TrustProxyHeaders bool
	RequestTimeout    time.Duration
	Logger            *slog.Logger
}

// NewRouter creates and configures the HTTP router wrapped in
// Recover → Logging → Timeout middleware.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

	mux := http.NewServeMux()

	intake := &IntakeHandlers{
		Svc:               services.Intake,
		Policy:            services.Policy,
		TrustProxyHeaders: services.TrustProxyHeaders,
		Logger:            logger,
	}
	jobs := &JobHandlers{
		Reader:      services.Reader,
		ClipBaseURL: strings.TrimRight(services.ClipBaseURL, "/"),
		Logger:      logger,
	}

	registerIntakeRoutes(mux, intake)
	registerJobRoutes(mux, jobs)
	if services.Jobs != nil && services.WorkerToken != "" {
		registerWorkerRoutes(mux, &WorkerHandlers{Svc: services.Jobs, Logger: logger}, services.WorkerToken)
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.Checks))

	return Chain(mux,
		Recover(logger),
		Logging(logger),
		Timeout(services.RequestTimeout),
	)
}

func registerIntakeRoutes(mux *http.ServeMux, h *IntakeHandlers) {
	mux.HandleFunc("POST /api/create", h.Submit)
	mux.HandleFunc("POST /api/jobs", h.Submit)
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers) {
	mux.HandleFunc("GET /api/jobs", h.List)
	mux.HandleFunc("GET /api/jobs/{id}", h.Get)
	mux.HandleFunc("GET /api/jobs/{id}/clips", h.Clips)
}

func registerWorkerRoutes(mux *http.ServeMux, h *WorkerHandlers, token string) {
	auth := RequireBearer(token)
	mux.Handle("POST /api/worker/claim", auth(http.HandlerFunc(h.Claim)))
	mux.Handle("POST /api/worker/jobs/{id}/transition", auth(http.HandlerFunc(h.Transition)))
	mux.Handle("POST /api/worker/jobs/{id}/clips", auth(http.HandlerFunc(h.AddClip)))
}
