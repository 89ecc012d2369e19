package config

import (
	"strings"
	"time"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// RequestTimeout bounds each API request, store calls included.
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"15s"`

	// ShutdownTimeout is how long in-flight requests get on SIGTERM.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// TrustProxyHeaders makes the submission policy key clients on X-Forwarded-For.
	TrustProxyHeaders bool `env:"HTTP_TRUST_PROXY_HEADERS" envDefault:"false"`

	// WorkerAPIToken enables the /api/worker routes when non-empty.
	// Out-of-process workers authenticate with "Authorization: Bearer <token>".
	WorkerAPIToken string `env:"WORKER_API_TOKEN"`

	// ClipPublicBaseURL is prefixed to clip paths to build download_url.
	// Leave empty to omit download_url from responses.
	ClipPublicBaseURL string `env:"CLIP_PUBLIC_BASE_URL"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.RequestTimeout <= 0 {
		h.RequestTimeout = 15 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
	h.WorkerAPIToken = strings.TrimSpace(h.WorkerAPIToken)
	h.ClipPublicBaseURL = strings.TrimRight(strings.TrimSpace(h.ClipPublicBaseURL), "/")
}

// WorkerAPIEnabled reports whether the worker routes should be mounted.
func (h *HTTPConfig) WorkerAPIEnabled() bool {
	return h.WorkerAPIToken != ""
}
