package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clipsyelt-svg/Project/internal/core"
)

const submissionKeyPrefix = "streamclip:intake:"

// SubmissionPolicyOptions groups dependencies for SubmissionPolicy.
type SubmissionPolicyOptions struct {
	Cache  core.CacheRepository // Optional: nil disables the policy
	Limit  int                  // Submissions allowed per Window; <= 0 disables the policy
	Window time.Duration        // Fixed window length
	Logger *slog.Logger         // Optional: structured logger
}

// SubmissionDecision is the outcome of SubmissionPolicy.Allow.
type SubmissionDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// SubmissionPolicy throttles job submissions per client with a Redis fixed window.
// It sits in front of IntakeService and never touches the job store.
type SubmissionPolicy struct {
	cache  core.CacheRepository
	limit  int
	window time.Duration
	logger *slog.Logger
}

// NewSubmissionPolicy constructs a SubmissionPolicy. A policy without a cache
// or with a non-positive limit allows everything.
func NewSubmissionPolicy(opts SubmissionPolicyOptions) *SubmissionPolicy {
	window := opts.Window
	if window <= 0 {
		window = time.Minute
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SubmissionPolicy{
		cache:  opts.Cache,
		limit:  opts.Limit,
		window: window,
		logger: logger.With("component", "submission_policy"),
	}
}

// Enabled reports whether the policy can reject anything.
func (p *SubmissionPolicy) Enabled() bool {
	return p != nil && p.cache != nil && p.limit > 0
}

// Allow counts one submission for clientKey and reports whether it may proceed.
// Cache failures fail open: intake keeps working when Redis is down.
func (p *SubmissionPolicy) Allow(ctx context.Context, clientKey string) SubmissionDecision {
	if !p.Enabled() {
		return SubmissionDecision{Allowed: true, Remaining: -1}
	}

	key := submissionKey(clientKey)
	n, err := p.cache.Increment(ctx, key, p.window)
	if err != nil {
		p.logger.WarnContext(ctx, "submission policy unavailable, allowing request", "error", err)
		return SubmissionDecision{Allowed: true, Remaining: -1}
	}

	if n <= int64(p.limit) {
		return SubmissionDecision{Allowed: true, Remaining: p.limit - int(n)}
	}

	retry, err := p.cache.TTL(ctx, key)
	if err != nil || retry <= 0 {
		retry = p.window
	}
	p.logger.DebugContext(ctx, "submission rate limited", "client", clientKey, "count", n, "retry_after", retry)
	return SubmissionDecision{Allowed: false, RetryAfter: retry}
}

// Message renders the user-facing rejection text for d.
func (d SubmissionDecision) Message() string {
	secs := int(d.RetryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("Too many submissions. Try again in %ds.", secs)
}

func submissionKey(clientKey string) string {
	k := strings.TrimSpace(clientKey)
	if k == "" {
		k = "anonymous"
	}
	return submissionKeyPrefix + k
}
