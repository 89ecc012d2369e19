// Package videourl decides whether a submitted string names a supported VOD source.
//
// Validation is pure: it performs no I/O and reports every failure as a Rejected
// result rather than an error, so hostile input can be passed straight through.
package videourl

import (
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// Reason classifies a rejection.
type Reason string

const (
	// ReasonMalformedURL means the input is not an absolute URL with a scheme and host.
	ReasonMalformedURL Reason = "malformed_url"
	// ReasonUnsupportedHost means the host is not on the allow-list.
	ReasonUnsupportedHost Reason = "unsupported_host"
)

// DefaultMaxLength bounds the accepted input size in characters.
const DefaultMaxLength = 2048

// DefaultHosts is the allow-list used when none is configured.
var DefaultHosts = []string{"youtube.com", "youtu.be", "twitch.tv", "kick.com"}

// Result is the outcome of Validate. A zero Reason means the URL was accepted.
type Result struct {
	// URL is the parsed form of the input; set only when accepted.
	URL string
	// Reason is empty for accepted input.
	Reason Reason
	// Message is a human-readable rejection reason.
	Message string
}

// Accepted reports whether validation succeeded.
func (r Result) Accepted() bool { return r.Reason == "" }

// Options configures a Validator.
type Options struct {
	// Hosts is the allow-list. Empty means DefaultHosts.
	Hosts []string
	// MaxLength caps the input length in characters. <= 0 means DefaultMaxLength.
	MaxLength int
	// Strict requires an exact or dot-suffix host match instead of substring containment.
	Strict bool
}

// Validator checks candidate URLs against a fixed host allow-list.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	hosts  []string
	maxLen int
	strict bool
}

// New builds a Validator from opts.
func New(opts Options) *Validator {
	hosts := make([]string, 0, len(opts.Hosts))
	for _, h := range opts.Hosts {
		h = strings.Trim(strings.ToLower(strings.TrimSpace(h)), ".")
		if h != "" {
			hosts = append(hosts, h)
		}
	}
	if len(hosts) == 0 {
		hosts = append(hosts, DefaultHosts...)
	}
	maxLen := opts.MaxLength
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	return &Validator{hosts: hosts, maxLen: maxLen, strict: opts.Strict}
}

// Hosts returns a copy of the allow-list.
func (v *Validator) Hosts() []string {
	out := make([]string, len(v.hosts))
	copy(out, v.hosts)
	return out
}

// Validate parses raw and checks its host against the allow-list.
func (v *Validator) Validate(raw string) Result {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return malformed("url is required")
	}
	if !utf8.ValidString(trimmed) {
		return malformed("url must be valid UTF-8")
	}
	if utf8.RuneCountInString(trimmed) > v.maxLen {
		return malformed("url is too long")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return malformed("Invalid URL")
	}
	if parsed.Scheme == "" || parsed.Opaque != "" {
		return malformed("url must be absolute")
	}
	host, ok := normalizeHost(parsed.Hostname())
	if !ok {
		return malformed("url must have a valid host")
	}

	if !v.allowed(host) {
		return Result{
			Reason:  ReasonUnsupportedHost,
			Message: "Unsupported URL: only " + strings.Join(v.hosts, ", ") + " links are accepted",
		}
	}
	return Result{URL: parsed.String()}
}

func (v *Validator) allowed(host string) bool {
	for _, h := range v.hosts {
		if v.strict {
			if host == h || strings.HasSuffix(host, "."+h) {
				return true
			}
			continue
		}
		if strings.Contains(host, h) {
			return true
		}
	}
	return false
}

// normalizeHost lower-cases host and converts internationalized names to their ASCII form.
// IP literals are returned unchanged.
func normalizeHost(host string) (string, bool) {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return "", false
	}
	if net.ParseIP(host) != nil {
		return host, true
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil || ascii == "" {
		return "", false
	}
	return ascii, true
}

func malformed(msg string) Result {
	return Result{Reason: ReasonMalformedURL, Message: msg}
}
